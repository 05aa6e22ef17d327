package store

// deepMerge merges an override document into a base document and returns the
// result without mutating either input. Merge rules, per key:
//
//   - key absent from base: take the override value
//   - both values are maps: recurse
//   - override is a non-empty sequence: replace the base sequence
//   - override is an empty sequence: keep the base value
//   - anything else (scalar): override wins
//
// The rules let a regional file replace a whole content list (pain points,
// scripts) while inheriting every list it does not mention.
func deepMerge(base, override map[string]any) map[string]any {
	if len(base) == 0 {
		return cloneMap(override)
	}
	out := cloneMap(base)
	for key, overrideValue := range override {
		baseValue, exists := out[key]
		if !exists {
			out[key] = overrideValue
			continue
		}
		switch typed := overrideValue.(type) {
		case map[string]any:
			if baseMap, ok := baseValue.(map[string]any); ok {
				out[key] = deepMerge(baseMap, typed)
				continue
			}
			out[key] = typed
		case []any:
			if len(typed) > 0 {
				out[key] = typed
			}
		default:
			out[key] = overrideValue
		}
	}
	return out
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			out[k] = cloneMap(nested)
			continue
		}
		out[k] = v
	}
	return out
}
