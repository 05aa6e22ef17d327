package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeepMergeEmptyOverrideKeepsBase(t *testing.T) {
	base := map[string]any{"a": 1, "b": []any{"x"}}
	merged := deepMerge(base, nil)
	assert.Equal(t, base, merged)
}

func TestDeepMergeEmptyBaseTakesOverride(t *testing.T) {
	override := map[string]any{"a": 1}
	merged := deepMerge(nil, override)
	assert.Equal(t, override, merged)
}

func TestDeepMergeScalarOverrideWins(t *testing.T) {
	merged := deepMerge(
		map[string]any{"currency": "RUB", "version": "1.0"},
		map[string]any{"currency": "EUR"},
	)
	assert.Equal(t, "EUR", merged["currency"])
	assert.Equal(t, "1.0", merged["version"])
}

func TestDeepMergeNonEmptyListReplaces(t *testing.T) {
	merged := deepMerge(
		map[string]any{"aliases": []any{"кафе", "бар"}},
		map[string]any{"aliases": []any{"kneipe"}},
	)
	assert.Equal(t, []any{"kneipe"}, merged["aliases"])
}

func TestDeepMergeEmptyListKeepsBase(t *testing.T) {
	merged := deepMerge(
		map[string]any{"aliases": []any{"кафе"}},
		map[string]any{"aliases": []any{}},
	)
	assert.Equal(t, []any{"кафе"}, merged["aliases"])
}

func TestDeepMergeRecursesIntoMaps(t *testing.T) {
	merged := deepMerge(
		map[string]any{"pricing": map[string]any{"currency": "RUB", "entry_point": 3000}},
		map[string]any{"pricing": map[string]any{"currency": "EUR"}},
	)
	pricing := merged["pricing"].(map[string]any)
	assert.Equal(t, "EUR", pricing["currency"])
	assert.Equal(t, 3000, pricing["entry_point"])
}

func TestDeepMergeNewKeysFromOverride(t *testing.T) {
	merged := deepMerge(
		map[string]any{"id": "restaurant"},
		map[string]any{"language": "de"},
	)
	assert.Equal(t, "restaurant", merged["id"])
	assert.Equal(t, "de", merged["language"])
}

func TestDeepMergeDoesNotMutateInputs(t *testing.T) {
	base := map[string]any{"nested": map[string]any{"a": 1}}
	override := map[string]any{"nested": map[string]any{"b": 2}}
	_ = deepMerge(base, override)
	assert.Equal(t, map[string]any{"a": 1}, base["nested"])
	assert.Equal(t, map[string]any{"b": 2}, override["nested"])
}
