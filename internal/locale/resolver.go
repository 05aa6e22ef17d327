// Package locale resolves a client's region and country from a phone number,
// free text, or an explicit override, and serves country metadata lookups.
// Detection is pure table/heuristic work; nothing here touches the network.
package locale

import (
	"os"
	"sort"
	"strings"
	"sync"
	"unicode"

	"gopkg.in/yaml.v3"

	"anketa/internal/logging"
	"anketa/internal/observability"
)

// Resolver answers region/country questions over the built-in tables plus an
// optional _countries.yaml overlay.
type Resolver struct {
	logger  logging.Logger
	metrics *observability.Metrics

	mu        sync.RWMutex
	countries map[string]CountryMeta
	overlay   []phoneCode // configured codes, tried before the built-in list
}

// NewResolver builds a resolver over the built-in tables.
func NewResolver(logger logging.Logger, metrics *observability.Metrics) *Resolver {
	countries := make(map[string]CountryMeta, len(builtinCountries))
	for code, meta := range builtinCountries {
		countries[code] = meta
	}
	return &Resolver{
		logger:    logging.OrNop(logger),
		metrics:   metrics,
		countries: countries,
	}
}

// LoadTable merges a _countries.yaml overlay on top of the built-in tables.
// A missing or malformed file degrades to the built-ins with a warning.
func (r *Resolver) LoadTable(path string) {
	if path == "" {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			r.logger.Warn("country table %s unreadable: %v", path, err)
			r.metrics.ParseFailure("locale")
		}
		return
	}
	var table Table
	if err := yaml.Unmarshal(data, &table); err != nil {
		r.logger.Warn("country table %s malformed: %v", path, err)
		r.metrics.ParseFailure("locale")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for code, meta := range table.Countries {
		code = strings.ToLower(strings.TrimSpace(code))
		if code == "" {
			continue
		}
		merged := r.countries[code]
		if meta.Name != "" {
			merged.Name = meta.Name
		}
		if meta.Region != "" {
			merged.Region = meta.Region
		}
		if meta.Language != "" {
			merged.Language = meta.Language
		}
		if meta.Currency != "" {
			merged.Currency = meta.Currency
		}
		if meta.Timezone != "" {
			merged.Timezone = meta.Timezone
		}
		if len(meta.PhoneCodes) > 0 {
			merged.PhoneCodes = meta.PhoneCodes
		}
		r.countries[code] = merged
	}
	overlay := make([]phoneCode, 0, len(table.PhoneCodes))
	for prefix, country := range table.PhoneCodes {
		prefix = strings.TrimSpace(prefix)
		if !strings.HasPrefix(prefix, "+") {
			prefix = "+" + prefix
		}
		overlay = append(overlay, phoneCode{prefix: prefix, country: strings.ToLower(country)})
	}
	sort.Slice(overlay, func(i, j int) bool {
		if len(overlay[i].prefix) != len(overlay[j].prefix) {
			return len(overlay[i].prefix) > len(overlay[j].prefix)
		}
		return overlay[i].prefix < overlay[j].prefix
	})
	r.overlay = overlay
}

// Detect resolves (region, country). Priority: explicit override, phone code,
// then the free-text language heuristic. Both results are "" when nothing
// matches.
func (r *Resolver) Detect(phone, text, explicitCountry string) (string, string) {
	if country := strings.ToLower(strings.TrimSpace(explicitCountry)); country != "" {
		return r.GetRegionForCountry(country), country
	}
	if country := r.detectByPhone(phone); country != "" {
		return r.GetRegionForCountry(country), country
	}
	if country := r.detectByLanguage(text); country != "" {
		return r.GetRegionForCountry(country), country
	}
	return "", ""
}

// GetCountryMeta returns the metadata for a country code.
func (r *Resolver) GetCountryMeta(country string) (CountryMeta, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	meta, ok := r.countries[strings.ToLower(strings.TrimSpace(country))]
	return meta, ok
}

// GetRegionForCountry returns the region a country belongs to, or "".
func (r *Resolver) GetRegionForCountry(country string) string {
	meta, ok := r.GetCountryMeta(country)
	if !ok {
		return ""
	}
	return meta.Region
}

// GetAllCountries lists known country codes, optionally filtered by region.
func (r *Resolver) GetAllCountries(region string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var codes []string
	for code, meta := range r.countries {
		if region != "" && meta.Region != region {
			continue
		}
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// normalizePhone strips separators and forces a leading "+".
func normalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}
	if strings.HasPrefix(digits, "00") {
		digits = digits[2:]
	}
	return "+" + digits
}

func (r *Resolver) detectByPhone(phone string) string {
	normalized := normalizePhone(phone)
	if normalized == "" {
		return ""
	}
	r.mu.RLock()
	overlay := r.overlay
	r.mu.RUnlock()
	for _, code := range overlay {
		if strings.HasPrefix(normalized, code.prefix) {
			return code.country
		}
	}
	for _, code := range builtinPhoneCodes {
		if strings.HasPrefix(normalized, code.prefix) {
			return code.country
		}
	}
	return ""
}

// Latin-script hints checked in a fixed order so the overlap between
// Romance-language character sets resolves deterministically.
var latinHints = []struct {
	country string
	chars   string
	words   []string
}{
	{"de", "äöüß", []string{"und", "der", "die", "das", "ist", "nicht", "ich", "haben", "möchte"}},
	{"fr", "âêîôûëïœ", []string{"le", "la", "les", "et", "est", "vous", "je", "pas", "avec", "pour"}},
	{"pt", "ãõ", []string{"não", "uma", "você", "para", "com", "mais", "isso", "obrigado"}},
	{"es", "ñ¿¡", []string{"el", "los", "las", "es", "está", "para", "con", "una", "que", "gracias"}},
	{"it", "", []string{"il", "di", "che", "per", "con", "non", "una", "sono", "grazie"}},
}

const vietnameseDiacritics = "ăđơưạảấầẩẫậắằẳẵặẹẻẽếềểễệỉịọỏốồổỗộớờởỡợụủứừửữựỳỵỷỹ"

func (r *Resolver) detectByLanguage(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	var cyrillic, arabic, cjk, latin bool
	for _, ch := range text {
		switch {
		case unicode.Is(unicode.Cyrillic, ch):
			cyrillic = true
		case unicode.Is(unicode.Arabic, ch):
			arabic = true
		case unicode.Is(unicode.Han, ch), unicode.Is(unicode.Hiragana, ch),
			unicode.Is(unicode.Katakana, ch), unicode.Is(unicode.Hangul, ch):
			cjk = true
		case unicode.Is(unicode.Latin, ch):
			latin = true
		}
	}

	// Script-level checks first; they are unambiguous.
	switch {
	case cyrillic:
		return "ru"
	case arabic:
		return "ae"
	case cjk:
		return "cn"
	case strings.ContainsAny(text, vietnameseDiacritics):
		return "vn"
	}

	lower := strings.ToLower(text)
	words := splitWords(lower)
	for _, hint := range latinHints {
		if hint.chars != "" && strings.ContainsAny(lower, hint.chars) {
			return hint.country
		}
		if countHits(words, hint.words) >= 2 {
			return hint.country
		}
	}

	// Any remaining Latin text defaults to the English baseline.
	if latin {
		return "us"
	}
	return ""
}

func splitWords(text string) map[string]int {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	words := make(map[string]int, len(fields))
	for _, field := range fields {
		words[field]++
	}
	return words
}

func countHits(words map[string]int, candidates []string) int {
	hits := 0
	for _, candidate := range candidates {
		hits += words[candidate]
	}
	return hits
}
