package locale

import "sort"

// CountryMeta carries the locale defaults for one country. The same shape is
// used by the optional _countries.yaml overlay, so file entries can override
// any built-in field.
type CountryMeta struct {
	Name       string   `yaml:"name,omitempty"`
	Region     string   `yaml:"region"`
	Language   string   `yaml:"language,omitempty"`
	Currency   string   `yaml:"currency,omitempty"`
	Timezone   string   `yaml:"timezone,omitempty"`
	PhoneCodes []string `yaml:"phone_codes,omitempty"`
}

// Table is the parsed _countries.yaml document.
type Table struct {
	Countries  map[string]CountryMeta `yaml:"countries,omitempty"`
	PhoneCodes map[string]string      `yaml:"phone_codes,omitempty"`
}

// builtinCountries is the baseline country metadata. The _countries.yaml
// overlay extends or overrides it per deployment.
var builtinCountries = map[string]CountryMeta{
	"ru": {Name: "Russia", Region: "ru", Language: "ru", Currency: "RUB", Timezone: "Europe/Moscow", PhoneCodes: []string{"+7"}},
	"by": {Name: "Belarus", Region: "cis", Language: "ru", Currency: "BYN", Timezone: "Europe/Minsk", PhoneCodes: []string{"+375"}},
	"kz": {Name: "Kazakhstan", Region: "cis", Language: "ru", Currency: "KZT", Timezone: "Asia/Almaty", PhoneCodes: []string{"+77"}},
	"ua": {Name: "Ukraine", Region: "cis", Language: "uk", Currency: "UAH", Timezone: "Europe/Kyiv", PhoneCodes: []string{"+380"}},
	"de": {Name: "Germany", Region: "eu", Language: "de", Currency: "EUR", Timezone: "Europe/Berlin", PhoneCodes: []string{"+49"}},
	"at": {Name: "Austria", Region: "eu", Language: "de", Currency: "EUR", Timezone: "Europe/Vienna", PhoneCodes: []string{"+43"}},
	"ch": {Name: "Switzerland", Region: "eu", Language: "de", Currency: "CHF", Timezone: "Europe/Zurich", PhoneCodes: []string{"+41"}},
	"fr": {Name: "France", Region: "eu", Language: "fr", Currency: "EUR", Timezone: "Europe/Paris", PhoneCodes: []string{"+33"}},
	"es": {Name: "Spain", Region: "eu", Language: "es", Currency: "EUR", Timezone: "Europe/Madrid", PhoneCodes: []string{"+34"}},
	"it": {Name: "Italy", Region: "eu", Language: "it", Currency: "EUR", Timezone: "Europe/Rome", PhoneCodes: []string{"+39"}},
	"pt": {Name: "Portugal", Region: "eu", Language: "pt", Currency: "EUR", Timezone: "Europe/Lisbon", PhoneCodes: []string{"+351"}},
	"gb": {Name: "United Kingdom", Region: "eu", Language: "en", Currency: "GBP", Timezone: "Europe/London", PhoneCodes: []string{"+44"}},
	"us": {Name: "United States", Region: "us", Language: "en", Currency: "USD", Timezone: "America/New_York", PhoneCodes: []string{"+1"}},
	"br": {Name: "Brazil", Region: "latam", Language: "pt", Currency: "BRL", Timezone: "America/Sao_Paulo", PhoneCodes: []string{"+55"}},
	"mx": {Name: "Mexico", Region: "latam", Language: "es", Currency: "MXN", Timezone: "America/Mexico_City", PhoneCodes: []string{"+52"}},
	"ae": {Name: "United Arab Emirates", Region: "me", Language: "ar", Currency: "AED", Timezone: "Asia/Dubai", PhoneCodes: []string{"+971"}},
	"sa": {Name: "Saudi Arabia", Region: "me", Language: "ar", Currency: "SAR", Timezone: "Asia/Riyadh", PhoneCodes: []string{"+966"}},
	"cn": {Name: "China", Region: "asia", Language: "zh", Currency: "CNY", Timezone: "Asia/Shanghai", PhoneCodes: []string{"+86"}},
	"vn": {Name: "Vietnam", Region: "asia", Language: "vi", Currency: "VND", Timezone: "Asia/Ho_Chi_Minh", PhoneCodes: []string{"+84"}},
	"jp": {Name: "Japan", Region: "asia", Language: "ja", Currency: "JPY", Timezone: "Asia/Tokyo", PhoneCodes: []string{"+81"}},
	"kr": {Name: "South Korea", Region: "asia", Language: "ko", Currency: "KRW", Timezone: "Asia/Seoul", PhoneCodes: []string{"+82"}},
}

type phoneCode struct {
	prefix  string
	country string
}

// builtinPhoneCodes is derived from builtinCountries, ordered most specific
// prefix first so "+77" (kz) wins over "+7" (ru).
var builtinPhoneCodes = buildPhoneCodes()

func buildPhoneCodes() []phoneCode {
	var codes []phoneCode
	for country, meta := range builtinCountries {
		for _, prefix := range meta.PhoneCodes {
			codes = append(codes, phoneCode{prefix: prefix, country: country})
		}
	}
	sort.Slice(codes, func(i, j int) bool {
		if len(codes[i].prefix) != len(codes[j].prefix) {
			return len(codes[i].prefix) > len(codes[j].prefix)
		}
		return codes[i].prefix < codes[j].prefix
	})
	return codes
}
