package models

import "sort"

var languages = map[string]string{
	"en": "English",
	"es": "Español",
	"fr": "Français",
	"de": "Deutsch",
	"it": "Italiano",
	"pt": "Português",
	"ru": "Русский",
	"nl": "Nederlands",
	"sv": "Svenska",
	"no": "Norsk",
	"da": "Dansk",
	"fi": "Suomi",
	"pl": "Polski",
	"cs": "Čeština",
	"el": "Ελληνικά",
	"hu": "Magyar",
	"ro": "Română",
	"bg": "Български",
	"hr": "Hrvatski",
	"sk": "Slovenčina",
	"sl": "Slovenščina",
	"lt": "Lietuvių",
	"lv": "Latviešu",
	"et": "Eesti",
	"ga": "Gaeilge",
	"mt": "Malti",
}

// LanguageName maps a supported language code to its display name.
func LanguageName(code string) (string, bool) {
	name, ok := languages[code]
	return name, ok
}

// SupportedLanguages returns the supported codes in sorted order.
func SupportedLanguages() []string {
	codes := make([]string, 0, len(languages))
	for code := range languages {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
