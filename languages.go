package gotlive

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// LanguageNames overrides the generated display name for locales whose
// common name reads better in a prompt.
var LanguageNames = map[string]string{
	"en_US": "English (United States)",
	"en_GB": "English (United Kingdom)",
	"es_ES": "Spanish (Spain)",
	"es_MX": "Spanish (Mexico)",
	"fr_FR": "French (France)",
	"fr_CA": "French (Canada)",
	"pt_BR": "Portuguese (Brazil)",
	"pt_PT": "Portuguese (Portugal)",
	"zh_CN": "Chinese (Simplified)",
	"zh_TW": "Chinese (Traditional)",
	"nb_NO": "Norwegian Bokmål (Norway)",
}

// ShortCodeToLocale maps short language codes to the locale used for naming.
var ShortCodeToLocale = map[string]string{
	"en": "en_US",
	"es": "es_ES",
	"fr": "fr_FR",
	"pt": "pt_BR",
	"zh": "zh_CN",
}

var localeClarifications = map[string]string{
	"en_GB": "Use British spelling and vocabulary (colour, organise, flat).",
	"es_MX": "Use Mexican Spanish vocabulary; prefer \"ustedes\" over \"vosotros\".",
	"es_ES": "Use Castilian Spanish vocabulary and \"vosotros\" for the informal plural.",
	"fr_CA": "Use Canadian French vocabulary and conventions.",
	"nb_NO": "Write Norwegian Bokmål, not Nynorsk.",
	"pt_BR": "Use Brazilian Portuguese spelling and vocabulary.",
	"pt_PT": "Use European Portuguese spelling and vocabulary.",
	"zh_CN": "Use Simplified Chinese characters.",
	"zh_TW": "Use Traditional Chinese characters and Taiwanese vocabulary.",
}

// LanguageName returns the human-readable English name for a locale code,
// e.g. "French (France)" for "fr_FR". Unknown codes are returned unchanged.
func LanguageName(code string) string {
	code = NormalizeLocale(code)
	if name, ok := LanguageNames[code]; ok {
		return name
	}
	if locale, ok := ShortCodeToLocale[code]; ok {
		if name, ok := LanguageNames[locale]; ok {
			return name
		}
	}

	tag, err := language.Parse(ToHTMLLang(code))
	if err != nil || tag == language.Und {
		return code
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return code
}

// GetLocaleClarification returns an extra prompt hint for locales with a
// well-known regional variant, or "".
func GetLocaleClarification(code string) string {
	return localeClarifications[NormalizeLocale(code)]
}

// BaseLanguage returns the lower-case base language of a locale code, e.g.
// "en" for "en_US".
func BaseLanguage(code string) string {
	code = strings.TrimSpace(code)
	if tag, err := language.Parse(ToHTMLLang(code)); err == nil {
		if base, conf := tag.Base(); conf != language.No {
			return base.String()
		}
	}
	base, _, _ := strings.Cut(NormalizeLocale(code), "_")
	return strings.ToLower(base)
}

// IsSameBase reports whether two locale codes share a base language.
func IsSameBase(a, b string) bool {
	return BaseLanguage(a) == BaseLanguage(b)
}

// NormalizeLocale converts a language code to the standard format (e.g., "es-ES" → "es_ES").
func NormalizeLocale(code string) string {
	return strings.ReplaceAll(strings.TrimSpace(code), "-", "_")
}

// ToHTMLLang converts a locale code to HTML lang attribute format (e.g., "es_ES" → "es-ES").
func ToHTMLLang(code string) string {
	return strings.ReplaceAll(code, "_", "-")
}
