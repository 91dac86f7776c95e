package i18n

import "strings"

// Language is one entry of the site language list.
type Language struct {
	Code string
	Name string
}

// Config describes the languages a site serves.
type Config struct {
	DefaultLocale    string
	Languages        []Language
	HideUntranslated bool
}

func FromModuleConfig(defaultLocale string, languages []Language, hideUntranslated bool) Config {
	return Config{
		DefaultLocale:    NormalizeCode(defaultLocale),
		Languages:        append([]Language(nil), languages...),
		HideUntranslated: hideUntranslated,
	}
}

// Codes returns the configured language codes in order.
func (c Config) Codes() []string {
	out := make([]string, 0, len(c.Languages))
	for _, lang := range c.Languages {
		out = append(out, NormalizeCode(lang.Code))
	}
	return out
}

// Supports reports whether code is a configured language.
func (c Config) Supports(code string) bool {
	code = NormalizeCode(code)
	for _, lang := range c.Languages {
		if NormalizeCode(lang.Code) == code {
			return true
		}
	}
	return false
}

// Fallbacks returns the languages tried when a page lacks code, starting
// with the default language.
func (c Config) Fallbacks(code string) []string {
	code = NormalizeCode(code)
	out := make([]string, 0, len(c.Languages))
	if c.DefaultLocale != "" && c.DefaultLocale != code {
		out = append(out, c.DefaultLocale)
	}
	for _, lang := range c.Codes() {
		if lang != code && lang != c.DefaultLocale {
			out = append(out, lang)
		}
	}
	return out
}

// NormalizeCode lowercases a language code and uses "-" as separator.
func NormalizeCode(code string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(code)), "_", "-")
}
