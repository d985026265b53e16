package analysis

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

type tier int

const (
	tierPrimary   tier = iota // ja
	tierSecondary             // en
	tierGeneric
)

// baseLanguage reduces a code like "en-US" or "pt_BR" to its lowercased
// primary subtag.
func baseLanguage(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	code = strings.ReplaceAll(code, "_", "-")
	base, _, _ := strings.Cut(code, "-")
	return base
}

func tierOf(code string) tier {
	switch baseLanguage(code) {
	case "ja":
		return tierPrimary
	case "en":
		return tierSecondary
	default:
		return tierGeneric
	}
}

// LanguageName returns the English name of a language code, or the code
// itself when it is not recognised.
func LanguageName(code string) string {
	code = strings.TrimSpace(code)
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return code
}
