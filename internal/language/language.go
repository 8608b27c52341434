package language

import (
	"strings"

	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// wordForms maps English names users tend to type into config files.
var wordForms = map[string]string{
	"chinese":   "zh",
	"mandarin":  "zh",
	"cantonese": "yue",
	"english":   "en",
	"japanese":  "ja",
	"korean":    "ko",
	"spanish":   "es",
	"french":    "fr",
	"german":    "de",
}

func parse(code string) (xlanguage.Base, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return xlanguage.Base{}, false
	}
	if mapped, ok := wordForms[code]; ok {
		code = mapped
	}
	tag, err := xlanguage.Parse(code)
	if err != nil {
		return xlanguage.Base{}, false
	}
	base, conf := tag.Base()
	if conf == xlanguage.No {
		return xlanguage.Base{}, false
	}
	return base, true
}

// ToISO2 returns the shortest code for the language (ISO 639-1 when one
// exists), or "" when the input is not a recognizable language.
func ToISO2(code string) string {
	base, ok := parse(code)
	if !ok {
		return ""
	}
	return base.String()
}

// ToISO3 returns the ISO 639-2 code, or "und" when unrecognized.
func ToISO3(code string) string {
	base, ok := parse(code)
	if !ok {
		return "und"
	}
	return base.ISO3()
}

// DisplayName returns the English name of the language.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	base, ok := parse(code)
	if !ok {
		return strings.ToUpper(strings.TrimSpace(code))
	}
	if name := display.English.Languages().Name(base); name != "" {
		return name
	}
	return base.String()
}

// Valid reports whether code names a recognizable language.
func Valid(code string) bool {
	return ToISO2(code) != ""
}
