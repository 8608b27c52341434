package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MaxNameBytes bounds sanitized names so "<name>_<timestamp>.mp4" stays below
// the common 255-byte file name limit.
const MaxNameBytes = 200

// fileNameReplacer replaces path-unsafe characters with underscores.
var fileNameReplacer = strings.NewReplacer(
	"\\", "_",
	"/", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
)

// SanitizeFileName replaces path-unsafe characters (\ / : * ? " < > |) and any
// whitespace with underscores, then truncates the result to MaxNameBytes on a
// rune boundary. Empty input yields an empty string.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	replaced := fileNameReplacer.Replace(name)
	var b strings.Builder
	b.Grow(len(replaced))
	for _, r := range replaced {
		if unicode.IsSpace(r) {
			b.WriteByte('_')
			continue
		}
		b.WriteRune(r)
	}
	return TruncateBytes(b.String(), MaxNameBytes)
}

// SanitizeOr sanitizes value and falls back to the sanitized fallback when the
// value is empty after sanitizing.
func SanitizeOr(value, fallback string) string {
	if out := SanitizeFileName(value); out != "" {
		return out
	}
	return SanitizeFileName(fallback)
}

// TruncateBytes shortens s to at most limit bytes without splitting a rune.
func TruncateBytes(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// Title converts a heading to title case using language-neutral rules.
func Title(value string) string {
	return cases.Title(language.Und).String(strings.TrimSpace(value))
}
