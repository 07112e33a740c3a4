package util

import (
	"strings"
	"unicode/utf8"
)

// SanitizePostgresText strips invalid UTF-8 sequences and NUL bytes, neither
// of which Postgres text columns accept.
func SanitizePostgresText(value string) string {
	if value == "" {
		return value
	}
	sanitized := strings.ToValidUTF8(value, "")
	return strings.ReplaceAll(sanitized, "\x00", "")
}

// StripSurrogates removes lone UTF-16 surrogate code points that occasionally
// survive in exported annotation JSON.
func StripSurrogates(value string) string {
	if utf8.ValidString(value) {
		return value
	}
	return strings.ToValidUTF8(value, "")
}

// Preview returns the leading max runes of text with a trailing ellipsis when
// the text was cut.
func Preview(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}

func Min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
