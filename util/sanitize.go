package util

import (
	"strings"
	"unicode"
)

func dropControl(r rune) rune {
	if unicode.IsControl(r) {
		return -1
	}
	return r
}

// SanitizeString strips control characters and surrounding space.
func SanitizeString(s string) string {
	return strings.Map(dropControl, strings.TrimSpace(s))
}

// SanitizeEnvValue unwraps a value quoted in a .env file. Only a matching
// pair of quotes is removed.
func SanitizeEnvValue(s string) string {
	s = strings.TrimSpace(s)
	for _, q := range []string{`"`, `'`} {
		if len(s) >= 2 && strings.HasPrefix(s, q) && strings.HasSuffix(s, q) {
			return strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}

func pathSafe(r rune) bool {
	return r == '-' || r == '_' || ('0' <= r && r <= '9') || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
}

// SanitizeFileComponent turns s into one path segment made of ASCII
// letters, digits, '-' and '_'. Anything else becomes '_', and an empty
// input becomes "_".
func SanitizeFileComponent(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		if !pathSafe(r) {
			r = '_'
		}
		b.WriteRune(r)
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}
