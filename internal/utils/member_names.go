package utils

import (
	"unicode"
	"unicode/utf8"
)

// MemberFallbackName maps a member name to the exported Go spelling.
// Example: "sum" -> "Sum". Returns "" when there is no distinct fallback.
func MemberFallbackName(member string) string {
	r, size := utf8.DecodeRuneInString(member)
	if r == utf8.RuneError && size <= 1 {
		return ""
	}
	upper := unicode.ToUpper(r)
	if upper == r {
		return ""
	}
	return string(upper) + member[size:]
}

// IsExportedName reports whether name would be exported by Go rules.
func IsExportedName(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}
