// Package util provides small text helpers shared by the command grammar and
// entity lookups.
package util

import (
	"strings"
	"unicode"
)

// Normalize lowercases s and drops everything that is not an ASCII letter or
// digit, so "Warhawk 1-1" and "warhawk11" compare equal.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ContainsNormalized reports whether the normalized form of field contains
// the already normalized query.
func ContainsNormalized(field, query string) bool {
	return query != "" && strings.Contains(Normalize(field), query)
}

// CollapseSpaces trims s and replaces every run of whitespace with one space.
func CollapseSpaces(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// TrimSeparators strips spaces and commas around a captured callsign.
func TrimSeparators(s string) string {
	return strings.Trim(s, " ,")
}
