// Package textutil holds accent-insensitive helpers for Portuguese names.
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s and strips diacritics: "São João" -> "sao joao".
func Fold(s string) string {
	// transform.Chain keeps state, so it cannot be shared between goroutines.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(out)
}

// ContainsFold reports whether needle occurs in s, ignoring case and accents.
func ContainsFold(s, needle string) bool {
	return strings.Contains(Fold(s), Fold(needle))
}

// EqualFold compares ignoring case, accents and surrounding space.
func EqualFold(a, b string) bool {
	return Fold(strings.TrimSpace(a)) == Fold(strings.TrimSpace(b))
}

// Slug folds name and maps spaces to sep, collapsing doubled separators.
// An empty sep removes spaces, dots and hyphens entirely.
func Slug(name, sep string) string {
	s := Fold(strings.TrimSpace(name))
	if sep == "" {
		return strings.NewReplacer(" ", "", ".", "", "-", "").Replace(s)
	}
	s = strings.ReplaceAll(s, " ", sep)
	return strings.ReplaceAll(s, sep+sep, sep)
}
