// Package normalize cleans user-supplied names and text before they are stored or compared.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Name returns s in NFC form with control characters removed, inner whitespace
// runs collapsed to a single space and the ends trimmed. Author, genre and book
// names are stored in this form so that "Orwell" typed two ways matches.
func Name(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// Text returns s in NFC form with control characters other than whitespace
// removed and the ends trimmed. Inner whitespace, including newlines, is kept.
func Text(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(norm.NFC.String(s))
}

// Fold returns a case-folded form of Name(s) for case-insensitive comparison.
func Fold(s string) string {
	return cases.Fold().String(Name(s))
}

// List splits a comma separated list, normalizes every entry with Name and
// drops empty entries and exact duplicates, keeping first occurrences in order.
func List(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		p = Name(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
