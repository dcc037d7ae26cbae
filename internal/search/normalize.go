// Package search builds the filter predicates shared by the backoffice list pages.
package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var ligatures = strings.NewReplacer("œ", "oe", "Œ", "oe", "æ", "ae", "Æ", "ae", "ß", "ss")

// Normalize folds accents and case and collapses whitespace, so that "Élodie  CAFÉ"
// and "elodie cafe" compare equal.
func Normalize(value string) string {
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, ligatures.Replace(value))
	if err != nil {
		folded = value
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// IsNumeric reports whether value is a non-empty run of ASCII digits.
func IsNumeric(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// EscapeLike protects LIKE wildcards; patterns use backslash as ESCAPE character.
func EscapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}
