// Package facematch holds face geometry, cropping and person-name helpers shared by the pipeline and stores.
package facematch

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// RemoveDiacritics removes diacritical marks from a string (e.g., "Jiří" -> "Jiri").
func RemoveDiacritics(s string) string {
	result, _, err := transform.String(stripMarks, s)
	if err != nil {
		return s
	}
	return result
}

// NormalizePersonName folds a name for directory search: no diacritics, lowercase,
// dashes and underscores become spaces, runs of whitespace collapse to one.
func NormalizePersonName(name string) string {
	name = strings.ToLower(RemoveDiacritics(name))
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return strings.Join(strings.Fields(name), " ")
}

// NameMatches reports whether query is contained in name after normalization.
// An empty query matches everything.
func NameMatches(name, query string) bool {
	return strings.Contains(NormalizePersonName(name), NormalizePersonName(query))
}
