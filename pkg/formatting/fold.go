package formatting

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer decomposes to NFD, strips combining marks, and recomposes.
// "alcaldía" and "ALCALDIA" both fold to "alcaldia".
var foldTransformer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Fold normalizes s for matching: lowercased with diacritics removed.
// Invalid UTF-8 falls back to plain lowercasing.
func Fold(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(folded)
}

// FoldContains reports whether needle occurs in haystack after both are folded.
// An empty needle matches everything.
func FoldContains(haystack, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(Fold(haystack), Fold(needle))
}
