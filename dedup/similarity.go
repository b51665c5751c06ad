// ABOUTME: Name normalization and Levenshtein similarity scoring
// ABOUTME: Folds accents with x/text so "José" and "Jose" compare equal
package dedup

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName lowercases, strips accents, and collapses whitespace.
func NormalizeName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// CalculateNameSimilarity returns 1 - distance/max(len) over the normalized
// names, in runes. Two empty names are identical.
func CalculateNameSimilarity(a, b string) float64 {
	return similarity(NormalizeName(a), NormalizeName(b))
}

func similarity(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

// tokenMatch reports whether any name token of a fuzzy-matches one of b
// above threshold. Single-letter tokens (initials) are ignored.
func tokenMatch(a, b string, threshold float64) bool {
	for _, ta := range strings.Fields(a) {
		if utf8.RuneCountInString(ta) < 2 {
			continue
		}
		for _, tb := range strings.Fields(b) {
			if utf8.RuneCountInString(tb) < 2 {
				continue
			}
			if similarity(ta, tb) > threshold {
				return true
			}
		}
	}
	return false
}
