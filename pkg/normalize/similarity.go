package normalize

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/xrash/smetrics"
)

// Similarity is a token-order-insensitive fuzzy ratio between two strings,
// in [0,100]. Tokens are sorted before comparison so "1 HIGH STREET LONDON"
// and "LONDON 1 HIGH STREET" compare equal. Callers should pass
// already-normalized text.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}

	sa := tokenSort(a)
	sb := tokenSort(b)
	if sa == sb {
		return 100
	}

	return levenshteinRatio(sa, sb)
}

// titleTokens are honorifics dropped before owner-name comparison.
var titleTokens = map[string]bool{
	"MR": true, "MRS": true, "MS": true, "MISS": true,
	"DR": true, "PROF": true, "SIR": true, "DAME": true,
}

// NameSimilarity compares two person names, in [0,100]. Land Registry
// proprietor records frequently abbreviate or reorder given names
// ("J Smith", "Smith, John"). A single-letter token is treated as matching
// any token on the other side sharing that initial: both names are reduced
// to the abbreviated form before scoring, so "J Smith" and "John Smith"
// compare equal. The score is the best of a token-sorted Levenshtein ratio
// and a Jaro-Winkler score over the reduced names.
func NameSimilarity(a, b string) float64 {
	ta := nameTokens(a)
	tb := nameTokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	ta, tb = reduceToInitials(ta, tb)
	na := strings.Join(ta, " ")
	nb := strings.Join(tb, " ")

	tokenScore := Similarity(na, nb)
	jw := smetrics.JaroWinkler(tokenSort(na), tokenSort(nb), 0.7, 4) * 100
	if jw > tokenScore {
		return jw
	}
	return tokenScore
}

// reduceToInitials shortens full given names to initials wherever the other
// name abbreviates them. Each single-letter token claims at most one token
// with the same initial; both directions work from the original token lists
// so a reduction never cascades.
func reduceToInitials(a, b []string) ([]string, []string) {
	ra := append([]string(nil), a...)
	rb := append([]string(nil), b...)
	shortenClaimed(a, rb)
	shortenClaimed(b, ra)
	return ra, rb
}

func shortenClaimed(initials, full []string) {
	claimed := make([]bool, len(full))
	for _, tok := range initials {
		if len(tok) != 1 {
			continue
		}
		for j, other := range full {
			if claimed[j] || len(other) < 2 || other[0] != tok[0] {
				continue
			}
			full[j] = other[:1]
			claimed[j] = true
			break
		}
	}
}

func nameTokens(s string) []string {
	s = stripPunctuation(strings.ToUpper(strings.TrimSpace(s)))
	fields := strings.Fields(s)
	kept := fields[:0]
	for _, f := range fields {
		if !titleTokens[f] {
			kept = append(kept, f)
		}
	}
	return kept
}

func tokenSort(s string) string {
	fields := strings.Fields(s)
	sort.Strings(fields)
	return strings.Join(fields, " ")
}

func levenshteinRatio(a, b string) float64 {
	la := len([]rune(a))
	lb := len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 0
	}

	dist := levenshtein.ComputeDistance(a, b)
	ratio := 100 * (1 - float64(dist)/float64(longest))
	if ratio < 0 {
		return 0
	}
	return ratio
}
