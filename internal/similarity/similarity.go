// package similarity implements the text normalization and scoring used to
// compare track metadata against platform search results.
//
// Confidence thresholds elsewhere in the engine are tuned against the exact
// token-overlap formula in [Similarity]; do not substitute a different metric.
package similarity

import (
	"strings"
	"unicode"

	"github.com/hbollon/go-edlib"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks removes combining marks after canonical decomposition, so
// "Beyoncé" and "Beyonce" normalize identically.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize strips diacritics, lowercases, collapses punctuation and
// whitespace runs to single spaces, and trims the result.
func Normalize(s string) string {
	stripped, _, err := transform.String(stripMarks, s)
	if err != nil {
		stripped = s
	}

	var b strings.Builder
	b.Grow(len(stripped))
	for _, r := range strings.ToLower(stripped) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Similarity scores two strings in [0,1] by asymmetric token overlap:
// |A∩B| / max(|A|,|B|) over whitespace tokens of the normalized inputs.
//
// Deliberately not full Jaccard: one string being a superset of the other
// (e.g. a "feat. X" suffix) is penalized only by the larger set's size.
// Returns 0 if either token set is empty.
func Similarity(a, b string) float64 {
	tokensA := tokenSet(Normalize(a))
	tokensB := tokenSet(Normalize(b))

	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	overlap := 0
	for tok := range tokensA {
		if _, ok := tokensB[tok]; ok {
			overlap++
		}
	}

	return float64(overlap) / float64(max(len(tokensA), len(tokensB)))
}

// NearDuplicate reports whether two strings are close enough (Jaro-Winkler on
// the normalized forms) to be treated as the same track. Used to filter
// replacement candidates that would just re-fail verification.
func NearDuplicate(a, b string, floor float32) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	sim, err := edlib.StringsSimilarity(na, nb, edlib.JaroWinkler)
	if err != nil {
		return false
	}
	return sim >= floor
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		set[tok] = struct{}{}
	}
	return set
}
