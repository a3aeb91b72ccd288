package alias

import (
	"math"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// StringSimilarity scores two names in [0, 1].
// Containment scores 1 - 0.05 per rune of length difference, anything else
// uses the matching-blocks ratio over runes.
func StringSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	if strings.Contains(a, b) || strings.Contains(b, a) {
		diff := len(ra) - len(rb)
		if diff < 0 {
			diff = -diff
		}
		return math.Max(0, 1-float64(diff)*0.05)
	}
	return difflib.NewMatcher(runeStrings(ra), runeStrings(rb)).Ratio()
}

func runeStrings(runes []rune) []string {
	out := make([]string, len(runes))
	for i, r := range runes {
		out[i] = string(r)
	}
	return out
}

// CosineSimilarity returns the cosine of the angle between two vectors,
// or 0 when their lengths differ or either is a zero vector.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
