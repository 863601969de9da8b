package title

import (
	"strings"
	"unicode/utf8"
)

// Score computes a similarity confidence in [0,1] between an expected title
// and a candidate title. Equal normalized forms score 1.0. Containment of one
// normalized form in the other scores 0.9 scaled by the length ratio, so a
// near-exact containment stays high while a short generic word inside a long
// specific title does not. Everything else falls back to an edit-distance
// ratio. Score is symmetric.
func Score(expected, candidate string) float64 {
	if rawEqual(expected, candidate) {
		return 1.0
	}
	a := Normalize(expected)
	b := Normalize(candidate)
	return scoreNormalized(a, b)
}

// ScoreWithContainment reports the score plus whether the containment shortcut
// applied. Callers gating short titles require containment-based confidence
// because edit distance is unreliable below a handful of characters.
func ScoreWithContainment(expected, candidate string) (float64, bool) {
	if rawEqual(expected, candidate) {
		return 1.0, true
	}
	a := Normalize(expected)
	b := Normalize(candidate)
	if a == b {
		return scoreNormalized(a, b), true
	}
	if contained(a, b) {
		return scoreNormalized(a, b), true
	}
	return scoreNormalized(a, b), false
}

func scoreNormalized(a, b string) float64 {
	if a == b {
		if a == "" {
			return 0
		}
		return 1.0
	}
	if a == "" || b == "" {
		return 0
	}
	if contained(a, b) {
		shorter, longer := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
		if shorter > longer {
			shorter, longer = longer, shorter
		}
		return 0.9 * float64(shorter) / float64(longer)
	}
	return levenshteinRatio(a, b)
}

// rawEqual catches titles that are identical before normalization. Without
// it a title made entirely of punctuation normalizes to "" and would score 0
// against itself.
func rawEqual(a, b string) bool {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	return a != "" && a == b
}

func contained(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if len(a) <= len(b) {
		return strings.Contains(b, a)
	}
	return strings.Contains(a, b)
}

// levenshteinRatio converts edit distance to a similarity in [0,1].
func levenshteinRatio(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 0
	}
	dist := levenshtein(ra, rb)
	return 1.0 - float64(dist)/float64(longest)
}

func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
