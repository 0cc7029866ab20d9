package dedup

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// NormalizeTitle normalizes a publication title for comparison: lowercase,
// punctuation stripped, whitespace collapsed.
func NormalizeTitle(title string) string {
	title = strings.ToLower(strings.TrimSpace(title))
	if title == "" {
		return ""
	}

	var sb strings.Builder
	sb.Grow(len(title))
	prevSpace := false

	for _, r := range title {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r):
			if !prevSpace && sb.Len() > 0 {
				sb.WriteRune(' ')
				prevSpace = true
			}
		}
		// Punctuation is dropped without leaving a gap, so "CD105+" and
		// "CD105" normalize identically.
	}

	return strings.TrimRight(sb.String(), " ")
}

// TitleSimilarity computes a normalized Levenshtein similarity between two
// titles: 1 - distance/maxLen over the normalized forms, in [0,1]. Two empty
// titles are not similar (there is nothing to compare).
func TitleSimilarity(a, b string) float64 {
	normA := NormalizeTitle(a)
	normB := NormalizeTitle(b)

	if normA == "" || normB == "" {
		return 0.0
	}
	if normA == normB {
		return 1.0
	}

	distance := levenshtein.ComputeDistance(normA, normB)
	maxLen := len([]rune(normA))
	if l := len([]rune(normB)); l > maxLen {
		maxLen = l
	}

	return 1.0 - float64(distance)/float64(maxLen)
}
