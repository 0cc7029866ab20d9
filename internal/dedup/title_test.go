package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercase", "A Study Of Cells", "a study of cells"},
		{"punctuation stripped", "CD105+ Fibroblasts: Support, Immune-Escape!", "cd105 fibroblasts support immuneescape"},
		{"whitespace collapsed", "  two   spaced    words ", "two spaced words"},
		{"digits kept", "Analysis of GSE12345 data", "analysis of gse12345 data"},
		{"empty", "", ""},
		{"only punctuation", "?!...", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeTitle(tt.input))
		})
	}
}

func TestTitleSimilarity(t *testing.T) {
	t.Run("identical titles", func(t *testing.T) {
		assert.Equal(t, 1.0, TitleSimilarity("Study of cells", "Study of cells"))
	})

	t.Run("identical after normalization", func(t *testing.T) {
		assert.Equal(t, 1.0, TitleSimilarity(
			"CD105+ Fibroblasts Support Immune Escape",
			"cd105 fibroblasts support immune escape!",
		))
	})

	t.Run("near-identical above threshold", func(t *testing.T) {
		sim := TitleSimilarity(
			"CD105+ Fibroblasts Support Immune Escape",
			"CD105 Fibroblasts Support the Immune Escape",
		)
		assert.Greater(t, sim, 0.85)
		assert.Less(t, sim, 1.0)
	})

	t.Run("unrelated titles below threshold", func(t *testing.T) {
		sim := TitleSimilarity(
			"Single-cell atlas of the human heart",
			"Proteomic analysis of mouse kidney tissue",
		)
		assert.Less(t, sim, 0.5)
	})

	t.Run("empty titles are not similar", func(t *testing.T) {
		assert.Equal(t, 0.0, TitleSimilarity("", ""))
		assert.Equal(t, 0.0, TitleSimilarity("something", ""))
	})

	t.Run("symmetric", func(t *testing.T) {
		a, b := "Genomic landscape of cancer", "Genomic landscapes of cancers"
		assert.Equal(t, TitleSimilarity(a, b), TitleSimilarity(b, a))
	})
}
