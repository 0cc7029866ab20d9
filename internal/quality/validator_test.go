package quality

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/dataset-discovery-service/internal/domain"
)

func fixedClock() time.Time {
	return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
}

func testValidator() *Validator {
	return NewWithClock(fixedClock)
}

func longAbstract() string {
	return strings.Repeat("Dataset reuse accelerates discovery across biomedical domains. ", 11)
}

func authors(names ...string) []domain.Author {
	result := make([]domain.Author, 0, len(names))
	for _, name := range names {
		result = append(result, domain.Author{Name: name})
	}
	return result
}

func TestAssess_StrongRecentPublicationIsExcellent(t *testing.T) {
	v := testValidator()

	pub := &domain.Publication{
		Title:         "Single-cell atlas of the failing human heart",
		Abstract:      longAbstract(),
		Authors:       authors("Smith", "Lee", "Patel", "Chen"),
		Venue:         "Nature Methods",
		Year:          2025,
		CitationCount: 12,
	}
	require.GreaterOrEqual(t, len(pub.Abstract), 500)

	a := v.Assess(pub)

	assert.InDelta(t, 1.0, a.MetadataCompleteness, 1e-9)
	assert.InDelta(t, 1.0, a.ContentQuality, 1e-9)
	assert.Equal(t, 1.0, a.VenueQuality)
	assert.Equal(t, 1.0, a.TemporalRelevance)
	assert.GreaterOrEqual(t, a.OverallScore, 0.80)
	assert.Equal(t, domain.QualityTierExcellent, a.Tier)
	assert.Equal(t, domain.ActionInclude, a.Action)
	assert.Empty(t, a.Issues)
}

func TestAssess_MissingAbstractAndAuthorsIsRejected(t *testing.T) {
	v := testValidator()

	pub := &domain.Publication{
		Title:         "An otherwise well-cited study",
		Venue:         "Nature",
		Year:          2024,
		CitationCount: 50,
	}

	a := v.Assess(pub)

	assert.Equal(t, 2, a.CriticalIssueCount())
	assert.Equal(t, domain.QualityTierRejected, a.Tier)
	assert.Equal(t, domain.ActionExclude, a.Action)
}

func TestAssess_PredatoryVenueCapsTierAtAcceptable(t *testing.T) {
	v := testValidator()

	// Everything else about the record is strong; the single critical issue
	// from the venue must still keep it out of GOOD and EXCELLENT.
	pub := &domain.Publication{
		Title:         "Genomic biomarkers in heart failure",
		Abstract:      longAbstract(),
		Authors:       authors("Smith", "Lee", "Patel"),
		Venue:         "International Journal of Advanced Medical Research",
		Year:          2025,
		CitationCount: 12,
	}

	a := v.Assess(pub)

	require.Equal(t, 1, a.CriticalIssueCount())
	assert.Equal(t, venuePredatoryScore, a.VenueQuality)
	assert.GreaterOrEqual(t, a.OverallScore, 0.60)
	assert.Equal(t, domain.QualityTierAcceptable, a.Tier)
	assert.Equal(t, domain.ActionIncludeWithWarning, a.Action)
}

func TestAssess_BoundsAndDeterminism(t *testing.T) {
	v := testValidator()

	pubs := []*domain.Publication{
		{},
		{Title: "t", Abstract: "short", Year: 1990},
		{
			Title:         "Full record",
			Abstract:      longAbstract(),
			Authors:       authors("Smith"),
			Venue:         "eLife",
			Year:          2026,
			CitationCount: 3,
		},
	}

	for _, pub := range pubs {
		first := v.Assess(pub)
		second := v.Assess(pub)
		assert.Equal(t, first, second, "identical inputs must produce identical assessments")

		for name, score := range map[string]float64{
			"metadata": first.MetadataCompleteness,
			"content":  first.ContentQuality,
			"venue":    first.VenueQuality,
			"temporal": first.TemporalRelevance,
			"overall":  first.OverallScore,
		} {
			assert.GreaterOrEqual(t, score, 0.0, name)
			assert.LessOrEqual(t, score, 1.0, name)
		}
	}
}

func TestMetadataCompleteness_AbstractBands(t *testing.T) {
	v := testValidator()

	base := func(abstract string) *domain.Publication {
		return &domain.Publication{
			Title:    "Title",
			Abstract: abstract,
			Authors:  authors("Smith"),
			Venue:    "Some Journal",
			Year:     2024,
		}
	}

	full := v.Assess(base(strings.Repeat("x", 500)))
	partial := v.Assess(base(strings.Repeat("x", 200)))
	minimal := v.Assess(base(strings.Repeat("x", 100)))
	tooShort := v.Assess(base("barely anything"))

	assert.Greater(t, full.MetadataCompleteness, partial.MetadataCompleteness)
	assert.Greater(t, partial.MetadataCompleteness, minimal.MetadataCompleteness)
	assert.Greater(t, minimal.MetadataCompleteness, tooShort.MetadataCompleteness)

	assert.Zero(t, full.CriticalIssueCount())
	assert.Zero(t, minimal.CriticalIssueCount())
	assert.Equal(t, 1, tooShort.CriticalIssueCount(), "sub-minimal abstract is a critical issue")
}

func TestCitationScore_AgeAdjustedExpectations(t *testing.T) {
	v := testValidator()

	score := func(year, citations int) float64 {
		var issues []domain.QualityIssue
		return v.citationScore(&domain.Publication{Year: year, CitationCount: citations}, &issues)
	}

	t.Run("recent paper needs few citations", func(t *testing.T) {
		assert.Equal(t, 1.0, score(2025, 12))
		assert.Equal(t, 0.7, score(2025, 5))
	})

	t.Run("old paper needs many citations", func(t *testing.T) {
		assert.Equal(t, 1.0, score(2010, 120))
		assert.Less(t, score(2010, 12), 1.0)
	})

	t.Run("uncited recent paper is not flagged", func(t *testing.T) {
		var issues []domain.QualityIssue
		v.citationScore(&domain.Publication{Year: 2026}, &issues)
		assert.Empty(t, issues)
	})

	t.Run("uncited old paper is flagged", func(t *testing.T) {
		var issues []domain.QualityIssue
		v.citationScore(&domain.Publication{Year: 2015}, &issues)
		require.Len(t, issues, 1)
		assert.Equal(t, domain.SeverityMinor, issues[0].Severity)
	})
}

func TestVenueQuality(t *testing.T) {
	v := testValidator()

	assess := func(venue string) (float64, []domain.QualityIssue) {
		var issues []domain.QualityIssue
		score := v.venueQuality(&domain.Publication{Venue: venue}, &issues)
		return score, issues
	}

	t.Run("top tier", func(t *testing.T) {
		score, issues := assess("Nature Communications")
		assert.Equal(t, venueTopTierScore, score)
		assert.Empty(t, issues)
	})

	t.Run("preprint server is reduced but not penalized to zero", func(t *testing.T) {
		score, issues := assess("bioRxiv")
		assert.Equal(t, venuePreprintScore, score)
		require.Len(t, issues, 1)
		assert.Equal(t, domain.SeverityMinor, issues[0].Severity)
	})

	t.Run("predatory pattern is critical", func(t *testing.T) {
		for _, venue := range []string{
			"International Journal of Advanced Research",
			"World Journal of Innovative Science",
			"Global Journal of Medical Studies",
		} {
			score, issues := assess(venue)
			assert.Equal(t, venuePredatoryScore, score, venue)
			require.Len(t, issues, 1, venue)
			assert.Equal(t, domain.SeverityCritical, issues[0].Severity, venue)
		}
	})

	t.Run("unknown venue is neutral", func(t *testing.T) {
		score, issues := assess("Journal of Cardiac Research Letters")
		assert.Equal(t, venueDefaultScore, score)
		assert.Empty(t, issues)
	})

	t.Run("missing venue", func(t *testing.T) {
		score, issues := assess("")
		assert.Equal(t, venueUnknownScore, score)
		assert.Empty(t, issues)
	})
}

func TestTemporalRelevance(t *testing.T) {
	v := testValidator()

	tests := []struct {
		name string
		year int
		want float64
	}{
		{"current year", 2026, 1.0},
		{"one year old", 2025, 1.0},
		{"three years old", 2023, 0.8},
		{"ten years old", 2016, 0.5},
		{"twenty years old", 2006, 0.1},
		{"unknown year", 0, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.temporalRelevance(&domain.Publication{Year: tt.year}))
		})
	}
}

func TestAssignTier_Ladder(t *testing.T) {
	tests := []struct {
		name     string
		score    float64
		critical int
		want     domain.QualityTier
	}{
		{"high score no issues", 0.85, 0, domain.QualityTierExcellent},
		{"good score no issues", 0.65, 0, domain.QualityTierGood},
		{"high score one critical", 0.85, 1, domain.QualityTierAcceptable},
		{"mid score one critical", 0.45, 1, domain.QualityTierAcceptable},
		{"low-mid score one critical", 0.35, 1, domain.QualityTierPoor},
		{"low-mid score no issues", 0.35, 0, domain.QualityTierPoor},
		{"very low score", 0.20, 0, domain.QualityTierRejected},
		{"two criticals reject regardless", 0.95, 2, domain.QualityTierRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, assignTier(tt.score, tt.critical))
		})
	}
}

func TestAssignTier_MonotonicInScore(t *testing.T) {
	// With the critical-issue count held fixed, a higher score must never
	// produce a lower tier.
	for critical := 0; critical <= 2; critical++ {
		prevRank := -1
		for score := 0.0; score <= 1.0; score += 0.01 {
			rank := assignTier(score, critical).Rank()
			assert.GreaterOrEqual(t, rank, prevRank, "score %.2f, %d critical", score, critical)
			prevRank = rank
		}
	}
}
