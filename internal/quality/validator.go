// Package quality assesses publication metadata quality and assigns each
// publication a discrete tier with a recommended action. Assessments are
// side-car records; the validator never mutates the publication.
package quality

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/helixir/dataset-discovery-service/internal/domain"
)

// Sub-score weights of the overall quality score. They sum to 1.0.
const (
	WeightMetadata = 0.40
	WeightContent  = 0.30
	WeightVenue    = 0.20
	WeightTemporal = 0.10
)

// Metadata completeness component weights. They sum to 1.0.
const (
	metadataTitleWeight    = 0.25
	metadataAbstractWeight = 0.30
	metadataAuthorsWeight  = 0.25
	metadataYearWeight     = 0.15
	metadataVenueWeight    = 0.05
)

// Abstract length bands, in characters.
const (
	abstractFullChars    = 500
	abstractPartialChars = 200
	abstractMinimalChars = 100
)

// Tier score thresholds.
const (
	tierExcellentScore  = 0.80
	tierGoodScore       = 0.60
	tierAcceptableScore = 0.40
	tierPoorScore       = 0.30
)

// Venue sub-scores for the classes the validator recognizes.
const (
	venueTopTierScore   = 1.0
	venueDefaultScore   = 0.7
	venuePreprintScore  = 0.6
	venueUnknownScore   = 0.5
	venuePredatoryScore = 0.1
)

// citationBand holds the age-adjusted citation expectations for one
// publication age range. A one-year-old paper needs far fewer citations
// than a ten-year-old one to score the same.
type citationBand struct {
	maxAge    int
	excellent int
	good      int
}

var citationBands = []citationBand{
	{maxAge: 2, excellent: 10, good: 3},
	{maxAge: 5, excellent: 25, good: 10},
	{maxAge: 1 << 30, excellent: 50, good: 20},
}

// topTierVenues is the allow-list of venues that score maximum. Keys are
// normalized venue names.
var topTierVenues = map[string]struct{}{
	"nature":                    {},
	"science":                   {},
	"cell":                      {},
	"the lancet":                {},
	"lancet":                    {},
	"nature methods":            {},
	"nature genetics":           {},
	"nature medicine":           {},
	"nature biotechnology":      {},
	"nature communications":     {},
	"science advances":          {},
	"cell reports":              {},
	"molecular cell":            {},
	"bioinformatics":            {},
	"nucleic acids research":    {},
	"genome biology":            {},
	"genome research":           {},
	"elife":                     {},
	"plos biology":              {},
	"pnas":                      {},
	"proceedings of the national academy of sciences": {},
	"new england journal of medicine":                 {},
	"jama": {},
	"bmj":  {},
}

// preprintServers recognized as legitimate but unrefereed outlets.
var preprintServers = map[string]struct{}{
	"biorxiv":         {},
	"medrxiv":         {},
	"arxiv":           {},
	"chemrxiv":        {},
	"ssrn":            {},
	"research square": {},
	"preprints.org":   {},
}

// predatoryVenuePattern matches the generic naming convention common to
// predatory journals ("International Journal of ...", "World Journal of
// ...", "Global Journal of ...").
var predatoryVenuePattern = regexp.MustCompile(`(?i)^(international|world|global)\s+journal\s+of\b`)

// Validator computes quality assessments. The clock is injectable so
// assessments are reproducible in tests; age calculations use only the
// publication year.
type Validator struct {
	now func() time.Time
}

// New creates a Validator using the wall clock.
func New() *Validator {
	return NewWithClock(time.Now)
}

// NewWithClock creates a Validator with an injected clock.
func NewWithClock(now func() time.Time) *Validator {
	return &Validator{now: now}
}

// Assess computes the quality assessment of one publication. All sub-scores
// and the overall score are in [0,1]; identical inputs always produce
// identical output.
func (v *Validator) Assess(pub *domain.Publication) *domain.QualityAssessment {
	var issues []domain.QualityIssue

	metadata := v.metadataCompleteness(pub, &issues)
	content := v.contentQuality(pub, &issues)
	venue := v.venueQuality(pub, &issues)
	temporal := v.temporalRelevance(pub)

	overall := clamp01(WeightMetadata*metadata +
		WeightContent*content +
		WeightVenue*venue +
		WeightTemporal*temporal)

	assessment := &domain.QualityAssessment{
		MetadataCompleteness: metadata,
		ContentQuality:       content,
		VenueQuality:         venue,
		TemporalRelevance:    temporal,
		OverallScore:         overall,
		Issues:               issues,
	}
	assessment.Tier = assignTier(overall, assessment.CriticalIssueCount())
	assessment.Action = actionForTier(assessment.Tier)
	return assessment
}

// metadataCompleteness scores the presence and substance of the core
// metadata fields. Missing title, abstract or authors are critical issues;
// a missing year is moderate and a missing venue only minor.
func (v *Validator) metadataCompleteness(pub *domain.Publication, issues *[]domain.QualityIssue) float64 {
	score := 0.0

	if strings.TrimSpace(pub.Title) != "" {
		score += metadataTitleWeight
	} else {
		*issues = append(*issues, critical("title", "title is missing"))
	}

	switch abstractLen := len(strings.TrimSpace(pub.Abstract)); {
	case abstractLen >= abstractFullChars:
		score += metadataAbstractWeight
	case abstractLen >= abstractPartialChars:
		score += metadataAbstractWeight * 2.0 / 3.0
	case abstractLen >= abstractMinimalChars:
		score += metadataAbstractWeight / 3.0
	case abstractLen > 0:
		*issues = append(*issues, critical("abstract", fmt.Sprintf("abstract is too short (%d chars)", abstractLen)))
	default:
		*issues = append(*issues, critical("abstract", "abstract is missing"))
	}

	if len(pub.Authors) > 0 {
		score += metadataAuthorsWeight
	} else {
		*issues = append(*issues, critical("authors", "author list is missing"))
	}

	if pub.Year > 0 {
		score += metadataYearWeight
	} else {
		*issues = append(*issues, moderate("year", "publication year is missing"))
	}

	if strings.TrimSpace(pub.Venue) != "" {
		score += metadataVenueWeight
	} else {
		*issues = append(*issues, minor("venue", "venue is missing"))
	}

	return score
}

// contentQuality combines abstract substance with the citation count judged
// against age-adjusted expectations. Both halves carry equal weight.
func (v *Validator) contentQuality(pub *domain.Publication, issues *[]domain.QualityIssue) float64 {
	substance := 0.0
	switch abstractLen := len(strings.TrimSpace(pub.Abstract)); {
	case abstractLen >= abstractFullChars:
		substance = 1.0
	case abstractLen >= abstractPartialChars:
		substance = 0.7
	case abstractLen >= abstractMinimalChars:
		substance = 0.4
	case abstractLen > 0:
		substance = 0.2
	}

	return 0.5*substance + 0.5*v.citationScore(pub, issues)
}

// citationScore rates the citation count within the publication's age band.
// Low counts are only flagged once a paper is old enough that citations
// would normally have accrued.
func (v *Validator) citationScore(pub *domain.Publication, issues *[]domain.QualityIssue) float64 {
	age := v.age(pub)
	band := citationBands[len(citationBands)-1]
	for _, b := range citationBands {
		if age <= b.maxAge {
			band = b
			break
		}
	}

	switch {
	case pub.CitationCount >= band.excellent:
		return 1.0
	case pub.CitationCount >= band.good:
		return 0.7
	case pub.CitationCount > 0:
		if age > citationBands[0].maxAge {
			*issues = append(*issues, minor("citations", fmt.Sprintf("%d citations is low for a %d-year-old publication", pub.CitationCount, age)))
		}
		return 0.4
	default:
		if age > citationBands[0].maxAge {
			*issues = append(*issues, minor("citations", fmt.Sprintf("no citations after %d years", age)))
		}
		return 0.1
	}
}

// venueQuality classifies the venue name. Top-tier venues score maximum,
// preprint servers a fixed reduced value, predatory-pattern names are a
// critical issue with the sub-score capped low. Unrecognized venues take a
// middling default.
func (v *Validator) venueQuality(pub *domain.Publication, issues *[]domain.QualityIssue) float64 {
	venue := normalizeVenue(pub.Venue)
	if venue == "" {
		return venueUnknownScore
	}

	if predatoryVenuePattern.MatchString(venue) {
		*issues = append(*issues, critical("venue", fmt.Sprintf("venue %q matches a predatory-journal naming pattern", pub.Venue)))
		return venuePredatoryScore
	}
	if _, ok := topTierVenues[venue]; ok {
		return venueTopTierScore
	}
	if _, ok := preprintServers[venue]; ok {
		*issues = append(*issues, minor("venue", fmt.Sprintf("%q is a preprint server; the work may not be peer reviewed", pub.Venue)))
		return venuePreprintScore
	}
	return venueDefaultScore
}

// temporalRelevance bands the publication age: full credit under two years,
// decaying to near zero past fifteen. Unknown years take a neutral middle
// value rather than either extreme.
func (v *Validator) temporalRelevance(pub *domain.Publication) float64 {
	if pub.Year == 0 {
		return 0.5
	}
	switch age := v.age(pub); {
	case age < 2:
		return 1.0
	case age < 5:
		return 0.8
	case age < 15:
		return 0.5
	default:
		return 0.1
	}
}

func (v *Validator) age(pub *domain.Publication) int {
	if pub.Year <= 0 {
		return 0
	}
	age := v.now().UTC().Year() - pub.Year
	if age < 0 {
		age = 0
	}
	return age
}

// assignTier walks the tier ladder top-down. Critical issues gate the upper
// tiers regardless of score, and two or more reject outright.
func assignTier(score float64, criticalIssues int) domain.QualityTier {
	switch {
	case criticalIssues >= 2 || score < tierPoorScore:
		return domain.QualityTierRejected
	case score >= tierExcellentScore && criticalIssues == 0:
		return domain.QualityTierExcellent
	case score >= tierGoodScore && criticalIssues == 0:
		return domain.QualityTierGood
	case score >= tierAcceptableScore:
		return domain.QualityTierAcceptable
	default:
		return domain.QualityTierPoor
	}
}

func actionForTier(tier domain.QualityTier) domain.RecommendedAction {
	switch tier {
	case domain.QualityTierExcellent, domain.QualityTierGood:
		return domain.ActionInclude
	case domain.QualityTierRejected:
		return domain.ActionExclude
	default:
		return domain.ActionIncludeWithWarning
	}
}

func normalizeVenue(venue string) string {
	return strings.ToLower(strings.TrimSpace(venue))
}

func critical(field, message string) domain.QualityIssue {
	return domain.QualityIssue{Severity: domain.SeverityCritical, Field: field, Message: message}
}

func moderate(field, message string) domain.QualityIssue {
	return domain.QualityIssue{Severity: domain.SeverityModerate, Field: field, Message: message}
}

func minor(field, message string) domain.QualityIssue {
	return domain.QualityIssue{Severity: domain.SeverityMinor, Field: field, Message: message}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
