// Package relevance scores publications against the dataset context that
// discovery ran for. The score orders the final result list; it never
// removes anything.
package relevance

import (
	"strings"
	"time"
	"unicode"

	"github.com/helixir/dataset-discovery-service/internal/domain"
)

// Factor weights of the composite score. They sum to 1.0.
const (
	WeightContent        = 0.40
	WeightKeyword        = 0.30
	WeightRecency        = 0.20
	WeightCitationImpact = 0.10
)

const (
	// recencyFullYears is the age in years up to which recency scores 1.0.
	recencyFullYears = 2

	// recencyFloorYears is the age past which recency sits at the floor.
	recencyFloorYears = 10

	// recencyFloor is the minimum recency score for old publications.
	recencyFloor = 0.1

	// citationImpactHalfPoint is the citations-per-year rate at which the
	// citation impact factor reaches 0.5, saturating toward 1.0 beyond it.
	citationImpactHalfPoint = 10.0
)

// stopwords excluded from content token comparison. Short function words
// dominate raw token overlap and carry no topical signal.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "have": {}, "in": {},
	"is": {}, "it": {}, "its": {}, "of": {}, "on": {}, "or": {}, "that": {},
	"the": {}, "this": {}, "to": {}, "was": {}, "were": {},
	"with": {}, "we": {}, "our": {}, "using": {}, "these": {}, "their": {},
}

// Scorer computes relevance annotations. The clock is injectable so scoring
// is reproducible in tests; age calculations use only the year.
type Scorer struct {
	now func() time.Time
}

// New creates a Scorer using the wall clock.
func New() *Scorer {
	return NewWithClock(time.Now)
}

// NewWithClock creates a Scorer with an injected clock.
func NewWithClock(now func() time.Time) *Scorer {
	return &Scorer{now: now}
}

// Score computes the relevance annotation of one publication against the
// dataset. All sub-scores and the composite are in [0,1]; identical inputs
// always produce identical output.
func (s *Scorer) Score(pub *domain.Publication, dataset domain.DatasetContext) domain.RelevanceAnnotation {
	content := s.contentScore(pub, dataset)
	keyword := s.keywordScore(pub, dataset)
	recency := s.recencyScore(pub)
	impact := s.citationImpactScore(pub)

	composite := WeightContent*content +
		WeightKeyword*keyword +
		WeightRecency*recency +
		WeightCitationImpact*impact

	return domain.RelevanceAnnotation{
		Score:          clamp01(composite),
		ContentScore:   content,
		KeywordScore:   keyword,
		RecencyScore:   recency,
		CitationImpact: impact,
	}
}

// contentScore measures topical token overlap between the publication's
// title+abstract and the dataset's title+summary+tags: the matched share of
// the smaller token set, after stopword filtering.
func (s *Scorer) contentScore(pub *domain.Publication, dataset domain.DatasetContext) float64 {
	pubTokens := tokenize(pub.Title + " " + pub.Abstract)
	datasetTokens := tokenize(dataset.Title + " " + dataset.Summary + " " + strings.Join(dataset.DomainTags, " "))

	if len(pubTokens) == 0 || len(datasetTokens) == 0 {
		return 0.0
	}

	smaller, larger := pubTokens, datasetTokens
	if len(smaller) > len(larger) {
		smaller, larger = larger, smaller
	}

	matched := 0
	for token := range smaller {
		if _, ok := larger[token]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(smaller))
}

// keywordScore checks for the dataset's distinguishing terms in the
// publication text. The dataset accession is the strongest signal and
// carries double weight; each organism and domain tag counts once.
func (s *Scorer) keywordScore(pub *domain.Publication, dataset domain.DatasetContext) float64 {
	text := strings.ToLower(pub.Title + " " + pub.Abstract + " " + strings.Join(pub.Keywords, " "))

	totalWeight := 2.0
	matchedWeight := 0.0
	if strings.Contains(text, strings.ToLower(dataset.DatasetID)) {
		matchedWeight += 2.0
	}

	for _, organism := range dataset.Organisms {
		totalWeight++
		if organism != "" && strings.Contains(text, strings.ToLower(organism)) {
			matchedWeight++
		}
	}
	for _, tag := range dataset.DomainTags {
		totalWeight++
		if tag != "" && strings.Contains(text, strings.ToLower(tag)) {
			matchedWeight++
		}
	}

	return matchedWeight / totalWeight
}

// recencyScore decays linearly from 1.0 at two years old to the floor at ten
// years. Publications without a year score the floor; age alone should not
// promote a record whose date is unknown.
func (s *Scorer) recencyScore(pub *domain.Publication) float64 {
	if pub.Year == 0 {
		return recencyFloor
	}

	age := s.now().UTC().Year() - pub.Year
	if age < 0 {
		age = 0
	}

	switch {
	case age <= recencyFullYears:
		return 1.0
	case age >= recencyFloorYears:
		return recencyFloor
	default:
		span := float64(recencyFloorYears - recencyFullYears)
		return 1.0 - float64(age-recencyFullYears)*(1.0-recencyFloor)/span
	}
}

// citationImpactScore normalizes the citation count by publication age, so a
// young moderately-cited paper and an old highly-cited one score comparably.
// The rate saturates toward 1.0 and never goes negative.
func (s *Scorer) citationImpactScore(pub *domain.Publication) float64 {
	if pub.CitationCount <= 0 {
		return 0.0
	}

	age := 1
	if pub.Year > 0 {
		if years := s.now().UTC().Year() - pub.Year; years > age {
			age = years
		}
	}

	perYear := float64(pub.CitationCount) / float64(age)
	return perYear / (perYear + citationImpactHalfPoint)
}

// tokenize lowercases, splits on non-alphanumeric runes and drops stopwords
// and single-character tokens.
func tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, field := range fields {
		if len(field) < 2 {
			continue
		}
		if _, ok := stopwords[field]; ok {
			continue
		}
		tokens[field] = struct{}{}
	}
	return tokens
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
