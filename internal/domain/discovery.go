package domain

import (
	"time"
)

// DefaultCacheTTL is the default lifetime of a cached discovery result.
const DefaultCacheTTL = 7 * 24 * time.Hour

// DiscoveryOptions controls a single discovery call.
type DiscoveryOptions struct {
	// MaxResults caps the number of returned publications. Zero means no cap.
	MaxResults int `json:"max_results,omitempty"`
	// EnableQualityValidation runs the quality validator over the ranked list.
	EnableQualityValidation bool `json:"enable_quality_validation,omitempty"`
	// QualityFilterLevel drops publications below the given tier. Setting a
	// level implies quality validation.
	QualityFilterLevel QualityFilterLevel `json:"quality_filter_level,omitempty"`
	// CacheTTLSeconds overrides the default TTL for the cached result.
	CacheTTLSeconds int `json:"cache_ttl_seconds,omitempty"`
	// BypassCache forces a fresh discovery even when a live entry exists.
	BypassCache bool `json:"bypass_cache,omitempty"`
}

// Validate checks option values. The returned error wraps ErrInvalidInput.
func (o DiscoveryOptions) Validate() error {
	if o.MaxResults < 0 {
		return NewValidationError("max_results", "must not be negative")
	}
	if o.CacheTTLSeconds < 0 {
		return NewValidationError("cache_ttl_seconds", "must not be negative")
	}
	if !o.QualityFilterLevel.IsValid() {
		return NewValidationError("quality_filter_level", "unrecognized level")
	}
	return nil
}

// ValidationEnabled reports whether quality assessment should run, either
// because it was requested directly or because a filter level requires it.
func (o DiscoveryOptions) ValidationEnabled() bool {
	if o.EnableQualityValidation {
		return true
	}
	_, filtering := o.QualityFilterLevel.MinimumTier()
	return filtering
}

// CacheTTL returns the effective TTL for this call.
func (o DiscoveryOptions) CacheTTL() time.Duration {
	if o.CacheTTLSeconds > 0 {
		return time.Duration(o.CacheTTLSeconds) * time.Second
	}
	return DefaultCacheTTL
}

// RelevanceAnnotation holds the composite relevance score of a publication
// against the dataset context, plus the per-factor sub-scores that produced
// it. All values are in [0,1]. Read-only once computed.
type RelevanceAnnotation struct {
	Score          float64 `json:"score"`
	ContentScore   float64 `json:"content_score"`
	KeywordScore   float64 `json:"keyword_score"`
	RecencyScore   float64 `json:"recency_score"`
	CitationImpact float64 `json:"citation_impact"`
}

// QualityIssue describes a single problem found during quality validation.
type QualityIssue struct {
	Severity IssueSeverity `json:"severity"`
	Field    string        `json:"field,omitempty"`
	Message  string        `json:"message"`
}

// QualityAssessment is the validator's side-car record for one publication.
// It never mutates the publication it describes.
type QualityAssessment struct {
	MetadataCompleteness float64           `json:"metadata_completeness"`
	ContentQuality       float64           `json:"content_quality"`
	VenueQuality         float64           `json:"venue_quality"`
	TemporalRelevance    float64           `json:"temporal_relevance"`
	OverallScore         float64           `json:"overall_score"`
	Tier                 QualityTier       `json:"tier"`
	Issues               []QualityIssue    `json:"issues,omitempty"`
	Action               RecommendedAction `json:"action"`
}

// CriticalIssueCount returns the number of critical-severity issues.
func (a *QualityAssessment) CriticalIssueCount() int {
	count := 0
	for _, issue := range a.Issues {
		if issue.Severity == SeverityCritical {
			count++
		}
	}
	return count
}

// RankedPublication pairs a publication with its annotations. Quality is nil
// when validation was not enabled for the call.
type RankedPublication struct {
	Publication *Publication        `json:"publication"`
	Relevance   RelevanceAnnotation `json:"relevance"`
	Quality     *QualityAssessment  `json:"quality,omitempty"`
}

// QualitySummary aggregates the quality outcome of one discovery call.
type QualitySummary struct {
	TierCounts    map[QualityTier]int `json:"tier_counts"`
	TotalAssessed int                 `json:"total_assessed"`
	BeforeFilter  int                 `json:"before_filter"`
	AfterFilter   int                 `json:"after_filter"`
	FilterLevel   QualityFilterLevel  `json:"filter_level"`
}

// DiscoveryResult is the final output of one discovery call: the ranked,
// optionally filtered publication list with per-source contribution counts.
// It is constructed once (fresh or from cache) and immutable thereafter.
type DiscoveryResult struct {
	DatasetID            string              `json:"dataset_id"`
	PrimaryPublicationID string              `json:"primary_publication_id,omitempty"`
	Publications         []RankedPublication `json:"publications"`
	// SourceBreakdown counts contributed publications keyed by
	// "<source>.<strategy>" (e.g. "openalex.cited_by").
	SourceBreakdown map[string]int  `json:"source_breakdown"`
	RawCount        int             `json:"raw_count"`
	UniqueCount     int             `json:"unique_count"`
	QualitySummary  *QualitySummary `json:"quality_summary,omitempty"`
	DiscoveredAt    time.Time       `json:"discovered_at"`
	Duration        time.Duration   `json:"duration_ns"`
}

// PublicationCount returns the number of publications in the result.
func (r *DiscoveryResult) PublicationCount() int {
	return len(r.Publications)
}
