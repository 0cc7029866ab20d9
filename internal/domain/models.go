// Package domain provides domain models and business logic for the Dataset Discovery Service.
package domain

// SourceType represents the provider API that produced publication data.
type SourceType string

const (
	SourceTypeOpenAlex        SourceType = "openalex"
	SourceTypeSemanticScholar SourceType = "semantic_scholar"
	SourceTypePubMed          SourceType = "pubmed"
	SourceTypeOpenCitations   SourceType = "opencitations"
	SourceTypeEuropePMC       SourceType = "europepmc"
)

// AllSourceTypes lists every known provider in canonical order.
func AllSourceTypes() []SourceType {
	return []SourceType{
		SourceTypeOpenAlex,
		SourceTypeSemanticScholar,
		SourceTypePubMed,
		SourceTypeOpenCitations,
		SourceTypeEuropePMC,
	}
}

// SourceTier represents the priority tier a source is assigned to.
// Tiers execute sequentially in priority order; sources within one tier
// execute concurrently.
type SourceTier string

const (
	SourceTierCritical SourceTier = "critical"
	SourceTierHigh     SourceTier = "high"
	SourceTierMedium   SourceTier = "medium"
)

// TierOrder lists tiers in execution order, highest priority first.
func TierOrder() []SourceTier {
	return []SourceTier{SourceTierCritical, SourceTierHigh, SourceTierMedium}
}

// IsValid reports whether the tier is one of the known tiers.
func (t SourceTier) IsValid() bool {
	switch t {
	case SourceTierCritical, SourceTierHigh, SourceTierMedium:
		return true
	default:
		return false
	}
}

// QualityTier represents the discrete quality classification of a publication.
type QualityTier string

const (
	QualityTierExcellent  QualityTier = "excellent"
	QualityTierGood       QualityTier = "good"
	QualityTierAcceptable QualityTier = "acceptable"
	QualityTierPoor       QualityTier = "poor"
	QualityTierRejected   QualityTier = "rejected"
)

// Rank returns the ordering of the tier, higher is better. Used for
// minimum-tier filtering and monotonicity checks.
func (t QualityTier) Rank() int {
	switch t {
	case QualityTierExcellent:
		return 4
	case QualityTierGood:
		return 3
	case QualityTierAcceptable:
		return 2
	case QualityTierPoor:
		return 1
	case QualityTierRejected:
		return 0
	default:
		return -1
	}
}

// AtLeast reports whether the tier meets or exceeds the given minimum tier.
func (t QualityTier) AtLeast(min QualityTier) bool {
	return t.Rank() >= min.Rank()
}

// RecommendedAction is the validator's recommendation for a publication.
type RecommendedAction string

const (
	ActionInclude            RecommendedAction = "include"
	ActionIncludeWithWarning RecommendedAction = "include_with_warning"
	ActionExclude            RecommendedAction = "exclude"
)

// IssueSeverity classifies a quality issue.
type IssueSeverity string

const (
	SeverityCritical IssueSeverity = "critical"
	SeverityModerate IssueSeverity = "moderate"
	SeverityMinor    IssueSeverity = "minor"
)

// QualityFilterLevel selects the minimum quality tier retained when filtering
// discovery results. FilterNone disables filtering.
type QualityFilterLevel string

const (
	FilterNone       QualityFilterLevel = "none"
	FilterAcceptable QualityFilterLevel = "acceptable"
	FilterGood       QualityFilterLevel = "good"
	FilterExcellent  QualityFilterLevel = "excellent"
)

// IsValid reports whether the filter level is recognized. The empty string is
// valid and equivalent to FilterNone.
func (f QualityFilterLevel) IsValid() bool {
	switch f {
	case "", FilterNone, FilterAcceptable, FilterGood, FilterExcellent:
		return true
	default:
		return false
	}
}

// MinimumTier returns the minimum quality tier implied by the filter level,
// and false when no filtering is requested.
func (f QualityFilterLevel) MinimumTier() (QualityTier, bool) {
	switch f {
	case FilterAcceptable:
		return QualityTierAcceptable, true
	case FilterGood:
		return QualityTierGood, true
	case FilterExcellent:
		return QualityTierExcellent, true
	default:
		return "", false
	}
}
