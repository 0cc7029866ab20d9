// Package sources provides interfaces and shared infrastructure for
// publication source clients.
//
// Each bibliographic provider (OpenAlex, Semantic Scholar, PubMed,
// OpenCitations, Europe PMC) implements the PublicationSource interface,
// translating its own API into the common Publication shape. A client may run
// more than one internal strategy (citation-graph traversal, free-text or
// accession search) and concatenates the results; per-strategy contribution
// counts are reported alongside.
//
// Example usage:
//
//	source := openalex.New(cfg)
//	result, err := source.Find(ctx, dataset)
package sources

import (
	"context"
	"time"

	"github.com/helixir/dataset-discovery-service/internal/domain"
)

// FindResult contains the publications one source contributed for a dataset.
type FindResult struct {
	// Publications holds the converted records, concatenated across the
	// client's strategies. May be empty when nothing matched.
	Publications []*domain.Publication

	// StrategyCounts records how many publications each internal strategy
	// contributed, keyed by strategy name (e.g. "cited_by", "search").
	StrategyCounts map[string]int

	// Source identifies which provider produced these results.
	Source domain.SourceType

	// Duration is the end-to-end time of the Find call, including network
	// latency and response parsing.
	Duration time.Duration
}

// NewFindResult returns an empty result for the given source.
func NewFindResult(source domain.SourceType) *FindResult {
	return &FindResult{
		Publications:   []*domain.Publication{},
		StrategyCounts: make(map[string]int),
		Source:         source,
	}
}

// Add appends one strategy's publications and records its contribution count.
// Strategies that ran but found nothing still get a zero entry, so the
// breakdown distinguishes "ran empty" from "not applicable".
func (r *FindResult) Add(strategy string, pubs []*domain.Publication) {
	r.Publications = append(r.Publications, pubs...)
	r.StrategyCounts[strategy] += len(pubs)
}

// PublicationSource defines the interface that all publication source clients
// implement. The source manager holds a tiered list of this interface with no
// provider-specific branching outside each implementation.
type PublicationSource interface {
	// Find returns every publication the provider relates to the dataset:
	// works citing the dataset's primary publication and works mentioning the
	// dataset identifier, depending on which strategies the provider supports.
	//
	// Implementations should:
	//   - Respect context cancellation
	//   - Apply their own rate limiting
	//   - Skip individual malformed records rather than failing the call
	//   - Return an error only when every applicable strategy failed
	Find(ctx context.Context, dataset domain.DatasetContext) (*FindResult, error)

	// SourceType returns the type identifier for this source.
	SourceType() domain.SourceType

	// Name returns a human-readable name for this source.
	Name() string

	// IsEnabled returns whether this source is currently enabled. A source
	// may be disabled by configuration or a missing API key.
	IsEnabled() bool
}
