// Package discovery orchestrates a full discovery call: cache lookup,
// tiered source fan-out, deduplication, relevance ranking, optional quality
// validation and filtering, and cache write-back.
package discovery

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/dataset-discovery-service/internal/cache"
	"github.com/helixir/dataset-discovery-service/internal/dedup"
	"github.com/helixir/dataset-discovery-service/internal/domain"
	"github.com/helixir/dataset-discovery-service/internal/manager"
	"github.com/helixir/dataset-discovery-service/internal/observability"
	"github.com/helixir/dataset-discovery-service/internal/quality"
	"github.com/helixir/dataset-discovery-service/internal/relevance"
)

// SourceManager dispatches the tiered source fan-out. Satisfied by
// *manager.Manager.
type SourceManager interface {
	Discover(ctx context.Context, dataset domain.DatasetContext) (*manager.Aggregate, error)
}

// CompletionPublisher announces freshly computed discovery results.
// Satisfied by *events.Publisher.
type CompletionPublisher interface {
	PublishDiscoveryCompleted(ctx context.Context, event domain.DiscoveryCompletedEvent) error
}

// Config holds the collaborators of an Engine. Manager is required; a nil
// Cache disables caching and a nil Publisher disables event publishing.
type Config struct {
	Manager      SourceManager
	Deduplicator *dedup.Deduplicator
	Scorer       *relevance.Scorer
	Validator    *quality.Validator
	Cache        cache.DiscoveryCache
	Publisher    CompletionPublisher
	Metrics      *observability.Metrics
	Logger       zerolog.Logger

	// DefaultMaxResults caps returned publications when the caller does not.
	// Zero means no cap.
	DefaultMaxResults int
}

// Engine runs discovery calls. Safe for concurrent use; all per-call state
// lives on the stack.
type Engine struct {
	manager           SourceManager
	dedup             *dedup.Deduplicator
	scorer            *relevance.Scorer
	validator         *quality.Validator
	cache             cache.DiscoveryCache
	publisher         CompletionPublisher
	metrics           *observability.Metrics
	logger            zerolog.Logger
	defaultMaxResults int
	now               func() time.Time
}

// New creates an Engine. Nil pipeline stages fall back to defaults.
func New(cfg Config) *Engine {
	if cfg.Deduplicator == nil {
		cfg.Deduplicator = dedup.New(dedup.DefaultConfig())
	}
	if cfg.Scorer == nil {
		cfg.Scorer = relevance.New()
	}
	if cfg.Validator == nil {
		cfg.Validator = quality.New()
	}
	return &Engine{
		manager:           cfg.Manager,
		dedup:             cfg.Deduplicator,
		scorer:            cfg.Scorer,
		validator:         cfg.Validator,
		cache:             cfg.Cache,
		publisher:         cfg.Publisher,
		metrics:           cfg.Metrics,
		logger:            cfg.Logger.With().Str("component", "discovery_engine").Logger(),
		defaultMaxResults: cfg.DefaultMaxResults,
		now:               time.Now,
	}
}

// Discover runs one discovery call for the dataset. It returns an error only
// for an invalid dataset context or a cancelled context; source failures,
// cache failures and publish failures degrade the call instead of failing it.
// Zero publications is a successful, cacheable outcome.
func (e *Engine) Discover(ctx context.Context, dataset domain.DatasetContext, opts domain.DiscoveryOptions) (*domain.DiscoveryResult, error) {
	if err := dataset.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	logger := observability.WithDiscoveryContext(e.logger, observability.RequestIDFromContext(ctx), dataset.DatasetID)
	if e.metrics != nil {
		e.metrics.RecordDiscoveryStarted()
	}
	start := e.now()

	if cached := e.cacheLookup(ctx, dataset.DatasetID, opts, logger); cached != nil {
		return cached, nil
	}

	agg, err := e.manager.Discover(ctx, dataset)
	if err != nil {
		if e.metrics != nil {
			e.metrics.RecordDiscoveryFailed(e.now().Sub(start).Seconds())
		}
		return nil, err
	}

	unique, merged := e.dedup.Deduplicate(agg.Publications)
	if e.metrics != nil && merged > 0 {
		e.metrics.RecordPublicationsMerged(merged)
	}

	ranked := e.rank(unique, dataset)

	result := &domain.DiscoveryResult{
		DatasetID:            dataset.DatasetID,
		PrimaryPublicationID: dataset.PrimaryPublicationID,
		SourceBreakdown:      agg.SourceBreakdown,
		RawCount:             len(agg.Publications),
		UniqueCount:          len(unique),
		DiscoveredAt:         start.UTC(),
	}

	if opts.ValidationEnabled() {
		result.QualitySummary = e.validate(ranked, opts)
	}
	ranked = e.filter(ranked, result.QualitySummary, opts)

	maxResults := opts.MaxResults
	if maxResults == 0 {
		maxResults = e.defaultMaxResults
	}
	if maxResults > 0 && len(ranked) > maxResults {
		ranked = ranked[:maxResults]
	}
	result.Publications = ranked
	result.Duration = e.now().Sub(start)

	e.cacheWrite(ctx, dataset.DatasetID, result, opts, logger)
	e.publish(ctx, result, logger)

	if e.metrics != nil {
		e.metrics.RecordDiscoveryCompleted(len(result.Publications), result.Duration.Seconds())
	}
	logger.Info().
		Int("raw", result.RawCount).
		Int("unique", result.UniqueCount).
		Int("returned", len(result.Publications)).
		Int("sources_succeeded", agg.SourcesSucceeded).
		Int("sources_failed", agg.SourcesFailed).
		Dur("duration", result.Duration).
		Msg("discovery completed")
	return result, nil
}

// cacheLookup returns the cached result, or nil on miss, bypass, or cache
// failure. Cache failures are misses, never call failures.
func (e *Engine) cacheLookup(ctx context.Context, datasetID string, opts domain.DiscoveryOptions, logger zerolog.Logger) *domain.DiscoveryResult {
	if e.cache == nil || opts.BypassCache {
		return nil
	}

	cached, err := e.cache.Get(ctx, datasetID)
	if err != nil {
		logger.Warn().Err(err).Msg("cache lookup failed, discovering fresh")
		if e.metrics != nil {
			e.metrics.RecordCacheMiss()
		}
		return nil
	}
	if cached == nil {
		if e.metrics != nil {
			e.metrics.RecordCacheMiss()
		}
		return nil
	}

	if e.metrics != nil {
		e.metrics.RecordCacheHit()
	}
	logger.Info().Int("publications", cached.PublicationCount()).Msg("discovery served from cache")
	return cached
}

// rank scores every publication against the dataset and orders the list by
// relevance, highest first. Ties break on canonical ID so identical inputs
// produce identical ordering.
func (e *Engine) rank(pubs []*domain.Publication, dataset domain.DatasetContext) []domain.RankedPublication {
	ranked := make([]domain.RankedPublication, 0, len(pubs))
	for _, pub := range pubs {
		ranked = append(ranked, domain.RankedPublication{
			Publication: pub,
			Relevance:   e.scorer.Score(pub, dataset),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Relevance.Score != ranked[j].Relevance.Score {
			return ranked[i].Relevance.Score > ranked[j].Relevance.Score
		}
		return ranked[i].Publication.CanonicalID < ranked[j].Publication.CanonicalID
	})
	return ranked
}

// validate attaches a quality assessment to every ranked publication and
// returns the aggregated summary.
func (e *Engine) validate(ranked []domain.RankedPublication, opts domain.DiscoveryOptions) *domain.QualitySummary {
	summary := &domain.QualitySummary{
		TierCounts:  make(map[domain.QualityTier]int),
		FilterLevel: opts.QualityFilterLevel,
	}

	for i := range ranked {
		assessment := e.validator.Assess(ranked[i].Publication)
		ranked[i].Quality = assessment
		summary.TierCounts[assessment.Tier]++
		summary.TotalAssessed++
		if e.metrics != nil {
			e.metrics.RecordQualityTier(string(assessment.Tier))
		}
	}
	return summary
}

// filter drops publications below the requested minimum tier and records
// before/after counts in the summary.
func (e *Engine) filter(ranked []domain.RankedPublication, summary *domain.QualitySummary, opts domain.DiscoveryOptions) []domain.RankedPublication {
	minTier, filtering := opts.QualityFilterLevel.MinimumTier()
	if !filtering {
		return ranked
	}

	kept := make([]domain.RankedPublication, 0, len(ranked))
	for _, rp := range ranked {
		if rp.Quality != nil && rp.Quality.Tier.AtLeast(minTier) {
			kept = append(kept, rp)
		}
	}

	if summary != nil {
		summary.BeforeFilter = len(ranked)
		summary.AfterFilter = len(kept)
	}
	if removed := len(ranked) - len(kept); removed > 0 && e.metrics != nil {
		e.metrics.RecordPublicationsFiltered(removed)
	}
	return kept
}

// cacheWrite stores a fresh result. A write failure is logged; the caller
// still gets a correct, just uncached, result.
func (e *Engine) cacheWrite(ctx context.Context, datasetID string, result *domain.DiscoveryResult, opts domain.DiscoveryOptions, logger zerolog.Logger) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Set(ctx, datasetID, result, opts.CacheTTL()); err != nil {
		logger.Warn().Err(err).Msg("failed to write discovery result to cache")
	}
}

// publish announces a fresh result. Cache hits never republish; publish
// failures are logged, never fatal.
func (e *Engine) publish(ctx context.Context, result *domain.DiscoveryResult, logger zerolog.Logger) {
	if e.publisher == nil {
		return
	}

	event := domain.DiscoveryCompletedEvent{
		DatasetID:        result.DatasetID,
		PublicationCount: len(result.Publications),
		SourceBreakdown:  result.SourceBreakdown,
		CompletedAt:      result.DiscoveredAt.Add(result.Duration),
		Duration:         result.Duration,
	}
	if result.QualitySummary != nil {
		event.TierCounts = result.QualitySummary.TierCounts
	}

	if err := e.publisher.PublishDiscoveryCompleted(ctx, event); err != nil {
		logger.Warn().Err(err).Msg("failed to publish discovery completed event")
	}
}
