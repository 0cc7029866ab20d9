package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the dataset discovery service.
// Metrics are organized by subsystem: discoveries, sources, deduplication,
// quality validation, cache, and events. All collectors are registered against
// the provided registerer via promauto.
type Metrics struct {
	// DiscoveriesStarted counts discovery requests initiated.
	DiscoveriesStarted prometheus.Counter

	// DiscoveriesCompleted counts discoveries that finished successfully.
	DiscoveriesCompleted prometheus.Counter

	// DiscoveriesFailed counts discoveries that ended in failure.
	DiscoveriesFailed prometheus.Counter

	// DiscoveryDuration observes the end-to-end duration of discoveries in seconds.
	DiscoveryDuration prometheus.Histogram

	// PublicationsFound observes the number of publications in a finished discovery.
	PublicationsFound prometheus.Histogram

	// CacheHits counts discovery requests served from cache.
	CacheHits prometheus.Counter

	// CacheMisses counts discovery requests that required fresh discovery.
	CacheMisses prometheus.Counter

	// SourceSearchesStarted counts source Find calls started, labeled by source.
	SourceSearchesStarted *prometheus.CounterVec

	// SourceSearchesCompleted counts successful source Find calls, labeled by source.
	SourceSearchesCompleted *prometheus.CounterVec

	// SourceSearchesFailed counts failed source Find calls, labeled by source.
	SourceSearchesFailed *prometheus.CounterVec

	// SourceSearchDuration observes source Find duration in seconds, labeled by source.
	SourceSearchDuration *prometheus.HistogramVec

	// PublicationsPerSource observes publications returned per Find call, labeled by source.
	PublicationsPerSource *prometheus.HistogramVec

	// SourceRateLimited counts rate-limited responses from provider APIs, labeled by source.
	SourceRateLimited *prometheus.CounterVec

	// PublicationsMerged counts publications absorbed into another record
	// during deduplication.
	PublicationsMerged prometheus.Counter

	// QualityTierAssigned counts quality assessments, labeled by tier.
	QualityTierAssigned *prometheus.CounterVec

	// PublicationsFiltered counts publications removed by the quality filter.
	PublicationsFiltered prometheus.Counter

	// EventsPublished counts events published to the broker, labeled by event type.
	EventsPublished *prometheus.CounterVec

	// EventPublishFailures counts failed event publishes, labeled by event type.
	EventPublishFailures *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance with all collectors registered
// against the given registerer. The namespace is used as a prefix for all
// metric names.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Discoveries
		DiscoveriesStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discoveries_started_total",
			Help:      "Total number of discovery requests started",
		}),
		DiscoveriesCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discoveries_completed_total",
			Help:      "Total number of discoveries completed successfully",
		}),
		DiscoveriesFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discoveries_failed_total",
			Help:      "Total number of discoveries that failed",
		}),
		DiscoveryDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "discovery_duration_seconds",
			Help:      "Duration of discoveries in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		PublicationsFound: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "publications_found",
			Help:      "Number of publications in a finished discovery",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 200, 500},
		}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of discovery requests served from cache",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of discovery requests not served from cache",
		}),

		// Sources
		SourceSearchesStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_searches_started_total",
			Help:      "Total number of source searches started by source",
		}, []string{"source"}),
		SourceSearchesCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_searches_completed_total",
			Help:      "Total number of source searches completed by source",
		}, []string{"source"}),
		SourceSearchesFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_searches_failed_total",
			Help:      "Total number of source searches that failed by source",
		}, []string{"source"}),
		SourceSearchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_search_duration_seconds",
			Help:      "Duration of source searches in seconds by source",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"source"}),
		PublicationsPerSource: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "publications_per_source",
			Help:      "Number of publications returned per source search",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 200, 500},
		}, []string{"source"}),
		SourceRateLimited: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_rate_limited_total",
			Help:      "Total number of rate limit responses from provider APIs",
		}, []string{"source"}),

		// Deduplication and quality
		PublicationsMerged: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publications_merged_total",
			Help:      "Total number of publications merged during deduplication",
		}),
		QualityTierAssigned: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quality_tier_assigned_total",
			Help:      "Total number of quality assessments by tier",
		}, []string{"tier"}),
		PublicationsFiltered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publications_filtered_total",
			Help:      "Total number of publications removed by the quality filter",
		}),

		// Events
		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Total number of events published by type",
		}, []string{"event_type"}),
		EventPublishFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_failures_total",
			Help:      "Total number of failed event publishes by type",
		}, []string{"event_type"}),
	}
}

// RecordDiscoveryStarted records that a discovery has started.
func (m *Metrics) RecordDiscoveryStarted() {
	m.DiscoveriesStarted.Inc()
}

// RecordDiscoveryCompleted records that a discovery has completed.
func (m *Metrics) RecordDiscoveryCompleted(publicationCount int, durationSeconds float64) {
	m.DiscoveriesCompleted.Inc()
	m.DiscoveryDuration.Observe(durationSeconds)
	m.PublicationsFound.Observe(float64(publicationCount))
}

// RecordDiscoveryFailed records that a discovery has failed.
func (m *Metrics) RecordDiscoveryFailed(durationSeconds float64) {
	m.DiscoveriesFailed.Inc()
	m.DiscoveryDuration.Observe(durationSeconds)
}

// RecordCacheHit records a discovery served from cache.
func (m *Metrics) RecordCacheHit() {
	m.CacheHits.Inc()
}

// RecordCacheMiss records a discovery not served from cache.
func (m *Metrics) RecordCacheMiss() {
	m.CacheMisses.Inc()
}

// RecordSourceSearchStarted records that a source search has started.
func (m *Metrics) RecordSourceSearchStarted(source string) {
	m.SourceSearchesStarted.WithLabelValues(source).Inc()
}

// RecordSourceSearchCompleted records that a source search has completed.
func (m *Metrics) RecordSourceSearchCompleted(source string, publicationCount int, durationSeconds float64) {
	m.SourceSearchesCompleted.WithLabelValues(source).Inc()
	m.SourceSearchDuration.WithLabelValues(source).Observe(durationSeconds)
	m.PublicationsPerSource.WithLabelValues(source).Observe(float64(publicationCount))
}

// RecordSourceSearchFailed records that a source search has failed.
func (m *Metrics) RecordSourceSearchFailed(source string, durationSeconds float64) {
	m.SourceSearchesFailed.WithLabelValues(source).Inc()
	m.SourceSearchDuration.WithLabelValues(source).Observe(durationSeconds)
}

// RecordSourceRateLimited records a rate limit response from a provider API.
func (m *Metrics) RecordSourceRateLimited(source string) {
	m.SourceRateLimited.WithLabelValues(source).Inc()
}

// RecordPublicationsMerged records publications absorbed during deduplication.
func (m *Metrics) RecordPublicationsMerged(count int) {
	m.PublicationsMerged.Add(float64(count))
}

// RecordQualityTier records a quality tier assignment.
func (m *Metrics) RecordQualityTier(tier string) {
	m.QualityTierAssigned.WithLabelValues(tier).Inc()
}

// RecordPublicationsFiltered records publications removed by the quality filter.
func (m *Metrics) RecordPublicationsFiltered(count int) {
	m.PublicationsFiltered.Add(float64(count))
}

// RecordEventPublished records a published event.
func (m *Metrics) RecordEventPublished(eventType string) {
	m.EventsPublished.WithLabelValues(eventType).Inc()
}

// RecordEventPublishFailed records a failed event publish.
func (m *Metrics) RecordEventPublishFailed(eventType string) {
	m.EventPublishFailures.WithLabelValues(eventType).Inc()
}
