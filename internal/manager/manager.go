// Package manager coordinates publication discovery across source clients.
//
// Sources are assigned to priority tiers. Tiers execute sequentially in
// priority order; within one tier every enabled source runs concurrently.
// A failing source contributes nothing but never aborts its tier, so a
// single provider outage degrades coverage instead of the whole discovery.
package manager

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/dataset-discovery-service/internal/domain"
	"github.com/helixir/dataset-discovery-service/internal/observability"
	"github.com/helixir/dataset-discovery-service/internal/sources"
)

// SourceOutcome holds the result of one source's Find call, success or not.
type SourceOutcome struct {
	// Source identifies which client produced this outcome.
	Source domain.SourceType

	// Result contains the publications if the call succeeded.
	// Nil when Err is non-nil.
	Result *sources.FindResult

	// Err contains the error if the call failed.
	Err error

	// Latency is the wall-clock duration of the call.
	Latency time.Duration
}

// Aggregate is the combined output of one Discover run, before
// deduplication.
type Aggregate struct {
	// Publications concatenates every successful source's results.
	// Duplicates across sources are expected; the deduplicator resolves them.
	Publications []*domain.Publication

	// SourceBreakdown counts contributions keyed "<source>.<strategy>".
	SourceBreakdown map[string]int

	// SourcesSucceeded counts sources whose Find call returned without error.
	SourcesSucceeded int

	// SourcesFailed counts sources whose Find call returned an error.
	SourcesFailed int

	// Duration is the wall-clock time of the whole run.
	Duration time.Duration
}

// Manager holds the tiered source registry and dispatches discovery runs.
// Registration is expected at startup; Discover is safe for concurrent use.
type Manager struct {
	mu      sync.RWMutex
	tiers   map[domain.SourceTier][]sources.PublicationSource
	metrics map[domain.SourceType]*SourceMetrics

	obs    *observability.Metrics
	logger zerolog.Logger
}

// New creates a Manager with an empty registry. The observability metrics
// may be nil, in which case only the in-process SourceMetrics are kept.
func New(logger zerolog.Logger, obs *observability.Metrics) *Manager {
	return &Manager{
		tiers:   make(map[domain.SourceTier][]sources.PublicationSource),
		metrics: make(map[domain.SourceType]*SourceMetrics),
		obs:     obs,
		logger:  logger,
	}
}

// Register adds a source to the given tier. Registering the same source type
// twice keeps both entries; callers own uniqueness.
func (m *Manager) Register(tier domain.SourceTier, source sources.PublicationSource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tiers[tier] = append(m.tiers[tier], source)
	if _, ok := m.metrics[source.SourceType()]; !ok {
		m.metrics[source.SourceType()] = &SourceMetrics{}
	}
}

// Metrics returns the cumulative metrics for a source, or nil when the
// source was never registered.
func (m *Manager) Metrics(sourceType domain.SourceType) *SourceMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.metrics[sourceType]
}

// EnabledSources returns the enabled sources of one tier, a snapshot safe to
// iterate concurrently with registration.
func (m *Manager) EnabledSources(tier domain.SourceTier) []sources.PublicationSource {
	m.mu.RLock()
	defer m.mu.RUnlock()

	enabled := make([]sources.PublicationSource, 0, len(m.tiers[tier]))
	for _, source := range m.tiers[tier] {
		if source.IsEnabled() {
			enabled = append(enabled, source)
		}
	}
	return enabled
}

// Discover runs every enabled source against the dataset, tier by tier, and
// aggregates the publications. It returns an error only when the context is
// cancelled; source failures are absorbed into the aggregate counts.
func (m *Manager) Discover(ctx context.Context, dataset domain.DatasetContext) (*Aggregate, error) {
	start := time.Now()
	agg := &Aggregate{
		Publications:    []*domain.Publication{},
		SourceBreakdown: make(map[string]int),
	}

	for _, tier := range domain.TierOrder() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tierSources := m.EnabledSources(tier)
		if len(tierSources) == 0 {
			continue
		}

		for _, outcome := range m.runTier(ctx, tierSources, dataset) {
			m.record(outcome)
			if outcome.Err != nil {
				agg.SourcesFailed++
				m.logger.Warn().
					Err(outcome.Err).
					Str("source", string(outcome.Source)).
					Str("tier", string(tier)).
					Str("dataset_id", dataset.DatasetID).
					Dur("latency", outcome.Latency).
					Msg("source discovery failed")
				continue
			}

			agg.SourcesSucceeded++
			agg.Publications = append(agg.Publications, outcome.Result.Publications...)
			for strategy, count := range outcome.Result.StrategyCounts {
				agg.SourceBreakdown[string(outcome.Source)+"."+strategy] += count
			}
			m.logger.Debug().
				Str("source", string(outcome.Source)).
				Str("tier", string(tier)).
				Str("dataset_id", dataset.DatasetID).
				Int("publications", len(outcome.Result.Publications)).
				Dur("latency", outcome.Latency).
				Msg("source discovery completed")
		}
	}

	agg.Duration = time.Since(start)
	return agg, nil
}

// runTier launches one goroutine per source and collects every outcome over
// a buffered channel.
func (m *Manager) runTier(ctx context.Context, tierSources []sources.PublicationSource, dataset domain.DatasetContext) []SourceOutcome {
	outcomeChan := make(chan SourceOutcome, len(tierSources))
	var wg sync.WaitGroup

	for _, source := range tierSources {
		wg.Add(1)
		go func(s sources.PublicationSource) {
			defer wg.Done()

			if m.obs != nil {
				m.obs.RecordSourceSearchStarted(string(s.SourceType()))
			}
			callStart := time.Now()
			result, err := s.Find(ctx, dataset)
			outcomeChan <- SourceOutcome{
				Source:  s.SourceType(),
				Result:  result,
				Err:     err,
				Latency: time.Since(callStart),
			}
		}(source)
	}

	go func() {
		wg.Wait()
		close(outcomeChan)
	}()

	outcomes := make([]SourceOutcome, 0, len(tierSources))
	for outcome := range outcomeChan {
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// record updates the per-source atomics and Prometheus metrics for one
// outcome.
func (m *Manager) record(outcome SourceOutcome) {
	metrics := m.Metrics(outcome.Source)

	if outcome.Err != nil {
		if metrics != nil {
			metrics.RecordFailure(outcome.Latency)
		}
		if m.obs != nil {
			m.obs.RecordSourceSearchFailed(string(outcome.Source), outcome.Latency.Seconds())
			if errors.Is(outcome.Err, domain.ErrRateLimited) {
				m.obs.RecordSourceRateLimited(string(outcome.Source))
			}
		}
		return
	}

	if metrics != nil {
		metrics.RecordSuccess(outcome.Latency)
	}
	if m.obs != nil {
		m.obs.RecordSourceSearchCompleted(string(outcome.Source), len(outcome.Result.Publications), outcome.Latency.Seconds())
	}
}
