// Package cache stores completed discovery results keyed by dataset ID, so
// repeated calls for the same dataset are served without touching the
// upstream providers.
package cache

import (
	"context"
	"time"

	"github.com/helixir/dataset-discovery-service/internal/domain"
)

// DiscoveryCache stores discovery results by dataset ID. A miss is (nil, nil),
// not an error; writes are last-writer-wins. Implementations must tolerate
// concurrent readers and a concurrent writer without exposing partial writes.
type DiscoveryCache interface {
	// Get returns the live cached result for the dataset, or nil on a miss.
	Get(ctx context.Context, datasetID string) (*domain.DiscoveryResult, error)

	// Set stores the result with the given TTL, replacing any existing entry.
	Set(ctx context.Context, datasetID string, result *domain.DiscoveryResult, ttl time.Duration) error

	// Invalidate removes the entry immediately. Removing a missing entry is
	// not an error.
	Invalidate(ctx context.Context, datasetID string) error
}
