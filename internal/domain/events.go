package domain

import (
	"time"
)

// Event type constants for messages exchanged with downstream collaborators.
const (
	// EventTypeDiscoveryCompleted announces a freshly computed discovery
	// result; the persistence and URL-resolution pipelines consume it.
	EventTypeDiscoveryCompleted = "discovery.completed"

	// EventTypeSourceDataRegistered is emitted elsewhere in the system when
	// new source data is recorded for a dataset; it invalidates any cached
	// discovery result for that dataset.
	EventTypeSourceDataRegistered = "dataset.source_data_registered"

	// EventTypeDiscoveryRequested asks the daemon to run discovery for a
	// dataset. Emitted by upstream ingestion collaborators.
	EventTypeDiscoveryRequested = "discovery.requested"
)

// DiscoveryRequestedEvent is the payload consumed by the request listener.
// Options apply per request; zero values mean defaults.
type DiscoveryRequestedEvent struct {
	Dataset     DatasetContext   `json:"dataset"`
	Options     DiscoveryOptions `json:"options"`
	RequestedAt time.Time        `json:"requested_at"`
}

// DiscoveryCompletedEvent is the payload published after a fresh discovery.
// Cache hits do not republish.
type DiscoveryCompletedEvent struct {
	DatasetID        string              `json:"dataset_id"`
	PublicationCount int                 `json:"publication_count"`
	SourceBreakdown  map[string]int      `json:"source_breakdown"`
	TierCounts       map[QualityTier]int `json:"tier_counts,omitempty"`
	CompletedAt      time.Time           `json:"completed_at"`
	Duration         time.Duration       `json:"duration_ns"`
}

// SourceDataRegisteredEvent is the payload consumed by the cache invalidation
// listener.
type SourceDataRegisteredEvent struct {
	DatasetID    string    `json:"dataset_id"`
	Source       string    `json:"source"`
	RegisteredAt time.Time `json:"registered_at"`
}
