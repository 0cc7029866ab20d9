package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/helixir/dataset-discovery-service/internal/cache"
	"github.com/helixir/dataset-discovery-service/internal/domain"
)

// messageReader is the subset of kafka.Reader the listener uses.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// ListenerConfig holds configuration for the invalidation listener.
type ListenerConfig struct {
	// Brokers is the list of Kafka broker addresses.
	Brokers []string
	// Topic is the topic carrying dataset registration events.
	Topic string
	// GroupID is the consumer group ID.
	GroupID string
}

// InvalidationListener consumes dataset registration events and drops the
// cached discovery result for the affected dataset, so the next discovery
// call sees the newly registered source data.
type InvalidationListener struct {
	reader messageReader
	cache  cache.DiscoveryCache
	logger zerolog.Logger
}

// NewInvalidationListener creates a listener on the given brokers.
func NewInvalidationListener(cfg ListenerConfig, discoveryCache cache.DiscoveryCache, logger zerolog.Logger) *InvalidationListener {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  3 * time.Second,
	})
	return newInvalidationListener(reader, discoveryCache, logger)
}

func newInvalidationListener(reader messageReader, discoveryCache cache.DiscoveryCache, logger zerolog.Logger) *InvalidationListener {
	return &InvalidationListener{
		reader: reader,
		cache:  discoveryCache,
		logger: logger.With().Str("component", "invalidation_listener").Logger(),
	}
}

// Run starts the listener loop. Blocks until the context is cancelled.
func (l *InvalidationListener) Run(ctx context.Context) error {
	l.logger.Info().Msg("starting cache invalidation listener")

	for {
		msg, err := l.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.logger.Info().Msg("invalidation listener stopped via context cancellation")
				return ctx.Err()
			}
			l.logger.Error().Err(err).Msg("failed to read message from Kafka")
			continue
		}

		var event domain.SourceDataRegisteredEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			l.logger.Error().Err(err).
				Str("raw_value", string(msg.Value)).
				Msg("failed to unmarshal dataset registration event")
			continue
		}
		if event.DatasetID == "" {
			l.logger.Warn().Msg("dataset registration event without dataset ID, skipping")
			continue
		}

		if err := l.cache.Invalidate(ctx, event.DatasetID); err != nil {
			l.logger.Error().Err(err).
				Str("dataset_id", event.DatasetID).
				Msg("failed to invalidate cached discovery result")
			continue
		}

		l.logger.Info().
			Str("dataset_id", event.DatasetID).
			Str("source", event.Source).
			Msg("invalidated cached discovery result")
	}
}

// Close closes the Kafka reader.
func (l *InvalidationListener) Close() error {
	l.logger.Info().Msg("closing invalidation listener")
	return l.reader.Close()
}
