// Package events connects the discovery pipeline to Kafka: completed
// discoveries are announced downstream, and dataset registration events
// from the rest of the system invalidate cached results.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/helixir/dataset-discovery-service/internal/domain"
	"github.com/helixir/dataset-discovery-service/internal/observability"
)

// kafkaWriter is the subset of kafka.Writer the publisher uses.
type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// PublisherConfig holds configuration for the event publisher.
type PublisherConfig struct {
	// Brokers is the list of Kafka broker addresses.
	Brokers []string
	// Topic is the topic discovery completion events are published to.
	Topic string
	// BatchSize is the maximum number of messages to batch before sending.
	BatchSize int
	// BatchTimeout is the maximum time to wait for a batch to fill.
	BatchTimeout time.Duration
}

// Publisher publishes discovery completion events. Messages are keyed by
// dataset ID so all events for one dataset land on the same partition.
type Publisher struct {
	writer  kafkaWriter
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// NewPublisher creates a Publisher connected to the given brokers.
func NewPublisher(cfg PublisherConfig, logger zerolog.Logger, metrics *observability.Metrics) *Publisher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		RequiredAcks: kafka.RequireOne,
	}

	return newPublisher(writer, logger, metrics)
}

func newPublisher(writer kafkaWriter, logger zerolog.Logger, metrics *observability.Metrics) *Publisher {
	return &Publisher{
		writer:  writer,
		logger:  logger.With().Str("component", "event_publisher").Logger(),
		metrics: metrics,
	}
}

// PublishDiscoveryCompleted publishes a discovery.completed event for a
// freshly computed result.
func (p *Publisher) PublishDiscoveryCompleted(ctx context.Context, event domain.DiscoveryCompletedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal discovery completed event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.DatasetID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(domain.EventTypeDiscoveryCompleted)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		if p.metrics != nil {
			p.metrics.RecordEventPublishFailed(domain.EventTypeDiscoveryCompleted)
		}
		return fmt.Errorf("publish discovery completed event: %w", err)
	}

	if p.metrics != nil {
		p.metrics.RecordEventPublished(domain.EventTypeDiscoveryCompleted)
	}
	p.logger.Debug().
		Str("dataset_id", event.DatasetID).
		Int("publication_count", event.PublicationCount).
		Msg("published discovery completed event")
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
