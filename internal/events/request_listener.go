package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/helixir/dataset-discovery-service/internal/domain"
)

// DiscoveryRunner runs one discovery call. Satisfied by *discovery.Engine.
type DiscoveryRunner interface {
	Discover(ctx context.Context, dataset domain.DatasetContext, opts domain.DiscoveryOptions) (*domain.DiscoveryResult, error)
}

// RequestListener consumes discovery requests and runs the engine for each.
// Completion events are published by the engine itself, so a request that
// succeeds needs no further action here.
type RequestListener struct {
	reader messageReader
	runner DiscoveryRunner
	logger zerolog.Logger
}

// NewRequestListener creates a listener on the given brokers.
func NewRequestListener(cfg ListenerConfig, runner DiscoveryRunner, logger zerolog.Logger) *RequestListener {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  3 * time.Second,
	})
	return newRequestListener(reader, runner, logger)
}

func newRequestListener(reader messageReader, runner DiscoveryRunner, logger zerolog.Logger) *RequestListener {
	return &RequestListener{
		reader: reader,
		runner: runner,
		logger: logger.With().Str("component", "request_listener").Logger(),
	}
}

// Run starts the listener loop. Blocks until the context is cancelled.
// Malformed and invalid requests are logged and skipped; only context
// cancellation stops the loop.
func (l *RequestListener) Run(ctx context.Context) error {
	l.logger.Info().Msg("starting discovery request listener")

	for {
		msg, err := l.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.logger.Info().Msg("request listener stopped via context cancellation")
				return ctx.Err()
			}
			l.logger.Error().Err(err).Msg("failed to read message from Kafka")
			continue
		}

		var req domain.DiscoveryRequestedEvent
		if err := json.Unmarshal(msg.Value, &req); err != nil {
			l.logger.Error().Err(err).
				Str("raw_value", string(msg.Value)).
				Msg("failed to unmarshal discovery request")
			continue
		}

		result, err := l.runner.Discover(ctx, req.Dataset, req.Options)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			l.logger.Error().Err(err).
				Str("dataset_id", req.Dataset.DatasetID).
				Msg("discovery request failed")
			continue
		}

		l.logger.Info().
			Str("dataset_id", req.Dataset.DatasetID).
			Int("publications", result.PublicationCount()).
			Msg("discovery request completed")
	}
}

// Close closes the Kafka reader.
func (l *RequestListener) Close() error {
	l.logger.Info().Msg("closing request listener")
	return l.reader.Close()
}
