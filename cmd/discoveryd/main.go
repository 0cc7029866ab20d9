// Package main provides the entry point for the dataset discovery daemon.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/helixir/dataset-discovery-service/internal/cache"
	"github.com/helixir/dataset-discovery-service/internal/config"
	"github.com/helixir/dataset-discovery-service/internal/database"
	"github.com/helixir/dataset-discovery-service/internal/dedup"
	"github.com/helixir/dataset-discovery-service/internal/discovery"
	"github.com/helixir/dataset-discovery-service/internal/domain"
	"github.com/helixir/dataset-discovery-service/internal/events"
	"github.com/helixir/dataset-discovery-service/internal/manager"
	"github.com/helixir/dataset-discovery-service/internal/observability"
	"github.com/helixir/dataset-discovery-service/internal/quality"
	"github.com/helixir/dataset-discovery-service/internal/relevance"
	"github.com/helixir/dataset-discovery-service/internal/server/ops"
	"github.com/helixir/dataset-discovery-service/internal/sources/europepmc"
	"github.com/helixir/dataset-discovery-service/internal/sources/openalex"
	"github.com/helixir/dataset-discovery-service/internal/sources/opencitations"
	"github.com/helixir/dataset-discovery-service/internal/sources/pubmed"
	"github.com/helixir/dataset-discovery-service/internal/sources/semanticscholar"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "discoveryd").Logger()
	logger.Info().Msg("dataset-discovery-service starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Prometheus registry backing both the internal metrics and /metrics.
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics("discovery", registry)

	// Connect to PostgreSQL when it backs the cache.
	var db *database.DB
	if cfg.Cache.Backend == config.CacheBackendPostgres {
		db, err = database.New(ctx, &cfg.Database, logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()
		logger.Info().Msg("database connection established")

		if cfg.Database.MigrationAutoRun {
			migrator, err := database.NewMigrator(db, cfg.Database.MigrationPath, logger)
			if err != nil {
				return fmt.Errorf("create migrator: %w", err)
			}
			defer func() {
				if closeErr := migrator.Close(); closeErr != nil {
					logger.Error().Err(closeErr).Msg("failed to close migrator")
				}
			}()

			// Serialize auto-migration across replicas starting together.
			if err := db.WithAdvisoryLock(ctx, database.MigrationLockKey, migrator.Up); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
		}
	}

	// Select the discovery cache backend.
	var discoveryCache cache.DiscoveryCache
	switch cfg.Cache.Backend {
	case config.CacheBackendPostgres:
		discoveryCache = cache.NewPostgres(db, logger)
	default:
		memCache := cache.NewMemory()
		defer memCache.Close()
		discoveryCache = memCache
	}
	logger.Info().Str("backend", cfg.Cache.Backend).Msg("discovery cache initialized")

	// Build the tiered source registry from configuration.
	mgr := manager.New(logger, metrics)
	registerSources(mgr, cfg.Sources)

	// Kafka publisher, when configured.
	var publisher *events.Publisher
	if cfg.Kafka.Enabled {
		publisher = events.NewPublisher(events.PublisherConfig{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.EventsTopic,
			BatchSize:    cfg.Kafka.BatchSize,
			BatchTimeout: cfg.Kafka.BatchTimeout,
		}, logger, metrics)
		defer func() {
			if closeErr := publisher.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close event publisher")
			}
		}()
	}

	// Assemble the discovery engine.
	engineCfg := discovery.Config{
		Manager: mgr,
		Deduplicator: dedup.New(dedup.Config{
			TitleThreshold:  cfg.Dedup.TitleThreshold,
			AuthorThreshold: cfg.Dedup.AuthorThreshold,
			YearTolerance:   cfg.Dedup.YearTolerance,
		}),
		Scorer:            relevance.New(),
		Validator:         quality.New(),
		Cache:             discoveryCache,
		Metrics:           metrics,
		Logger:            logger,
		DefaultMaxResults: cfg.Discovery.DefaultMaxResults,
	}
	if publisher != nil {
		engineCfg.Publisher = publisher
	}
	engine := discovery.New(engineCfg)

	// Channel to collect fatal errors from background loops.
	errCh := make(chan error, 3)

	// Kafka listeners: discovery requests in, cache invalidations in.
	if cfg.Kafka.Enabled {
		if cfg.Kafka.RequestsTopic != "" {
			requestListener := events.NewRequestListener(events.ListenerConfig{
				Brokers: cfg.Kafka.Brokers,
				Topic:   cfg.Kafka.RequestsTopic,
				GroupID: cfg.Kafka.ConsumerGroup,
			}, engine, logger)
			defer closeListener(requestListener, logger, "request listener")
			go func() {
				if err := requestListener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					errCh <- fmt.Errorf("request listener error: %w", err)
				}
			}()
		}

		invalidationListener := events.NewInvalidationListener(events.ListenerConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.InvalidationTopic,
			GroupID: cfg.Kafka.ConsumerGroup,
		}, discoveryCache, logger)
		defer closeListener(invalidationListener, logger, "invalidation listener")
		go func() {
			if err := invalidationListener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("invalidation listener error: %w", err)
			}
		}()
	}

	// Operational HTTP listener: health, readiness, metrics.
	var checks []ops.Check
	if db != nil {
		checks = append(checks, ops.DatabaseCheck(db))
	}
	if cfg.Kafka.Enabled {
		checks = append(checks, ops.KafkaCheck(cfg.Kafka.Brokers))
	}
	opsServer := ops.NewServer(ops.Config{
		Address:      cfg.Server.HTTPAddress(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  2 * time.Minute,
	}, registry, checks, logger)

	go func() {
		if err := opsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("ops server error: %w", err)
		}
	}()

	logger.Info().
		Str("ops_address", cfg.Server.HTTPAddress()).
		Bool("kafka", cfg.Kafka.Enabled).
		Msg("dataset-discovery-service is ready")

	// Wait for shutdown signal or background error.
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("background loop error")
		return err
	}

	// Graceful shutdown. Deferred closes handle the listeners, publisher,
	// cache, and database in reverse construction order.
	logger.Info().Msg("shutting down dataset-discovery-service")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("ops server shutdown error")
	}

	logger.Info().Msg("dataset-discovery-service shutdown complete")
	return nil
}

// registerSources builds the enabled source clients and assigns them to
// their priority tiers: OpenAlex carries the citation graph (critical);
// Semantic Scholar and Europe PMC broaden coverage (high); PubMed and
// OpenCitations round it out (medium).
func registerSources(mgr *manager.Manager, cfg config.SourcesConfig) {
	mgr.Register(domain.SourceTierCritical, openalex.New(openalex.Config{
		BaseURL:    cfg.OpenAlex.BaseURL,
		Email:      cfg.OpenAlex.Email,
		Timeout:    cfg.OpenAlex.Timeout,
		RateLimit:  cfg.OpenAlex.RateLimit,
		MaxResults: cfg.OpenAlex.MaxResults,
		Enabled:    cfg.OpenAlex.Enabled,
	}))

	mgr.Register(domain.SourceTierHigh, semanticscholar.New(semanticscholar.Config{
		BaseURL:    cfg.SemanticScholar.BaseURL,
		APIKey:     cfg.SemanticScholar.APIKey,
		Timeout:    cfg.SemanticScholar.Timeout,
		RateLimit:  cfg.SemanticScholar.RateLimit,
		MaxResults: cfg.SemanticScholar.MaxResults,
		Enabled:    cfg.SemanticScholar.Enabled,
	}))
	mgr.Register(domain.SourceTierHigh, europepmc.New(europepmc.Config{
		BaseURL:    cfg.EuropePMC.BaseURL,
		Email:      cfg.EuropePMC.Email,
		Timeout:    cfg.EuropePMC.Timeout,
		RateLimit:  cfg.EuropePMC.RateLimit,
		MaxResults: cfg.EuropePMC.MaxResults,
		Enabled:    cfg.EuropePMC.Enabled,
	}))

	mgr.Register(domain.SourceTierMedium, pubmed.New(pubmed.Config{
		BaseURL:    cfg.PubMed.BaseURL,
		APIKey:     cfg.PubMed.APIKey,
		Timeout:    cfg.PubMed.Timeout,
		RateLimit:  cfg.PubMed.RateLimit,
		MaxResults: cfg.PubMed.MaxResults,
		Enabled:    cfg.PubMed.Enabled,
	}))
	mgr.Register(domain.SourceTierMedium, opencitations.New(opencitations.Config{
		BaseURL:     cfg.OpenCitations.BaseURL,
		AccessToken: cfg.OpenCitations.APIKey,
		Timeout:     cfg.OpenCitations.Timeout,
		RateLimit:   cfg.OpenCitations.RateLimit,
		MaxResults:  cfg.OpenCitations.MaxResults,
		Enabled:     cfg.OpenCitations.Enabled,
	}))
}

type closer interface {
	Close() error
}

func closeListener(c closer, logger zerolog.Logger, name string) {
	if err := c.Close(); err != nil {
		logger.Error().Err(err).Str("listener", name).Msg("failed to close listener")
	}
}
