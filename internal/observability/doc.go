// Package observability provides logging, metrics, and context propagation
// for the dataset discovery service.
//
// # Overview
//
// The observability package provides:
//
//   - Structured logging with zerolog
//   - Prometheus metrics for discoveries, sources, deduplication and cache
//   - Context helpers for propagating request and dataset IDs
//
// # Logging
//
// Create a logger from configuration:
//
//	cfg := observability.LoggingConfig{
//	    Level:     "info",
//	    Format:    "json",
//	    Output:    "stdout",
//	    AddSource: true,
//	}
//
//	logger := observability.NewLogger(cfg)
//	logger.Info().Str("dataset_id", datasetID).Msg("discovery started")
//
// Add discovery context to a logger:
//
//	logger = observability.WithDiscoveryContext(logger, requestID, datasetID)
//
// # Metrics
//
// Initialize metrics against a registry:
//
//	metrics := observability.NewMetrics("dataset_discovery", prometheus.DefaultRegisterer)
//
// Record metrics:
//
//	metrics.RecordDiscoveryStarted()
//	metrics.RecordSourceSearchCompleted("openalex", 42, 1.7)
//
// # Context Helpers
//
// Store and retrieve request context:
//
//	ctx = observability.WithRequestID(ctx, requestID)
//	ctx = observability.WithDatasetID(ctx, datasetID)
//
//	reqID := observability.RequestIDFromContext(ctx)
//	datasetID := observability.DatasetIDFromContext(ctx)
//
// # Standard Fields
//
// Common fields used across the service:
//
//   - request_id: Discovery request identifier
//   - dataset_id: Dataset accession under discovery
//   - source: Publication source (openalex, semantic_scholar, etc.)
//   - canonical_id: Deduplicated publication identifier
//
// # Thread Safety
//
// All components are safe for concurrent use from multiple goroutines.
package observability
