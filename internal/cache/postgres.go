package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/helixir/dataset-discovery-service/internal/database"
	"github.com/helixir/dataset-discovery-service/internal/domain"
)

// Compile-time interface verification.
var _ DiscoveryCache = (*PostgresCache)(nil)

// PostgresCache is a DiscoveryCache backed by a PostgreSQL table. Results
// are stored as a JSONB payload keyed by dataset ID; concurrent writers
// resolve by last-writer-wins through an upsert. Expired rows are deleted
// lazily on read.
type PostgresCache struct {
	db     database.DBTX
	logger zerolog.Logger
	now    func() time.Time
}

// NewPostgres creates a PostgresCache on the given connection.
func NewPostgres(db database.DBTX, logger zerolog.Logger) *PostgresCache {
	return &PostgresCache{
		db:     db,
		logger: logger.With().Str("component", "postgres_cache").Logger(),
		now:    time.Now,
	}
}

// Get returns the live cached result for the dataset, or nil on a miss.
func (c *PostgresCache) Get(ctx context.Context, datasetID string) (*domain.DiscoveryResult, error) {
	query := `
		SELECT payload, expires_at
		FROM discovery_cache
		WHERE dataset_id = $1`

	var payload []byte
	var expiresAt time.Time
	err := c.db.QueryRow(ctx, query, datasetID).Scan(&payload, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}

	if c.now().UTC().After(expiresAt) {
		c.deleteExpired(ctx, datasetID)
		return nil, nil
	}

	var result domain.DiscoveryResult
	if err := json.Unmarshal(payload, &result); err != nil {
		// A payload that no longer deserializes is useless; drop it so the
		// next write replaces it cleanly.
		c.logger.Warn().Err(err).Str("dataset_id", datasetID).Msg("dropping undecodable cache entry")
		c.deleteExpired(ctx, datasetID)
		return nil, nil
	}
	return &result, nil
}

// Set stores the result with the given TTL, replacing any existing entry.
func (c *PostgresCache) Set(ctx context.Context, datasetID string, result *domain.DiscoveryResult, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = domain.DefaultCacheTTL
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	now := c.now().UTC()
	query := `
		INSERT INTO discovery_cache (dataset_id, payload, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (dataset_id) DO UPDATE SET
			payload = EXCLUDED.payload,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at`

	if _, err := c.db.Exec(ctx, query, datasetID, payload, now, now.Add(ttl)); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Invalidate removes the entry for the dataset.
func (c *PostgresCache) Invalidate(ctx context.Context, datasetID string) error {
	if _, err := c.db.Exec(ctx, `DELETE FROM discovery_cache WHERE dataset_id = $1`, datasetID); err != nil {
		return fmt.Errorf("failed to invalidate cache entry: %w", err)
	}
	return nil
}

// deleteExpired removes a stale row. Failure only costs a wasted row until
// the next write, so it is logged and ignored.
func (c *PostgresCache) deleteExpired(ctx context.Context, datasetID string) {
	if _, err := c.db.Exec(ctx, `DELETE FROM discovery_cache WHERE dataset_id = $1`, datasetID); err != nil {
		c.logger.Warn().Err(err).Str("dataset_id", datasetID).Msg("failed to delete expired cache entry")
	}
}
