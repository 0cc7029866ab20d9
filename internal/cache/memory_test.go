package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/dataset-discovery-service/internal/domain"
)

func sampleResult(datasetID string) *domain.DiscoveryResult {
	return &domain.DiscoveryResult{
		DatasetID:    datasetID,
		UniqueCount:  2,
		RawCount:     3,
		DiscoveredAt: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		SourceBreakdown: map[string]int{
			"openalex.cited_by": 3,
		},
	}
}

func TestMemoryCache_RoundTrip(t *testing.T) {
	c := newMemoryWithClock(time.Now)
	ctx := context.Background()

	stored := sampleResult("GSE1")
	require.NoError(t, c.Set(ctx, "GSE1", stored, time.Hour))

	got, err := c.Get(ctx, "GSE1")
	require.NoError(t, err)
	assert.Equal(t, stored, got)

	require.NoError(t, c.Invalidate(ctx, "GSE1"))
	got, err = c.Get(ctx, "GSE1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryCache_MissIsNotAnError(t *testing.T) {
	c := newMemoryWithClock(time.Now)

	got, err := c.Get(context.Background(), "never-stored")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryCache_ExpiredEntryIsAMiss(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	c := newMemoryWithClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "GSE1", sampleResult("GSE1"), time.Hour))

	now = now.Add(2 * time.Hour)

	got, err := c.Get(ctx, "GSE1")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Zero(t, c.Len(), "expired entry is removed on read")
}

func TestMemoryCache_SetReplacesExistingEntry(t *testing.T) {
	c := newMemoryWithClock(time.Now)
	ctx := context.Background()

	first := sampleResult("GSE1")
	second := sampleResult("GSE1")
	second.UniqueCount = 99

	require.NoError(t, c.Set(ctx, "GSE1", first, time.Hour))
	require.NoError(t, c.Set(ctx, "GSE1", second, time.Hour))

	got, err := c.Get(ctx, "GSE1")
	require.NoError(t, err)
	assert.Equal(t, 99, got.UniqueCount)
	assert.Equal(t, 1, c.Len())
}

func TestMemoryCache_ZeroTTLUsesDefault(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	c := newMemoryWithClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "GSE1", sampleResult("GSE1"), 0))

	now = now.Add(6 * 24 * time.Hour)
	got, err := c.Get(ctx, "GSE1")
	require.NoError(t, err)
	assert.NotNil(t, got, "entry still live inside the default TTL")

	now = now.Add(2 * 24 * time.Hour)
	got, err = c.Get(ctx, "GSE1")
	require.NoError(t, err)
	assert.Nil(t, got, "entry expired past the default TTL")
}

func TestMemoryCache_Sweep(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	c := newMemoryWithClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "expired", sampleResult("expired"), time.Minute))
	require.NoError(t, c.Set(ctx, "live", sampleResult("live"), time.Hour))

	now = now.Add(30 * time.Minute)
	c.sweep()

	assert.Equal(t, 1, c.Len())
	got, err := c.Get(ctx, "live")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	c := newMemoryWithClock(time.Now)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		datasetID := fmt.Sprintf("GSE%d", i%5)
		go func() {
			defer wg.Done()
			_ = c.Set(ctx, datasetID, sampleResult(datasetID), time.Hour)
		}()
		go func() {
			defer wg.Done()
			_, _ = c.Get(ctx, datasetID)
		}()
	}
	wg.Wait()

	// Every surviving entry must be complete; a reader must never observe a
	// partially written record.
	for i := 0; i < 5; i++ {
		datasetID := fmt.Sprintf("GSE%d", i)
		got, err := c.Get(ctx, datasetID)
		require.NoError(t, err)
		if got != nil {
			assert.Equal(t, datasetID, got.DatasetID)
		}
	}
}
