package cache

import (
	"context"
	"sync"
	"time"

	"github.com/helixir/dataset-discovery-service/internal/domain"
)

// janitorInterval is how often the background sweep removes expired entries.
const janitorInterval = time.Minute

// Compile-time interface verification.
var _ DiscoveryCache = (*MemoryCache)(nil)

type memoryEntry struct {
	result    *domain.DiscoveryResult
	expiresAt time.Time
}

// MemoryCache is an in-process DiscoveryCache. Expired entries are dropped
// lazily on read and swept periodically by a background janitor. Stored
// results are treated as immutable; callers must not modify a result after
// handing it to Set or after receiving it from Get.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
	stop    chan struct{}
	stopped sync.Once
}

// NewMemory creates a MemoryCache and starts its janitor. Call Close to stop
// the janitor when the cache is no longer needed.
func NewMemory() *MemoryCache {
	c := newMemoryWithClock(time.Now)
	go c.janitor()
	return c
}

// newMemoryWithClock creates a MemoryCache with an injected clock and no
// running janitor.
func newMemoryWithClock(now func() time.Time) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     now,
		stop:    make(chan struct{}),
	}
}

// Get returns the live entry for the dataset, or nil on a miss. An expired
// entry is removed and reported as a miss.
func (c *MemoryCache) Get(_ context.Context, datasetID string) (*domain.DiscoveryResult, error) {
	c.mu.RLock()
	entry, ok := c.entries[datasetID]
	c.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have replaced
		// the entry with a live one.
		if current, ok := c.entries[datasetID]; ok && c.now().After(current.expiresAt) {
			delete(c.entries, datasetID)
		}
		c.mu.Unlock()
		return nil, nil
	}
	return entry.result, nil
}

// Set stores the result, replacing any existing entry for the dataset.
func (c *MemoryCache) Set(_ context.Context, datasetID string, result *domain.DiscoveryResult, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = domain.DefaultCacheTTL
	}

	c.mu.Lock()
	c.entries[datasetID] = memoryEntry{
		result:    result,
		expiresAt: c.now().Add(ttl),
	}
	c.mu.Unlock()
	return nil
}

// Invalidate removes the entry for the dataset.
func (c *MemoryCache) Invalidate(_ context.Context, datasetID string) error {
	c.mu.Lock()
	delete(c.entries, datasetID)
	c.mu.Unlock()
	return nil
}

// Len returns the number of entries currently held, including any expired
// entries the janitor has not yet swept.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the janitor. The cache remains usable afterwards.
func (c *MemoryCache) Close() {
	c.stopped.Do(func() {
		close(c.stop)
	})
}

func (c *MemoryCache) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *MemoryCache) sweep() {
	now := c.now()
	c.mu.Lock()
	for datasetID, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, datasetID)
		}
	}
	c.mu.Unlock()
}
