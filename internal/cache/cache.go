package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/ozweather/radar-proxy/internal/models"
)

// Cache defines the interface for weather report caching implementations.
// Get returns cached data if present and not expired, Set stores data with TTL.
type Cache interface {
	Get(ctx context.Context, key string) (models.WeatherReport, bool, error)
	Set(ctx context.Context, key string, value models.WeatherReport, ttl time.Duration) error
}

// InMemoryCache implements Cache using a map with TTL-based expiration,
// guarded by a RWMutex so concurrent handler goroutines see each get/set
// as atomic. Expired entries are removed on access; there is no eviction
// loop and no size bound.
type InMemoryCache struct {
	mu    sync.RWMutex
	clock clockwork.Clock
	data  map[string]cacheEntry
}

type cacheEntry struct {
	value    models.WeatherReport
	storedAt time.Time
	lifetime time.Duration
}

// NewInMemoryCache creates an in-memory cache on the real clock.
func NewInMemoryCache() *InMemoryCache {
	return NewInMemoryCacheWithClock(clockwork.NewRealClock())
}

// NewInMemoryCacheWithClock creates an in-memory cache on the given clock.
// Tests pass a fake clock to step time across the TTL boundary.
func NewInMemoryCacheWithClock(clock clockwork.Clock) *InMemoryCache {
	return &InMemoryCache{
		clock: clock,
		data:  make(map[string]cacheEntry),
	}
}

// Get retrieves the cached report for key if present and younger than the
// TTL it was stored with. An entry whose age is exactly the TTL is already
// stale. Stale entries are deleted on access.
func (c *InMemoryCache) Get(ctx context.Context, key string) (models.WeatherReport, bool, error) {
	c.mu.RLock()
	entry, ok := c.data[key]
	c.mu.RUnlock()
	if !ok {
		return models.WeatherReport{}, false, nil
	}

	if c.clock.Since(entry.storedAt) >= entry.lifetime {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have refreshed it.
		if cur, still := c.data[key]; still && cur.storedAt.Equal(entry.storedAt) {
			delete(c.data, key)
		}
		c.mu.Unlock()
		return models.WeatherReport{}, false, nil
	}

	return entry.value, true, nil
}

// Set stores the report under key, stamping the current time.
// Any prior entry is unconditionally overwritten.
func (c *InMemoryCache) Set(ctx context.Context, key string, value models.WeatherReport, ttl time.Duration) error {
	c.mu.Lock()
	c.data[key] = cacheEntry{
		value:    value,
		storedAt: c.clock.Now(),
		lifetime: ttl,
	}
	c.mu.Unlock()
	return nil
}

// Len returns the current entry count, including stale entries that have
// not been touched since expiry.
func (c *InMemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
