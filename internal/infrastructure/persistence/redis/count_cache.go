package redis

import (
	"context"
	"strconv"
	"time"
)

// CountCache implements query.CountCache on top of the generic Cache.
// Counters are stored as plain strings so they stay readable in
// redis-cli.
type CountCache struct {
	cache *Cache
}

// NewCountCache creates a new CountCache.
func NewCountCache(cache *Cache) *CountCache {
	return &CountCache{
		cache: cache,
	}
}

// GetInt returns a cached counter. A miss, a connection error or a
// malformed value all read as a miss: the caller recomputes.
func (c *CountCache) GetInt(ctx context.Context, key string) (int, bool) {
	val, err := c.cache.GetString(ctx, key)
	if err != nil {
		return 0, false
	}

	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, false
	}
	return n, true
}

// SetInt stores a counter with a TTL. Failures are swallowed: the
// counter is advisory and will be recomputed on the next miss.
func (c *CountCache) SetInt(ctx context.Context, key string, value int, ttl time.Duration) {
	_ = c.cache.SetString(ctx, key, strconv.Itoa(value), ttl)
}

// Delete drops a counter so the next read recomputes it.
func (c *CountCache) Delete(ctx context.Context, key string) {
	_ = c.cache.Delete(ctx, key)
}
