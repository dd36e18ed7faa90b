package redis

import (
	"context"
	"time"

	"github.com/church-register/roster-hub/internal/domain/person"
)

// PersonCache implements person.Cache using the generic Redis Cache.
type PersonCache struct {
	cache *Cache
}

// NewPersonCache creates a new PersonCache.
func NewPersonCache(cache *Cache) *PersonCache {
	return &PersonCache{
		cache: cache,
	}
}

// Get gets a person record from cache. Returns ErrCacheMiss when the
// record is not cached; callers fall back to the repository.
func (c *PersonCache) Get(ctx context.Context, personID string) (*person.Person, error) {
	var p person.Person
	if err := c.cache.Get(ctx, PersonKey(personID), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Set stores a person record in cache.
func (c *PersonCache) Set(ctx context.Context, p *person.Person, ttl time.Duration) error {
	if p == nil {
		return nil
	}
	return c.cache.Set(ctx, PersonKey(p.ID), p, ttl)
}

// Delete removes a person record from cache.
func (c *PersonCache) Delete(ctx context.Context, personID string) error {
	return c.cache.Delete(ctx, PersonKey(personID))
}

// Invalidate drops the cached record and any roster views that may
// embed it.
func (c *PersonCache) Invalidate(ctx context.Context, personID string) error {
	if err := c.cache.Delete(ctx, PersonKey(personID)); err != nil {
		return err
	}
	return c.cache.DeleteByPattern(ctx, PrefixRoster+"*")
}

// InvalidateAll clears all cached person records.
func (c *PersonCache) InvalidateAll(ctx context.Context) error {
	if err := c.cache.DeleteByPattern(ctx, PrefixPerson+"*"); err != nil {
		return err
	}
	return c.cache.DeleteByPattern(ctx, PrefixRoster+"*")
}
