package redis

import (
	"context"

	"github.com/church-register/roster-hub/internal/domain/person"
)

// CachedPersonRepository wraps a person.Repository with read-through
// caching of single-record lookups. List queries go straight to the
// underlying repository; cache coherence for them is handled by the
// pattern invalidation in PersonCache.Invalidate.
type CachedPersonRepository struct {
	repo  person.Repository
	cache person.Cache
}

// NewCachedPersonRepository creates a caching decorator over repo.
func NewCachedPersonRepository(repo person.Repository, cache person.Cache) *CachedPersonRepository {
	return &CachedPersonRepository{
		repo:  repo,
		cache: cache,
	}
}

// GetByID reads through the cache. Cache errors are treated as misses
// so a Redis outage degrades to repository reads instead of failing.
func (r *CachedPersonRepository) GetByID(ctx context.Context, id string) (*person.Person, error) {
	if p, err := r.cache.Get(ctx, id); err == nil && p != nil {
		return p, nil
	}

	p, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	_ = r.cache.Set(ctx, p, TTLPersonCache)
	return p, nil
}

// Create stores the record and drops any stale roster views.
func (r *CachedPersonRepository) Create(ctx context.Context, p *person.Person) error {
	if err := r.repo.Create(ctx, p); err != nil {
		return err
	}
	_ = r.cache.Invalidate(ctx, p.ID)
	return nil
}

// Update stores the record and invalidates its cached copy.
func (r *CachedPersonRepository) Update(ctx context.Context, p *person.Person) error {
	if err := r.repo.Update(ctx, p); err != nil {
		return err
	}
	_ = r.cache.Invalidate(ctx, p.ID)
	return nil
}

// HardDelete removes the record and invalidates its cached copy.
func (r *CachedPersonRepository) HardDelete(ctx context.Context, id string) error {
	if err := r.repo.HardDelete(ctx, id); err != nil {
		return err
	}
	_ = r.cache.Invalidate(ctx, id)
	return nil
}

func (r *CachedPersonRepository) GetAll(ctx context.Context, opts person.ListOptions) ([]*person.Person, error) {
	return r.repo.GetAll(ctx, opts)
}

func (r *CachedPersonRepository) GetByStatus(ctx context.Context, status person.Status, opts person.ListOptions) ([]*person.Person, error) {
	return r.repo.GetByStatus(ctx, status, opts)
}

func (r *CachedPersonRepository) GetByBand(ctx context.Context, band person.Band, opts person.ListOptions) ([]*person.Person, error) {
	return r.repo.GetByBand(ctx, band, opts)
}

func (r *CachedPersonRepository) GetByIDs(ctx context.Context, ids []string) ([]*person.Person, error) {
	return r.repo.GetByIDs(ctx, ids)
}

func (r *CachedPersonRepository) GetPendingDeletion(ctx context.Context) ([]*person.Person, error) {
	return r.repo.GetPendingDeletion(ctx)
}

func (r *CachedPersonRepository) Count(ctx context.Context) (int, error) {
	return r.repo.Count(ctx)
}

func (r *CachedPersonRepository) CountByStatus(ctx context.Context, status person.Status) (int, error) {
	return r.repo.CountByStatus(ctx, status)
}

func (r *CachedPersonRepository) Search(ctx context.Context, query string, opts person.ListOptions) ([]*person.Person, error) {
	return r.repo.Search(ctx, query, opts)
}

func (r *CachedPersonRepository) GetByFamilyKey(ctx context.Context, familyKey string) ([]*person.Person, error) {
	return r.repo.GetByFamilyKey(ctx, familyKey)
}

func (r *CachedPersonRepository) Exists(ctx context.Context, id string) (bool, error) {
	return r.repo.Exists(ctx, id)
}

var _ person.Repository = (*CachedPersonRepository)(nil)
