// Package directory serves the district reference list with a read-through
// cache in front of the durable store.
package directory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/district-livability-service/internal/domain"
)

// Store is the authoritative district source.
type Store interface {
	ListDistricts(ctx context.Context) ([]domain.District, error)
}

// Cache holds a copy of the full directory.
type Cache interface {
	Get(ctx context.Context) ([]domain.District, bool, error)
	Set(ctx context.Context, districts []domain.District, ttl time.Duration) error
}

// Directory reads districts from the cache, falling back to the store on a
// miss or cache failure and backfilling the cache afterwards.
type Directory struct {
	store  Store
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

// New creates a Directory. cache may be nil.
func New(store Store, cache Cache, ttl time.Duration, logger *slog.Logger) *Directory {
	return &Directory{store: store, cache: cache, ttl: ttl, logger: logger}
}

// List returns every known district.
func (d *Directory) List(ctx context.Context) ([]domain.District, error) {
	if d.cache != nil {
		districts, found, err := d.cache.Get(ctx)
		switch {
		case err != nil:
			d.logger.Warn("district cache read failed", "error", err)
		case found:
			return districts, nil
		}
	}

	districts, err := d.store.ListDistricts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list districts: %w", err)
	}

	// Empty results are not cached.
	if d.cache != nil && len(districts) > 0 {
		if err := d.cache.Set(ctx, districts, d.ttl); err != nil {
			d.logger.Warn("district cache write failed", "error", err)
		}
	}
	return districts, nil
}

// ByID returns the district with the given id.
func (d *Directory) ByID(ctx context.Context, id int) (domain.District, error) {
	districts, err := d.List(ctx)
	if err != nil {
		return domain.District{}, err
	}
	for _, dist := range districts {
		if dist.ID == id {
			return dist, nil
		}
	}
	return domain.District{}, fmt.Errorf("district %d: %w", id, domain.ErrDistrictNotFound)
}

// ByName returns the district whose name matches case-insensitively after
// trimming surrounding whitespace.
func (d *Directory) ByName(ctx context.Context, name string) (domain.District, error) {
	want := strings.TrimSpace(name)
	if want == "" {
		return domain.District{}, fmt.Errorf("blank district name: %w", domain.ErrDistrictNotFound)
	}
	districts, err := d.List(ctx)
	if err != nil {
		return domain.District{}, err
	}
	for _, dist := range districts {
		if strings.EqualFold(strings.TrimSpace(dist.Name), want) {
			return dist, nil
		}
	}
	return domain.District{}, fmt.Errorf("district %q: %w", want, domain.ErrDistrictNotFound)
}
