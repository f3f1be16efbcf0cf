package travel

import (
	"context"
	"fmt"

	"github.com/couchcryptid/district-livability-service/internal/domain"
)

// DistrictLister returns the known districts.
type DistrictLister interface {
	List(ctx context.Context) ([]domain.District, error)
}

// Resolver maps a raw coordinate to the nearest known district.
type Resolver struct {
	districts DistrictLister
}

// NewResolver creates a Resolver over the district directory.
func NewResolver(districts DistrictLister) *Resolver {
	return &Resolver{districts: districts}
}

// Resolve returns the nearest district by haversine distance, or NotFound
// when the directory is empty. Exact ties go to the lowest district id.
func (r *Resolver) Resolve(ctx context.Context, lat, lon float64) (domain.SourceDistrictResolutionResult, error) {
	districts, err := r.districts.List(ctx)
	if err != nil {
		return domain.SourceNotFound(), fmt.Errorf("resolve source district: %w", err)
	}
	nearest, ok := domain.Nearest(lat, lon, districts)
	if !ok {
		return domain.SourceNotFound(), nil
	}
	return domain.SourceResolved(nearest.ID), nil
}
