package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/couchcryptid/district-livability-service/internal/domain"
)

const districtsKey = "districts:all"

// DistrictCache stores the full district directory under a single key.
type DistrictCache struct {
	client goredis.Cmdable
}

// NewDistrictCache creates a district cache over client.
func NewDistrictCache(client goredis.Cmdable) *DistrictCache {
	return &DistrictCache{client: client}
}

// Get returns the cached directory. found is false on a miss.
func (c *DistrictCache) Get(ctx context.Context) ([]domain.District, bool, error) {
	raw, err := c.client.Get(ctx, districtsKey).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis: get districts: %w", err)
	}

	var districts []domain.District
	if err := json.Unmarshal(raw, &districts); err != nil {
		return nil, false, fmt.Errorf("redis: decode districts: %w", err)
	}
	return districts, true, nil
}

// Set replaces the cached directory.
func (c *DistrictCache) Set(ctx context.Context, districts []domain.District, ttl time.Duration) error {
	raw, err := json.Marshal(districts)
	if err != nil {
		return fmt.Errorf("redis: encode districts: %w", err)
	}
	if err := c.client.Set(ctx, districtsKey, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set districts: %w", err)
	}
	return nil
}
