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

// ForecastCache stores per-district daily forecasts as JSON strings.
type ForecastCache struct {
	client goredis.Cmdable
}

// NewForecastCache creates a forecast cache over client.
func NewForecastCache(client goredis.Cmdable) *ForecastCache {
	return &ForecastCache{client: client}
}

// ForecastKey is the cache key for a district and calendar date.
func ForecastKey(districtID int, date time.Time) string {
	return fmt.Sprintf("forecast:%d:%s", districtID, date.UTC().Format(domain.DateLayout))
}

// Get returns the cached forecast. found is false on a miss.
func (c *ForecastCache) Get(ctx context.Context, districtID int, date time.Time) (domain.DailyDistrictForecast, bool, error) {
	raw, err := c.client.Get(ctx, ForecastKey(districtID, date)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return domain.DailyDistrictForecast{}, false, nil
	}
	if err != nil {
		return domain.DailyDistrictForecast{}, false, fmt.Errorf("redis: get forecast: %w", err)
	}

	var f domain.DailyDistrictForecast
	if err := json.Unmarshal(raw, &f); err != nil {
		return domain.DailyDistrictForecast{}, false, fmt.Errorf("redis: decode forecast: %w", err)
	}
	return f, true, nil
}

// Set writes f under its key with the given ttl.
func (c *ForecastCache) Set(ctx context.Context, f domain.DailyDistrictForecast, ttl time.Duration) error {
	raw, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("redis: encode forecast: %w", err)
	}
	if err := c.client.Set(ctx, ForecastKey(f.DistrictID, f.Date), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set forecast: %w", err)
	}
	return nil
}
