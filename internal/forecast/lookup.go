// Package forecast serves per-district daily forecasts cache-aside and
// persists the forecasts carried by each fetched batch.
package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/district-livability-service/internal/domain"
	"github.com/couchcryptid/district-livability-service/internal/observability"
)

// Cache is the fast, possibly stale, forecast copy.
type Cache interface {
	Get(ctx context.Context, districtID int, date time.Time) (domain.DailyDistrictForecast, bool, error)
	Set(ctx context.Context, f domain.DailyDistrictForecast, ttl time.Duration) error
}

// Store is the authoritative forecast table.
type Store interface {
	GetForecast(ctx context.Context, districtID int, date time.Time) (domain.DailyDistrictForecast, bool, error)
	UpsertForecasts(ctx context.Context, forecasts []domain.DailyDistrictForecast) error
}

// Lookup reads forecasts cache-aside. Cache failures never fail a lookup.
type Lookup struct {
	cache   Cache
	store   Store
	ttl     time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewLookup creates a Lookup that hydrates the cache with ttl on store hits.
func NewLookup(cache Cache, store Store, ttl time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Lookup {
	return &Lookup{cache: cache, store: store, ttl: ttl, logger: logger, metrics: metrics}
}

// Get returns the forecast for a district and date. A store error is the
// only failure; a missing row is NotFound.
func (l *Lookup) Get(ctx context.Context, districtID int, date time.Time) (domain.ForecastLookupResult, error) {
	date = domain.DateOf(date)

	cached, found, err := l.cache.Get(ctx, districtID, date)
	switch {
	case err != nil:
		l.metrics.ForecastCache.WithLabelValues("error").Inc()
		l.logger.Warn("forecast cache read failed",
			"district_id", districtID,
			"date", date.Format(domain.DateLayout),
			"error", err,
		)
	case found:
		l.metrics.ForecastCache.WithLabelValues("hit").Inc()
		return domain.ForecastFound(cached), nil
	default:
		l.metrics.ForecastCache.WithLabelValues("miss").Inc()
	}

	stored, found, err := l.store.GetForecast(ctx, districtID, date)
	if err != nil {
		return domain.ForecastNotFound(), fmt.Errorf("get forecast for district %d: %w", districtID, err)
	}
	if !found {
		return domain.ForecastNotFound(), nil
	}

	if err := l.cache.Set(ctx, stored, l.ttl); err != nil {
		l.logger.Warn("forecast cache write failed",
			"district_id", districtID,
			"date", date.Format(domain.DateLayout),
			"error", err,
		)
	}
	return domain.ForecastFound(stored), nil
}
