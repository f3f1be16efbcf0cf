package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/district-livability-service/internal/domain"
	"github.com/couchcryptid/district-livability-service/internal/observability"
)

// DistrictLister returns the known districts.
type DistrictLister interface {
	List(ctx context.Context) ([]domain.District, error)
}

// Persister is a batch subscriber that stores every daily fact as a
// forecast and warms the cache for known districts.
type Persister struct {
	store     Store
	cache     Cache
	districts DistrictLister
	ttl       time.Duration
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewPersister creates a Persister.
func NewPersister(store Store, cache Cache, districts DistrictLister, ttl time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Persister {
	return &Persister{store: store, cache: cache, districts: districts, ttl: ttl, logger: logger, metrics: metrics}
}

// HandleBatch upserts the batch's forecasts. Cache hydration is best-effort
// and its failures are only logged.
func (p *Persister) HandleBatch(ctx context.Context, event domain.WeatherDataBatchFetched) error {
	forecasts := domain.ForecastsFromFacts(event.Districts)
	if len(forecasts) == 0 {
		p.logger.Info("batch has no forecasts to persist", "batch_id", event.BatchID)
		return nil
	}

	if err := p.store.UpsertForecasts(ctx, forecasts); err != nil {
		return fmt.Errorf("persist forecasts for batch %s: %w", event.BatchID, err)
	}
	p.metrics.ForecastsStored.Add(float64(len(forecasts)))

	p.hydrate(ctx, event.BatchID, forecasts)
	return nil
}

func (p *Persister) hydrate(ctx context.Context, batchID string, forecasts []domain.DailyDistrictForecast) {
	districts, err := p.districts.List(ctx)
	if err != nil {
		p.logger.Warn("skipping forecast cache hydration", "batch_id", batchID, "error", err)
		return
	}
	known := make(map[int]struct{}, len(districts))
	for _, d := range districts {
		known[d.ID] = struct{}{}
	}

	var cached, failed int
	for _, f := range forecasts {
		if _, ok := known[f.DistrictID]; !ok {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		if err := p.cache.Set(ctx, f, p.ttl); err != nil {
			failed++
			continue
		}
		cached++
	}
	if failed > 0 {
		p.logger.Warn("forecast cache hydration incomplete", "batch_id", batchID, "cached", cached, "failed", failed)
		return
	}
	p.logger.Debug("forecast cache hydrated", "batch_id", batchID, "cached", cached)
}
