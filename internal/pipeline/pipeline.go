package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/district-livability-service/internal/domain"
	"github.com/couchcryptid/district-livability-service/internal/observability"
)

// DistrictSource lists the districts to fetch.
type DistrictSource interface {
	List(ctx context.Context) ([]domain.District, error)
}

// WeatherProvider fetches raw hourly series for a coordinate.
type WeatherProvider interface {
	Temperature(ctx context.Context, lat, lon float64) (domain.RawSeries, error)
	AirQuality(ctx context.Context, lat, lon float64) (domain.RawSeries, error)
}

// Publisher delivers a batch event to its consumers.
type Publisher interface {
	Publish(ctx context.Context, event domain.WeatherDataBatchFetched) error
}

// LeaderElector grants a time-bounded exclusive lease.
type LeaderElector interface {
	TryAcquire(ctx context.Context, name string, ttl time.Duration) (bool, error)
}

// ErrCycleSkipped is returned by RunOnce when another instance holds the
// fetch lease for the current cycle.
var ErrCycleSkipped = errors.New("fetch cycle held by another instance")

// Options tunes a fetch cycle. With a LeaseName set, each cycle runs only on
// the instance that acquires the lease for LeaseTTL.
type Options struct {
	TargetUTCHour int
	Concurrency   int
	Interval      time.Duration
	LeaseName     string
	LeaseTTL      time.Duration
}

// Pipeline runs fetch cycles: fetch every district concurrently, reduce each
// to daily facts, and publish one batch event.
type Pipeline struct {
	districts DistrictSource
	provider  WeatherProvider
	publisher Publisher
	elector   LeaderElector
	opts      Options
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
	newID     func() string
}

// New creates a Pipeline with the given collaborators and observability.
// elector may be nil, in which case every call to RunOnce fetches.
func New(districts DistrictSource, provider WeatherProvider, publisher Publisher, elector LeaderElector, opts Options, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Pipeline{
		districts: districts,
		provider:  provider,
		publisher: publisher,
		elector:   elector,
		opts:      opts,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
		newID:     func() string { return uuid.NewString() },
	}
}

// CheckReadiness returns nil once a cycle has completed, either by publishing
// a batch or by yielding to the lease holder.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a fetch cycle yet")
	}
	return nil
}

// Run executes one fetch cycle immediately and then every Interval until the
// context is cancelled. A failed cycle is logged and not retried.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "interval", p.opts.Interval, "concurrency", p.opts.Concurrency)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	ticker := p.clock.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	for {
		if _, err := p.RunOnce(ctx); err != nil {
			switch {
			case ctx.Err() != nil:
				p.logger.Info("pipeline stopping", "reason", ctx.Err())
				return nil
			case errors.Is(err, ErrCycleSkipped):
			default:
				p.logger.Error("fetch cycle failed", "error", err)
			}
		}

		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
		}
	}
}

// RunOnce performs a single fetch cycle and returns the published event.
// Per-district failures drop that district only. If no district produced
// data, RunOnce returns domain.ErrEmptyBatch and publishes nothing. If
// another instance holds the fetch lease it returns ErrCycleSkipped.
func (p *Pipeline) RunOnce(ctx context.Context) (domain.WeatherDataBatchFetched, error) {
	start := p.clock.Now()

	if p.elector != nil && p.opts.LeaseName != "" {
		acquired, err := p.elector.TryAcquire(ctx, p.opts.LeaseName, p.opts.LeaseTTL)
		if err != nil {
			return domain.WeatherDataBatchFetched{}, fmt.Errorf("acquire fetch lease: %w", err)
		}
		if !acquired {
			p.metrics.FetchCyclesSkipped.Inc()
			p.ready.Store(true)
			p.logger.Info("fetch lease held by another instance, skipping cycle", "lease", p.opts.LeaseName)
			return domain.WeatherDataBatchFetched{}, ErrCycleSkipped
		}
	}

	districts, err := p.districts.List(ctx)
	if err != nil {
		return domain.WeatherDataBatchFetched{}, fmt.Errorf("list districts: %w", err)
	}

	results := make([]*domain.DistrictWeatherFacts, len(districts))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)
	for i, d := range districts {
		g.Go(func() error {
			facts, err := p.fetchDistrict(gCtx, d)
			if err != nil {
				p.metrics.DistrictsFailed.Inc()
				p.logger.Warn("district fetch failed, dropping from batch",
					"district_id", d.ID,
					"district", d.Name,
					"error", err,
				)
				// Isolated: siblings keep running.
				return nil
			}
			p.metrics.DistrictsFetched.Inc()
			results[i] = &facts
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return domain.WeatherDataBatchFetched{}, err
	}

	event := domain.WeatherDataBatchFetched{
		BatchID:      p.newID(),
		FetchedAtUTC: p.clock.Now().UTC(),
	}
	for _, r := range results {
		if r != nil {
			event.Districts = append(event.Districts, *r)
		}
	}
	if len(event.Districts) == 0 {
		return domain.WeatherDataBatchFetched{}, domain.ErrEmptyBatch
	}

	if err := p.publisher.Publish(ctx, event); err != nil {
		return domain.WeatherDataBatchFetched{}, fmt.Errorf("publish batch %s: %w", event.BatchID, err)
	}

	p.metrics.BatchesPublished.Inc()
	p.metrics.FetchCycleDuration.Observe(p.clock.Since(start).Seconds())
	p.ready.Store(true)
	p.logger.Info("batch published",
		"batch_id", event.BatchID,
		"districts", len(event.Districts),
		"failed", len(districts)-len(event.Districts),
	)
	return event, nil
}

func (p *Pipeline) fetchDistrict(ctx context.Context, d domain.District) (domain.DistrictWeatherFacts, error) {
	temp, err := p.provider.Temperature(ctx, d.Latitude, d.Longitude)
	if err != nil {
		return domain.DistrictWeatherFacts{}, fmt.Errorf("temperature: %w", err)
	}
	pm, err := p.provider.AirQuality(ctx, d.Latitude, d.Longitude)
	if err != nil {
		return domain.DistrictWeatherFacts{}, fmt.Errorf("air quality: %w", err)
	}

	facts, err := domain.JoinDaily(
		domain.ExtractDaily(temp, p.opts.TargetUTCHour),
		domain.ExtractDaily(pm, p.opts.TargetUTCHour),
	)
	if err != nil {
		return domain.DistrictWeatherFacts{}, err
	}
	return domain.DistrictWeatherFacts{
		DistrictID: d.ID,
		Latitude:   d.Latitude,
		Longitude:  d.Longitude,
		Facts:      facts,
	}, nil
}
