// Package travel answers "should I travel from here to district X on date D".
package travel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/district-livability-service/internal/domain"
	"github.com/couchcryptid/district-livability-service/internal/observability"
)

// SourceResolver maps coordinates to a district.
type SourceResolver interface {
	Resolve(ctx context.Context, lat, lon float64) (domain.SourceDistrictResolutionResult, error)
}

// DestinationDirectory finds a destination by id or name.
type DestinationDirectory interface {
	ByID(ctx context.Context, id int) (domain.District, error)
	ByName(ctx context.Context, name string) (domain.District, error)
}

// ForecastLookup returns one district's forecast for a date.
type ForecastLookup interface {
	Get(ctx context.Context, districtID int, date time.Time) (domain.ForecastLookupResult, error)
}

// Destination is either a district id or a district name.
type Destination struct {
	ID   *int
	Name string
}

// DestinationID builds an id destination.
func DestinationID(id int) Destination { return Destination{ID: &id} }

// DestinationName builds a name destination.
func DestinationName(name string) Destination { return Destination{Name: name} }

// Request is a recommendation query.
type Request struct {
	Latitude    float64
	Longitude   float64
	Destination Destination
	TravelDate  time.Time
}

// Orchestrator combines source resolution, forecast lookup and comparison.
type Orchestrator struct {
	resolver    SourceResolver
	directory   DestinationDirectory
	forecasts   ForecastLookup
	horizonDays int
	clock       clockwork.Clock
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// NewOrchestrator creates an Orchestrator. Travel dates later than
// horizonDays after today are out of range.
func NewOrchestrator(
	resolver SourceResolver,
	directory DestinationDirectory,
	forecasts ForecastLookup,
	horizonDays int,
	clock clockwork.Clock,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Orchestrator {
	return &Orchestrator{
		resolver:    resolver,
		directory:   directory,
		forecasts:   forecasts,
		horizonDays: horizonDays,
		clock:       clock,
		logger:      logger,
		metrics:     metrics,
	}
}

// Recommend answers req. Domain failures come back as a not-recommended
// result with zero deltas and a reason code; the error is reserved for
// infrastructure faults.
func (o *Orchestrator) Recommend(ctx context.Context, req Request) (domain.TravelRecommendationResult, error) {
	res, err := o.recommend(ctx, req)
	if err != nil {
		return domain.TravelRecommendationResult{}, err
	}
	o.metrics.Recommendations.WithLabelValues(res.ReasonCode.String()).Inc()
	return res, nil
}

// Describe renders res using the configured forecast horizon.
func (o *Orchestrator) Describe(res domain.TravelRecommendationResult) string {
	return Describe(res, o.horizonDays)
}

func (o *Orchestrator) recommend(ctx context.Context, req Request) (domain.TravelRecommendationResult, error) {
	source, err := o.resolver.Resolve(ctx, req.Latitude, req.Longitude)
	if err != nil {
		return domain.TravelRecommendationResult{}, err
	}
	if !source.Found {
		return domain.Rejected(domain.ReasonInvalidSourceDistrict), nil
	}

	dest, err := o.resolveDestination(ctx, req.Destination)
	if errors.Is(err, domain.ErrDistrictNotFound) {
		return domain.Rejected(domain.ReasonInvalidDestinationDistrict), nil
	}
	if err != nil {
		return domain.TravelRecommendationResult{}, err
	}

	if source.DistrictID == dest.ID {
		return domain.Rejected(domain.ReasonSameSourceAndDestination), nil
	}

	date := domain.DateOf(req.TravelDate)
	today := domain.Today(o.clock)
	if date.Before(today) || date.After(today.AddDate(0, 0, o.horizonDays)) {
		return domain.Rejected(domain.ReasonDateOutOfRange), nil
	}

	from, err := o.forecasts.Get(ctx, source.DistrictID, date)
	if err != nil {
		return domain.TravelRecommendationResult{}, fmt.Errorf("source forecast: %w", err)
	}
	to, err := o.forecasts.Get(ctx, dest.ID, date)
	if err != nil {
		return domain.TravelRecommendationResult{}, fmt.Errorf("destination forecast: %w", err)
	}
	if !from.Found || !to.Found {
		o.logger.Info("forecast missing for recommendation",
			"source_district_id", source.DistrictID,
			"destination_district_id", dest.ID,
			"date", date.Format(domain.DateLayout),
			"source_found", from.Found,
			"destination_found", to.Found,
		)
		return domain.Rejected(domain.ReasonInsufficientData), nil
	}

	return domain.Compare(from.Forecast, to.Forecast), nil
}

func (o *Orchestrator) resolveDestination(ctx context.Context, d Destination) (domain.District, error) {
	if d.ID != nil {
		return o.directory.ByID(ctx, *d.ID)
	}
	return o.directory.ByName(ctx, d.Name)
}
