// Package ranking turns fetched batches into the published leaderboard.
package ranking

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

// LeaderElector grants a time-bounded exclusive lease.
type LeaderElector interface {
	TryAcquire(ctx context.Context, name string, ttl time.Duration) (bool, error)
}

// SnapshotStore persists daily snapshots keyed by (district, date).
type SnapshotStore interface {
	UpsertSnapshots(ctx context.Context, snapshots []domain.DistrictWeatherSnapshot) error
}

// DistrictLister returns the known districts.
type DistrictLister interface {
	List(ctx context.Context) ([]domain.District, error)
}

// LeaderboardStore holds the published projection. Replace must be atomic.
type LeaderboardStore interface {
	Replace(ctx context.Context, ranked []domain.RankedDistrict) error
	Top(ctx context.Context, count int) ([]domain.RankedDistrict, error)
}

// HistoryStore records each published leaderboard.
type HistoryStore interface {
	AppendLeaderboard(ctx context.Context, generatedAt time.Time, ranked []domain.RankedDistrict) error
}

// Lease identifies the ranking lease.
type Lease struct {
	Name string
	TTL  time.Duration
}

// Ranker handles batch events under a lease and publishes the leaderboard.
type Ranker struct {
	elector     LeaderElector
	snapshots   SnapshotStore
	districts   DistrictLister
	leaderboard LeaderboardStore
	history     HistoryStore
	lease       Lease
	clock       clockwork.Clock
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// New creates a Ranker. history may be nil.
func New(
	elector LeaderElector,
	snapshots SnapshotStore,
	districts DistrictLister,
	leaderboard LeaderboardStore,
	history HistoryStore,
	lease Lease,
	clock clockwork.Clock,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Ranker {
	return &Ranker{
		elector:     elector,
		snapshots:   snapshots,
		districts:   districts,
		leaderboard: leaderboard,
		history:     history,
		lease:       lease,
		clock:       clock,
		logger:      logger,
		metrics:     metrics,
	}
}

// HandleBatch ranks the districts in event. Losing the lease is a normal
// outcome and returns nil without side effects. Snapshots are persisted
// before the leaderboard is replaced; a cancelled run leaves the previous
// leaderboard in place.
func (r *Ranker) HandleBatch(ctx context.Context, event domain.WeatherDataBatchFetched) error {
	log := r.logger.With("batch_id", event.BatchID)

	acquired, err := r.elector.TryAcquire(ctx, r.lease.Name, r.lease.TTL)
	if err != nil {
		r.metrics.RankingRuns.WithLabelValues("error").Inc()
		return fmt.Errorf("acquire ranking lease: %w", err)
	}
	if !acquired {
		r.metrics.RankingRuns.WithLabelValues("skipped").Inc()
		log.Info("ranking lease held elsewhere, skipping batch", "lease", r.lease.Name)
		return nil
	}

	snapshots := buildSnapshots(event)
	if len(snapshots) == 0 {
		r.metrics.RankingRuns.WithLabelValues("empty").Inc()
		log.Info("batch has no district facts, nothing to rank")
		return nil
	}

	ranked, err := r.rank(ctx, snapshots)
	if err != nil {
		r.metrics.RankingRuns.WithLabelValues("error").Inc()
		return err
	}

	r.metrics.RankingRuns.WithLabelValues("ranked").Inc()
	log.Info("leaderboard published", "districts", len(ranked))

	if r.history != nil {
		if err := r.history.AppendLeaderboard(ctx, r.clock.Now().UTC(), ranked); err != nil {
			log.Warn("leaderboard history append failed", "error", err)
		}
	}
	return nil
}

func (r *Ranker) rank(ctx context.Context, snapshots []domain.DistrictWeatherSnapshot) ([]domain.RankedDistrict, error) {
	if err := r.snapshots.UpsertSnapshots(ctx, snapshots); err != nil {
		return nil, fmt.Errorf("persist snapshots: %w", err)
	}

	districts, err := r.districts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load districts: %w", err)
	}

	ranked := domain.RankSnapshots(snapshots, districts)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("ranking cancelled before publish: %w", err)
	}
	if err := r.leaderboard.Replace(ctx, ranked); err != nil {
		return nil, fmt.Errorf("publish leaderboard: %w", err)
	}
	return ranked, nil
}

// TopDistricts returns the first count entries of the published leaderboard.
// It returns domain.ErrLeaderboardNotReady before the first publish.
func (r *Ranker) TopDistricts(ctx context.Context, count int) ([]domain.RankedDistrict, error) {
	ranked, err := r.leaderboard.Top(ctx, count)
	if err != nil {
		if errors.Is(err, domain.ErrLeaderboardNotReady) {
			return nil, err
		}
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}
	return ranked, nil
}

// buildSnapshots averages each district's facts into one snapshot, skipping
// districts without facts.
func buildSnapshots(event domain.WeatherDataBatchFetched) []domain.DistrictWeatherSnapshot {
	snapshots := make([]domain.DistrictWeatherSnapshot, 0, len(event.Districts))
	for _, d := range event.Districts {
		snap, err := domain.AverageSnapshot(d.DistrictID, d.Facts)
		if err != nil {
			continue
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots
}
