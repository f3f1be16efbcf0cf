package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/couchcryptid/district-livability-service/internal/domain"
)

const upsertForecastSQL = `
	INSERT INTO daily_district_forecasts (district_id, date, temp_2pm, pm25_2pm)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (district_id, date) DO UPDATE
	SET temp_2pm = EXCLUDED.temp_2pm, pm25_2pm = EXCLUDED.pm25_2pm
`

const getForecastSQL = `
	SELECT district_id, date, temp_2pm, pm25_2pm
	FROM daily_district_forecasts
	WHERE district_id = $1 AND date = $2
`

// UpsertForecasts writes per-day forecasts keyed by (district_id, date) in
// one transaction.
func (s *Store) UpsertForecasts(ctx context.Context, forecasts []domain.DailyDistrictForecast) error {
	if len(forecasts) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx pgx.Tx) error {
		for _, f := range forecasts {
			_, err := tx.Exec(ctx, upsertForecastSQL,
				f.DistrictID, domain.DateOf(f.Date), f.Temp2PM, f.PM25At2PM,
			)
			if err != nil {
				return fmt.Errorf("postgres: failed to upsert forecast for district %d: %w", f.DistrictID, err)
			}
		}
		return nil
	})
}

// GetForecast returns the stored forecast for a district and date. found is
// false when no row exists.
func (s *Store) GetForecast(ctx context.Context, districtID int, date time.Time) (domain.DailyDistrictForecast, bool, error) {
	var f domain.DailyDistrictForecast
	err := s.db.QueryRow(ctx, getForecastSQL, districtID, domain.DateOf(date)).
		Scan(&f.DistrictID, &f.Date, &f.Temp2PM, &f.PM25At2PM)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.DailyDistrictForecast{}, false, nil
	}
	if err != nil {
		return domain.DailyDistrictForecast{}, false, fmt.Errorf("postgres: failed to get forecast: %w", err)
	}
	f.Date = domain.DateOf(f.Date)
	return f, true, nil
}
