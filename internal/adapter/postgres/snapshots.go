package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/couchcryptid/district-livability-service/internal/domain"
)

const upsertSnapshotSQL = `
	INSERT INTO district_weather_snapshots (district_id, date, temp_2pm, pm25_2pm)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (district_id, date) DO UPDATE
	SET temp_2pm = EXCLUDED.temp_2pm, pm25_2pm = EXCLUDED.pm25_2pm
`

// UpsertSnapshots writes snapshots keyed by (district_id, date) in one
// transaction. Re-running with the same keys overwrites the values.
func (s *Store) UpsertSnapshots(ctx context.Context, snapshots []domain.DistrictWeatherSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx pgx.Tx) error {
		for _, snap := range snapshots {
			_, err := tx.Exec(ctx, upsertSnapshotSQL,
				snap.DistrictID, domain.DateOf(snap.Date), snap.Temp2PM, snap.PM25At2PM,
			)
			if err != nil {
				return fmt.Errorf("postgres: failed to upsert snapshot for district %d: %w", snap.DistrictID, err)
			}
		}
		return nil
	})
}
