package postgres

import (
	"context"
	"fmt"

	"github.com/couchcryptid/district-livability-service/internal/domain"
)

// ListDistricts returns the full directory ordered by id.
func (s *Store) ListDistricts(ctx context.Context) ([]domain.District, error) {
	query := `
		SELECT id, name, latitude, longitude
		FROM districts
		ORDER BY id
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query districts: %w", err)
	}
	defer rows.Close()

	var districts []domain.District
	for rows.Next() {
		var d domain.District
		if err := rows.Scan(&d.ID, &d.Name, &d.Latitude, &d.Longitude); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan district row: %w", err)
		}
		districts = append(districts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to iterate districts: %w", err)
	}
	return districts, nil
}
