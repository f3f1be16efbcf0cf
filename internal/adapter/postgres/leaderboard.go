package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/couchcryptid/district-livability-service/internal/domain"
)

const insertLeaderboardSQL = `
	INSERT INTO leaderboard_snapshots (generated_at, payload)
	VALUES ($1, $2)
`

// AppendLeaderboard records a published leaderboard in the history table.
func (s *Store) AppendLeaderboard(ctx context.Context, generatedAt time.Time, ranked []domain.RankedDistrict) error {
	payload, err := json.Marshal(ranked)
	if err != nil {
		return fmt.Errorf("postgres: failed to encode leaderboard: %w", err)
	}
	if _, err := s.db.Exec(ctx, insertLeaderboardSQL, generatedAt.UTC(), payload); err != nil {
		return fmt.Errorf("postgres: failed to append leaderboard: %w", err)
	}
	return nil
}
