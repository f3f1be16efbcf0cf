package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/couchcryptid/district-livability-service/internal/domain"
)

const leaderboardKey = "leaderboard:current"

// LeaderboardStore publishes the ranked projection as one JSON value so a
// replace is a single atomic SET and readers see either the old or the new
// set in full.
type LeaderboardStore struct {
	client goredis.Cmdable
}

// NewLeaderboardStore creates a leaderboard store over client.
func NewLeaderboardStore(client goredis.Cmdable) *LeaderboardStore {
	return &LeaderboardStore{client: client}
}

// Replace supersedes the published leaderboard with ranked.
func (s *LeaderboardStore) Replace(ctx context.Context, ranked []domain.RankedDistrict) error {
	if ranked == nil {
		ranked = []domain.RankedDistrict{}
	}
	raw, err := json.Marshal(ranked)
	if err != nil {
		return fmt.Errorf("redis: encode leaderboard: %w", err)
	}
	if err := s.client.Set(ctx, leaderboardKey, raw, 0).Err(); err != nil {
		return fmt.Errorf("redis: replace leaderboard: %w", err)
	}
	return nil
}

// Top returns the first count ranked districts. It returns
// domain.ErrLeaderboardNotReady when nothing has been published yet.
func (s *LeaderboardStore) Top(ctx context.Context, count int) ([]domain.RankedDistrict, error) {
	raw, err := s.client.Get(ctx, leaderboardKey).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, domain.ErrLeaderboardNotReady
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get leaderboard: %w", err)
	}

	var ranked []domain.RankedDistrict
	if err := json.Unmarshal(raw, &ranked); err != nil {
		return nil, fmt.Errorf("redis: decode leaderboard: %w", err)
	}
	if count >= 0 && count < len(ranked) {
		ranked = ranked[:count]
	}
	if ranked == nil {
		ranked = []domain.RankedDistrict{}
	}
	return ranked, nil
}
