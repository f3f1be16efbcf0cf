package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const leaderKeyPrefix = "leader:"

// LeaderElector grants a time-bounded lease using SET NX with expiry.
type LeaderElector struct {
	client goredis.Cmdable
	owner  string
}

// NewLeaderElector creates an elector that stores owner as the lease value.
func NewLeaderElector(client goredis.Cmdable, owner string) *LeaderElector {
	return &LeaderElector{client: client, owner: owner}
}

// TryAcquire returns true iff this call created the lease key. The lease is
// never renewed and expires after ttl.
func (l *LeaderElector) TryAcquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, leaderKeyPrefix+name, l.owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis: acquire lease %q: %w", name, err)
	}
	return ok, nil
}
