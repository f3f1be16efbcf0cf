// Package health reports the status of the service and its backing stores.
package health

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
)

// Status is the state of one component or of the service as a whole.
type Status string

const (
	StatusUp       Status = "up"
	StatusDown     Status = "down"
	StatusDegraded Status = "degraded"
)

// Component is the status of a single dependency.
type Component struct {
	Status  Status `json:"status"`
	Details string `json:"details,omitempty"`
}

// Report is the aggregate health of the service.
type Report struct {
	Status     Status               `json:"status"`
	Components map[string]Component `json:"components"`
	Timestamp  string               `json:"timestamp"`
	Uptime     string               `json:"uptime"`
}

// Pinger is satisfied by the durable store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker pings the database and the cache on demand.
type Checker struct {
	db      Pinger
	cache   goredis.Cmdable
	clock   clockwork.Clock
	started time.Time
	logger  *slog.Logger
}

// NewChecker creates a Checker. Uptime is measured from construction.
func NewChecker(db Pinger, cache goredis.Cmdable, clock clockwork.Clock, logger *slog.Logger) *Checker {
	return &Checker{
		db:      db,
		cache:   cache,
		clock:   clock,
		started: clock.Now(),
		logger:  logger,
	}
}

// Check pings every dependency. The service is down when the database is
// down and degraded when only the cache is.
func (c *Checker) Check(ctx context.Context) Report {
	components := map[string]Component{
		"api":      {Status: StatusUp},
		"database": c.checkDatabase(ctx),
		"cache":    c.checkCache(ctx),
	}

	overall := StatusUp
	switch {
	case components["database"].Status == StatusDown:
		overall = StatusDown
	case components["cache"].Status == StatusDown:
		overall = StatusDegraded
	}

	return Report{
		Status:     overall,
		Components: components,
		Timestamp:  c.clock.Now().UTC().Format(time.RFC3339),
		Uptime:     c.clock.Since(c.started).Round(time.Second).String(),
	}
}

func (c *Checker) checkDatabase(ctx context.Context) Component {
	if err := c.db.Ping(ctx); err != nil {
		c.logger.Error("database health check failed", "error", err)
		return Component{Status: StatusDown, Details: "database connection failed"}
	}
	return Component{Status: StatusUp}
}

func (c *Checker) checkCache(ctx context.Context) Component {
	if err := c.cache.Ping(ctx).Err(); err != nil {
		c.logger.Error("cache health check failed", "error", err)
		return Component{Status: StatusDown, Details: "cache connection failed"}
	}
	return Component{Status: StatusUp}
}
