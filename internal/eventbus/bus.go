// Package eventbus fans a published batch event out to every subscriber,
// each inside its own failure boundary.
package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/couchcryptid/district-livability-service/internal/domain"
	"github.com/couchcryptid/district-livability-service/internal/observability"
)

// Handler consumes one batch event.
type Handler func(ctx context.Context, event domain.WeatherDataBatchFetched) error

type subscriber struct {
	name    string
	handler Handler
}

// Bus delivers events to subscribers sequentially in subscription order.
// A failing or panicking subscriber is logged and does not affect the others
// or the publisher. Failed deliveries are not retried.
type Bus struct {
	mu      sync.RWMutex
	subs    []subscriber
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates an empty Bus.
func New(logger *slog.Logger, metrics *observability.Metrics) *Bus {
	return &Bus{logger: logger, metrics: metrics}
}

// Subscribe registers h under name.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, subscriber{name: name, handler: h})
}

// Publish dispatches event in-process. It never returns a subscriber error.
func (b *Bus) Publish(ctx context.Context, event domain.WeatherDataBatchFetched) error {
	b.Dispatch(ctx, event)
	return nil
}

// Dispatch invokes every subscriber with event.
func (b *Bus) Dispatch(ctx context.Context, event domain.WeatherDataBatchFetched) {
	b.mu.RLock()
	subs := make([]subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		if err := invoke(ctx, s, event); err != nil {
			b.metrics.EventsConsumed.WithLabelValues(s.name, "error").Inc()
			b.logger.Error("subscriber failed",
				"subscriber", s.name,
				"batch_id", event.BatchID,
				"error", err,
			)
			continue
		}
		b.metrics.EventsConsumed.WithLabelValues(s.name, "ok").Inc()
	}
}

func invoke(ctx context.Context, s subscriber, event domain.WeatherDataBatchFetched) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.handler(ctx, event)
}
