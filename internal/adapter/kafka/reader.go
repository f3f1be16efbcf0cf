package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/district-livability-service/internal/config"
	"github.com/couchcryptid/district-livability-service/internal/domain"
)

// Dispatcher receives decoded batch events.
type Dispatcher interface {
	Dispatch(ctx context.Context, event domain.WeatherDataBatchFetched)
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Reader consumes batch events and hands them to a Dispatcher. Every message
// is committed after dispatch, including ones that fail to decode, so a
// poison message cannot wedge the group.
type Reader struct {
	reader     messageReader
	dispatcher Dispatcher
	logger     *slog.Logger
}

// NewReader creates a consumer-group reader for the batch topic.
func NewReader(cfg *config.Config, dispatcher Dispatcher, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		GroupID:  cfg.KafkaGroupID,
		Topic:    cfg.KafkaBatchTopic,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})
	return &Reader{reader: r, dispatcher: dispatcher, logger: logger}
}

// Run consumes until ctx is cancelled.
func (r *Reader) Run(ctx context.Context) error {
	r.logger.Info("batch consumer started")

	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		msg, err := r.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				r.logger.Info("batch consumer stopping", "reason", ctx.Err())
				return nil
			}
			r.logger.Error("fetch message failed", "error", err, "retry_in", backoff)
			if !sleepWithContext(ctx, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff, maxBackoff)
			continue
		}
		backoff = 200 * time.Millisecond

		r.handle(ctx, msg)
	}
}

func (r *Reader) handle(ctx context.Context, msg kafkago.Message) {
	event, err := decodeMessage(msg)
	if err != nil {
		r.logger.Warn("undecodable batch message, skipping",
			"error", err,
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
		)
	} else {
		r.dispatcher.Dispatch(ctx, event)
	}

	if err := r.reader.CommitMessages(ctx, msg); err != nil {
		r.logger.Warn("commit offset failed", "error", err,
			"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)
	}
}

func (r *Reader) Close() error {
	return r.reader.Close()
}

// decodeMessage unmarshals a batch event, rejecting other event types.
func decodeMessage(msg kafkago.Message) (domain.WeatherDataBatchFetched, error) {
	for _, h := range msg.Headers {
		if h.Key == "event_type" && string(h.Value) != domain.EventTypeWeatherBatchFetched {
			return domain.WeatherDataBatchFetched{}, fmt.Errorf("unexpected event type %q", h.Value)
		}
	}
	var event domain.WeatherDataBatchFetched
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return domain.WeatherDataBatchFetched{}, fmt.Errorf("decode batch event: %w", err)
	}
	if event.BatchID == "" {
		return domain.WeatherDataBatchFetched{}, errors.New("decode batch event: missing batch_id")
	}
	return event, nil
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
