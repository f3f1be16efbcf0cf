package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/district-livability-service/internal/config"
	"github.com/couchcryptid/district-livability-service/internal/domain"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes batch events to the batch topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured batch topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaBatchTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes event and writes it as a single message keyed by batch id.
func (w *Writer) Publish(ctx context.Context, event domain.WeatherDataBatchFetched) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: publish batch %s: %w", event.BatchID, err)
	}
	w.logger.Debug("batch published", "batch_id", event.BatchID, "districts", len(event.Districts))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a batch event into a Kafka message.
func serializeToMessage(event domain.WeatherDataBatchFetched) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize batch event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.BatchID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(domain.EventTypeWeatherBatchFetched)},
			{Key: "fetched_at", Value: []byte(event.FetchedAtUTC.UTC().Format(time.RFC3339))},
		},
	}, nil
}
