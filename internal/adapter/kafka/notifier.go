package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/quake-data-ingest/internal/config"
	"github.com/couchcryptid/quake-data-ingest/internal/domain"
)

// Notifier publishes landed-object markers to a Kafka topic so downstream
// consumers can react to new raw partitions without polling the bucket.
// It implements ingest.Notifier.
type Notifier struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewNotifier creates a Kafka producer for the configured topic.
func NewNotifier(cfg *config.Config, logger *slog.Logger) *Notifier {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Notifier{writer: w, logger: logger}
}

// NotifyIngested publishes a single landed-object notice.
func (n *Notifier) NotifyIngested(ctx context.Context, notice domain.IngestionNotice) error {
	msg, err := serializeToMessage(notice)
	if err != nil {
		return err
	}
	return n.writer.WriteMessages(ctx, msg)
}

func (n *Notifier) Close() error {
	return n.writer.Close()
}

// serializeToMessage marshals a notice into a Kafka message. The start
// date keys the message so per-interval notices land in a stable
// partition order.
func serializeToMessage(notice domain.IngestionNotice) (kafkago.Message, error) {
	data, err := json.Marshal(notice)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize ingestion notice: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(notice.StartDate),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "layer", Value: []byte(notice.Layer)},
			{Key: "source", Value: []byte(notice.Source)},
			{Key: "completed_at", Value: []byte(notice.CompletedAt.Format(time.RFC3339))},
		},
	}, nil
}
