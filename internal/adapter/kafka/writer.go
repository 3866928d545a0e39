package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/wireline-recovery-map/internal/config"
	"github.com/couchcryptid/wireline-recovery-map/internal/domain"
)

// Writer publishes recovery snapshots to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured snapshot topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes and writes one snapshot.
func (w *Writer) Publish(ctx context.Context, snapshot domain.RecoverySnapshot) error {
	msg, err := serializeToMessage(snapshot)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write snapshot %s: %w", snapshot.ID, err)
	}
	w.logger.Debug("snapshot published", "snapshot_id", snapshot.ID, "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a RecoverySnapshot into a Kafka message.
func serializeToMessage(snapshot domain.RecoverySnapshot) (kafkago.Message, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize recovery snapshot: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(snapshot.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "loaded_at", Value: []byte(snapshot.LoadedAt.Format(time.RFC3339))},
			{Key: "mappable_sites", Value: []byte(strconv.Itoa(snapshot.Mappable))},
		},
	}, nil
}
