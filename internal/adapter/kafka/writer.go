package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/notam-airspace-etl/internal/config"
	"github.com/couchcryptid/notam-airspace-etl/internal/domain"
	"github.com/couchcryptid/notam-airspace-etl/internal/projector"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes stored restrictions as GeoJSON features.
// It implements pipeline.Publisher.
type Writer struct {
	writer    *kafkago.Writer
	projector *projector.Projector
	logger    *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, proj *projector.Projector, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, projector: proj, logger: logger}
}

// PublishBatch serializes and publishes the records to the sink topic in a
// single WriteMessages call.
func (w *Writer) PublishBatch(ctx context.Context, records []domain.AirspaceRestriction) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := w.serializeToMessage(records[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage renders a restriction as a GeoJSON Feature message keyed
// by notice ID, or by store ID for notices without one.
func (w *Writer) serializeToMessage(r domain.AirspaceRestriction) (kafkago.Message, error) {
	data, err := json.Marshal(w.projector.Feature(r))
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize restriction %d: %w", r.ID, err)
	}
	key := r.NoticeID
	if key == "" {
		key = strconv.FormatInt(r.ID, 10)
	}
	return kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "category", Value: []byte(r.Category)},
			{Key: "stored_at", Value: []byte(r.CreatedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
