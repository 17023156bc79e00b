package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/quakehub/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Header keys attached to every published event.
const (
	HeaderSource      = "source"
	HeaderCycleID     = "cycle_id"
	HeaderRefreshedAt = "refreshed_at"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes refreshed snapshots to a Kafka topic, one message per event.
// It implements pipeline.Publisher.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish writes every event in snap in a single WriteMessages call. Keys are
// event IDs so all revisions of an event land on the same partition.
func (w *Writer) Publish(ctx context.Context, snap domain.Snapshot) error {
	if len(snap.Events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(snap.Events))
	for i := range snap.Events {
		msg, err := serializeToMessage(snap.Events[i], snap)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d events: %w", len(msgs), err)
	}
	w.logger.Debug("snapshot published", "cycle_id", snap.CycleID, "events", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an event into a Kafka message tagged with its snapshot.
func serializeToMessage(event domain.Event, snap domain.Snapshot) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize event %s: %w", event.ID, err)
	}
	return kafkago.Message{
		Key:   []byte(event.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: HeaderSource, Value: []byte(event.Source)},
			{Key: HeaderCycleID, Value: []byte(snap.CycleID)},
			{Key: HeaderRefreshedAt, Value: []byte(snap.RefreshedAt.Format(time.RFC3339))},
		},
	}, nil
}
