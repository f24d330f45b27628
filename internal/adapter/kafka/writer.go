package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/nxny-map-etl/internal/domain"
)

// messageWriter is the subset of kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher produces one message per region to a Kafka topic.
// It implements pipeline.Publisher.
type Publisher struct {
	writer    messageWriter
	batchSize int
	logger    *slog.Logger
}

// NewPublisher creates a Kafka producer for topic.
func NewPublisher(brokers []string, topic string, batchSize int, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return newPublisher(w, batchSize, logger)
}

func newPublisher(w messageWriter, batchSize int, logger *slog.Logger) *Publisher {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &Publisher{writer: w, batchSize: batchSize, logger: logger}
}

func (p *Publisher) Name() string { return "kafka" }

// Publish writes the map in map order, batchSize messages per WriteMessages
// call. Messages are keyed by region so a compacted topic keeps the latest
// cell per region.
func (p *Publisher) Publish(ctx context.Context, snap domain.Snapshot) error {
	entries := snap.Map.Entries()
	for start := 0; start < len(entries); start += p.batchSize {
		end := min(start+p.batchSize, len(entries))
		msgs := make([]kafkago.Message, 0, end-start)
		for _, e := range entries[start:end] {
			msg, err := serializeToMessage(e, snap.RunID, snap.ExtractedAt)
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}
		if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
			return fmt.Errorf("write messages %d-%d: %w", start, end, err)
		}
		p.logger.Debug("kafka batch written", "offset", start, "count", len(msgs))
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

type gridMessage struct {
	Region string `json:"region"`
	NX     int    `json:"nx"`
	NY     int    `json:"ny"`
}

// serializeToMessage marshals a map entry into a Kafka message.
func serializeToMessage(e domain.Entry, runID string, extractedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(gridMessage{Region: e.Region, NX: e.Coord.NX, NY: e.Coord.NY})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize region %q: %w", e.Region, err)
	}
	return kafkago.Message{
		Key:   []byte(e.Region),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(runID)},
			{Key: "extracted_at", Value: []byte(extractedAt.Format(time.RFC3339))},
		},
	}, nil
}
