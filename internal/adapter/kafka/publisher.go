// Package kafka publishes confirmed extreme events to an alert topic so
// downstream notifiers can fan them out to users.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/weather-watch/internal/domain"
)

// Publisher produces alert messages. It implements domain.EventPublisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the alert topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish serializes and writes one event to the alert topic.
func (p *Publisher) Publish(ctx context.Context, ev domain.ExtremeEvent) error {
	msg, err := serializeToMessage(ev)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals an ExtremeEvent into a Kafka message keyed by
// location so alerts for one location stay ordered within a partition.
func serializeToMessage(ev domain.ExtremeEvent) (kafkago.Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize extreme event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(fmt.Sprintf("%d", ev.LocationID)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(ev.EventType)},
			{Key: "severity", Value: []byte(ev.Severity)},
			{Key: "created_at", Value: []byte(ev.CreatedAt.Format(time.RFC3339))},
		},
	}, nil
}

var _ domain.EventPublisher = (*Publisher)(nil)
