package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher writes events to a single topic, one message per
// event, keyed by shop domain.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher for the given brokers and topic.
// The writer dials lazily; a down broker surfaces on first Publish, not
// here.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			WriteTimeout: 10 * time.Second,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", event.Name, err)
	}

	msg := kafka.Message{
		Key:   []byte(event.Shop),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-name", Value: []byte(event.Name)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publishing %s event: %w", event.Name, err)
	}
	return nil
}

// Close flushes buffered messages and releases connections.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
