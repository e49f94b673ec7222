// Package kafka provides a Kafka-backed eventstream publisher using
// segmentio/kafka-go.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/engramlabs/engram/pkg/eventstream"
)

// DefaultTopic is the topic used when none is configured.
const DefaultTopic = "engram.turns"

// Publisher writes turn events to a Kafka topic, keyed by user ID so one
// user's turns land on one partition in order.
type Publisher struct {
	writer *kafkago.Writer
}

// Config holds configuration for the Kafka publisher.
type Config struct {
	// Brokers is the list of broker addresses (host:port).
	Brokers []string

	// Topic is the destination topic. Defaults to DefaultTopic if empty.
	Topic string
}

// NewPublisher creates a Kafka publisher.
func NewPublisher(cfg Config) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one kafka broker is required")
	}
	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	return &Publisher{
		writer: &kafkago.Writer{
			Addr:     kafkago.TCP(cfg.Brokers...),
			Topic:    topic,
			Balancer: &kafkago.Hash{},
		},
	}, nil
}

// PublishTurn serializes the event as JSON and writes it to the topic.
func (p *Publisher) PublishTurn(ctx context.Context, event *eventstream.TurnCompletedEvent) error {
	if event == nil {
		return eventstream.ErrNilTurnEvent
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling turn event: %w", err)
	}

	return p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(event.UserID),
		Value: value,
	})
}

// Close flushes pending writes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
