package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/georgemunganga/cardshop-backend/internal/modules/order"
)

// EventPublisher announces completed orders to downstream consumers.
type EventPublisher interface {
	PublishOrderCompleted(ctx context.Context, o *order.Order) error
	Close() error
}

// MessageWriter is the part of *kafka.Writer used by the publisher.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaPublisher struct {
	writer MessageWriter
}

func NewKafkaPublisher(brokers []string, topic string) EventPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Compression:  kafka.Snappy,
	}
	return &kafkaPublisher{writer: writer}
}

// NewEventPublisher wraps an existing writer.
func NewEventPublisher(writer MessageWriter) EventPublisher {
	return &kafkaPublisher{writer: writer}
}

func (p *kafkaPublisher) PublishOrderCompleted(ctx context.Context, o *order.Order) error {
	event := newOrderEvent(o)
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(event.OrderID),
		Value: eventJSON,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write order event to kafka: %w", err)
	}
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}
