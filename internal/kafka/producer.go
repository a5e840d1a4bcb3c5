package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// TicketEvent is the single event envelope published for order and ticket
// lifecycle changes. Type is one of: order_created, order_paid,
// order_expired, checkin_completed, ticket_rescheduled, ticket_refunded.
type TicketEvent struct {
	Type         string    `json:"type"`
	TicketNumber string    `json:"ticket_number,omitempty"`
	OrderNumber  string    `json:"order_number,omitempty"`
	FlightID     int64     `json:"flight_id,omitempty"`
	SeatNumber   string    `json:"seat_number,omitempty"`
	Email        string    `json:"email,omitempty"`
	Status       string    `json:"status"`
	OccurredAt   time.Time `json:"occurred_at"`
}

type Producer struct {
	brokers []string
	writer  *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	return &Producer{
		brokers: brokers,
		writer:  writer,
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}
	return nil
}

func (p *Producer) PublishWithRetry(ctx context.Context, topic, key string, payload interface{}, maxRetries int) error {
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		if err := p.Publish(ctx, topic, key, payload); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if i < maxRetries-1 {
			time.Sleep(time.Duration(i+1) * 500 * time.Millisecond)
		}
	}

	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

// RetryPublisher wraps a Producer so every Publish call retries transient
// broker failures before giving up.
type RetryPublisher struct {
	producer   *Producer
	maxRetries int
}

func NewRetryPublisher(producer *Producer, maxRetries int) *RetryPublisher {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &RetryPublisher{
		producer:   producer,
		maxRetries: maxRetries,
	}
}

func (r *RetryPublisher) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	return r.producer.PublishWithRetry(ctx, topic, key, payload, r.maxRetries)
}

func (r *RetryPublisher) Close() error {
	return r.producer.Close()
}
