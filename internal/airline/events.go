// Booking lifecycle events, published to Kafka when a broker is configured.
package airline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// DefaultBookingTopic is the topic booking lifecycle events are published to.
const DefaultBookingTopic = "farebot.bookings"

// BookingEvent is the payload published for booking lifecycle changes.
type BookingEvent struct {
	Type         string    `json:"type"`
	BookingID    string    `json:"booking_id"`
	PNR          string    `json:"pnr"`
	FlightID     string    `json:"flight_id"`
	Passengers   int       `json:"passengers"`
	ContactPhone string    `json:"contact_phone"`
	Status       string    `json:"status"`
	Time         time.Time `json:"time"`
}

// EventPublisher delivers booking events to an external stream.
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, payload any) error
	Close() error
}

// KafkaPublisher implements EventPublisher on top of a kafka-go writer.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher for the given broker addresses.
func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	slog.Debug("airline.NewKafkaPublisher: writer configured", "brokers", brokers)
	return &KafkaPublisher{writer: writer}
}

// Publish marshals the payload and writes one message to the topic.
func (p *KafkaPublisher) Publish(ctx context.Context, topic, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal booking event: %w", err)
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write booking event to %s: %w", topic, err)
	}

	slog.Debug("airline.KafkaPublisher: event published", "topic", topic, "key", key)
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
