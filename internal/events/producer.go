package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"example.com/extracurricular/internal/domain"
)

const (
	eventTypeSignedUp = "roster.participant_signed_up"
	eventTypeRemoved  = "roster.participant_removed"
)

// KafkaPublisher writes roster events to Kafka, lazily managing writers per
// topic.
type KafkaPublisher struct {
	brokers []string
	topic   string
	mu      sync.Mutex
	writers map[string]*kafka.Writer
}

// NewKafkaPublisher creates a KafkaPublisher for the given roster topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		brokers: brokers,
		topic:   topic,
		writers: make(map[string]*kafka.Writer),
	}
}

// ParticipantSignedUp implements domain.RosterPublisher.
func (p *KafkaPublisher) ParticipantSignedUp(ctx context.Context, activity domain.Activity, email string) error {
	payload := ParticipantSignedUp{
		EventID:        uuid.NewString(),
		Activity:       activity.Name,
		Email:          email,
		SpotsRemaining: activity.SpotsRemaining(),
		OccurredAt:     time.Now().UTC(),
	}
	return p.publish(ctx, eventTypeSignedUp, activity.Name, payload)
}

// ParticipantRemoved implements domain.RosterPublisher.
func (p *KafkaPublisher) ParticipantRemoved(ctx context.Context, activity domain.Activity, email string) error {
	payload := ParticipantRemoved{
		EventID:        uuid.NewString(),
		Activity:       activity.Name,
		Email:          email,
		SpotsRemaining: activity.SpotsRemaining(),
		OccurredAt:     time.Now().UTC(),
	}
	return p.publish(ctx, eventTypeRemoved, activity.Name, payload)
}

func (p *KafkaPublisher) publish(ctx context.Context, eventType, key string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}
	return p.writerForTopic(p.topic).WriteMessages(ctx, msg)
}

func (p *KafkaPublisher) writerForTopic(topic string) *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if writer, ok := p.writers[topic]; ok {
		return writer
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(p.brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		Async:        false,
	}
	p.writers[topic] = writer
	return writer
}

// Close releases all writers.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for topic, writer := range p.writers {
		if err := writer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.writers, topic)
	}
	return firstErr
}

// NoopPublisher discards roster events. Used when eventing is disabled.
type NoopPublisher struct{}

// ParticipantSignedUp implements domain.RosterPublisher.
func (NoopPublisher) ParticipantSignedUp(ctx context.Context, activity domain.Activity, email string) error {
	return nil
}

// ParticipantRemoved implements domain.RosterPublisher.
func (NoopPublisher) ParticipantRemoved(ctx context.Context, activity domain.Activity, email string) error {
	return nil
}
