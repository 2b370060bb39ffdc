package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	publishAttempts = 3
	publishBackoff  = 100 * time.Millisecond
)

// TransportError means a publish exhausted its retries. The caller must
// treat the send as failed; the message was not silently dropped.
type TransportError struct {
	Topic string
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: publish to %s failed after %d attempts: %v", e.Topic, publishAttempts, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// KafkaWriter abstracts the underlying Kafka writer
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes JSON payloads to one topic. Writes block until the
// broker acknowledges the message on all replicas.
type Producer struct {
	writer KafkaWriter
	logger *zap.Logger
	topic  string
}

func NewProducer(brokers []string, topic string, logger *zap.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:  kafka.TCP(brokers...),
		Topic: topic,
		// Hash balancer: same key always lands on the same partition,
		// which is what gives per-symbol / per-user ordering
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchSize:    1,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Producer{writer: writer, logger: logger, topic: topic}
}

// NewProducerWithWriter injects a writer (used by tests).
func NewProducerWithWriter(writer KafkaWriter, topic string, logger *zap.Logger) *Producer {
	return &Producer{writer: writer, logger: logger, topic: topic}
}

// Publish serializes value and writes it under the given partition key,
// retrying transient failures with a fixed backoff. Exhausted retries
// surface as a *TransportError.
func (p *Producer) Publish(ctx context.Context, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("transport: marshal for %s: %w", p.topic, err)
	}

	msg := kafka.Message{Key: []byte(key), Value: payload}

	var lastErr error
	for attempt := 1; attempt <= publishAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(publishBackoff):
			case <-ctx.Done():
				return &TransportError{Topic: p.topic, Err: ctx.Err()}
			}
		}

		lastErr = p.writer.WriteMessages(ctx, msg)
		if lastErr == nil {
			p.logger.Debug("Published", zap.String("topic", p.topic), zap.String("key", key))
			return nil
		}

		p.logger.Warn("Publish attempt failed",
			zap.String("topic", p.topic),
			zap.String("key", key),
			zap.Int("attempt", attempt),
			zap.Error(lastErr))
	}

	return &TransportError{Topic: p.topic, Err: lastErr}
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
