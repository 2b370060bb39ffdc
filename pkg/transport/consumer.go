package transport

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Handler processes one consumed message. A non-nil error is logged and the
// message is still considered handled; the loop moves on. There is no
// dead-letter retry, so a failing message's side effects are lost.
type Handler func(ctx context.Context, msg kafka.Message) error

// KafkaReader abstracts the underlying group reader
type KafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer joins a consumer group and delivers messages to a handler one at
// a time, in per-partition arrival order. A slow handler throttles
// consumption; that is the pipeline's backpressure mechanism.
type Consumer struct {
	reader  KafkaReader
	logger  *zap.Logger
	topic   string
	groupID string
}

func NewConsumer(brokers []string, topic, groupID string, logger *zap.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  200 * time.Millisecond,
		// Rebalancing: 3s heartbeat, 10s session timeout for responsive scaling
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    10 * time.Second,
	})
	return &Consumer{reader: reader, logger: logger, topic: topic, groupID: groupID}
}

// NewConsumerWithReader injects a reader (used by tests).
func NewConsumerWithReader(reader KafkaReader, topic, groupID string, logger *zap.Logger) *Consumer {
	return &Consumer{reader: reader, topic: topic, groupID: groupID, logger: logger}
}

// Run blocks consuming messages until ctx is cancelled or the reader is
// closed. The offset is committed after every delivery attempt, handler
// success or not: a handler error never stalls the partition, and a crash
// before commit redelivers (at-least-once).
func (c *Consumer) Run(ctx context.Context, handler Handler) error {
	c.logger.Info("Consumer started",
		zap.String("topic", c.topic),
		zap.String("group_id", c.groupID))

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.EOF) {
				c.logger.Info("Consumer stopping", zap.String("topic", c.topic))
				return nil
			}
			c.logger.Error("Kafka fetch error", zap.String("topic", c.topic), zap.Error(err))
			continue
		}

		if err := handler(ctx, msg); err != nil {
			c.logger.Error("Handler error, message dropped",
				zap.String("topic", c.topic),
				zap.String("key", string(msg.Key)),
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			c.logger.Error("Commit error", zap.String("topic", c.topic), zap.Error(err))
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
