// Package kafka wraps segmentio/kafka-go for the document event stream. The
// producer writes JSON values keyed by document id so every event for one
// document lands on the same partition, and the consumer hands decoded
// messages to a MessageHandler with bounded retries.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/resilience"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// ErrPoison marks a message that can never be processed. The consumer commits
// it without retrying.
var ErrPoison = errors.New("poison message")

// MessageHandler is a callback invoked for each Kafka message.
type MessageHandler func(ctx context.Context, key []byte, value []byte) error

// Consumer reads messages from a Kafka topic and dispatches them to a
// MessageHandler.
type Consumer struct {
	reader  *kafka.Reader
	logger  *slog.Logger
	handler MessageHandler
	retry   resilience.RetryConfig
}

// InstanceGroup derives a consumer group no other process shares. Kafka
// only honours a reader's start offset for a group without committed
// offsets, and a shared group would split the topic's partitions between
// processes that each need every message.
func InstanceGroup(base string) string {
	return base + "-" + uuid.NewString()
}

// NewConsumer creates a Consumer for topic in consumer group groupID.
// fromStart makes a group without committed offsets begin at the oldest
// retained offset instead of the newest.
func NewConsumer(cfg config.KafkaConfig, topic, groupID string, fromStart bool, handler MessageHandler) *Consumer {
	r := kafka.NewReader(readerConfig(cfg, topic, groupID, fromStart))
	return &Consumer{
		reader:  r,
		logger:  slog.Default().With("component", "kafka-consumer", "topic", topic),
		handler: handler,
		retry:   resilience.RetryConfig{MaxAttempts: 3},
	}
}

// Start enters the consume loop and blocks until ctx is cancelled. Messages
// are committed once handled, skipped as poison, or out of retries.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started")
	defer c.reader.Close()
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping", "reason", ctx.Err())
				return nil
			}
			c.logger.Error("failed to fetch message", "error", err)
			continue
		}
		c.logger.Debug("message received",
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
		)
		if err := c.handle(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("dropping message",
				"partition", msg.Partition,
				"offset", msg.Offset,
				"key", string(msg.Key),
				"error", err,
			)
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Error("failed to commit message",
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
		}
	}
}

func readerConfig(cfg config.KafkaConfig, topic, groupID string, fromStart bool) kafka.ReaderConfig {
	offset := kafka.LastOffset
	if fromStart {
		offset = kafka.FirstOffset
	}
	return kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: offset,
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) error {
	var poison error
	err := resilience.Retry(ctx, "handle-"+c.reader.Config().Topic, c.retry, func() error {
		err := c.handler(ctx, msg.Key, msg.Value)
		if errors.Is(err, ErrPoison) {
			poison = err
			return nil
		}
		return err
	})
	if poison != nil {
		return poison
	}
	return err
}

// DecodeJSON is a generic helper that unmarshals a Kafka message value into T.
// Decoding failures are wrapped with ErrPoison.
func DecodeJSON[T any](value []byte) (T, error) {
	var result T
	if err := json.Unmarshal(value, &result); err != nil {
		return result, fmt.Errorf("%w: decoding kafka message: %v", ErrPoison, err)
	}
	return result, nil
}
