// Package kafka provides Kafka producer and consumer clients backed by
// segmentio/kafka-go. Events are JSON on the wire; the consumer dispatches
// each message to a MessageHandler and commits only after it succeeds.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"golang.org/x/time/rate"

	"github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/resilience"
)

// TypeHeader names the message header carrying the event type.
const TypeHeader = "type"

// Message is the decoded view of a Kafka record handed to a MessageHandler.
type Message struct {
	Key   []byte
	Value []byte
	Type  string
}

// MessageHandler is a callback invoked for each Kafka message. Returning an
// error leaves the message uncommitted and the handler is called again with
// the same message. Wrap an error with resilience.Permanent to skip retries.
type MessageHandler func(ctx context.Context, msg Message) error

// reader is the subset of *kafka.Reader the consumer uses.
type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads messages from a Kafka topic and dispatches them to a
// MessageHandler.
type Consumer struct {
	reader  reader
	logger  *slog.Logger
	handler MessageHandler
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// HandlerRetry is how often a failing message is re-handled before the
// consumer gives up on it.
var HandlerRetry = resilience.RetryConfig{
	MaxAttempts:  5,
	InitialDelay: 200 * time.Millisecond,
	MaxDelay:     5 * time.Second,
}

// NewConsumer creates a group Consumer for topic. A new group starts from the
// earliest offset so no submitted resume is skipped.
func NewConsumer(cfg config.KafkaConfig, topic string, handler MessageHandler) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       topic,
		GroupID:     cfg.ConsumerGroup,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	})
	c := newConsumer(r, handler, HandlerRetry)
	c.logger = c.logger.With("topic", topic)
	if cfg.MaxMessagesPerSecond > 0 {
		c.limiter = newLimiter(cfg.MaxMessagesPerSecond)
	}
	return c
}

func newConsumer(r reader, handler MessageHandler, retry resilience.RetryConfig) *Consumer {
	return &Consumer{
		reader:  r,
		logger:  slog.Default().With("component", "kafka-consumer"),
		handler: handler,
		retry:   retry,
	}
}

func newLimiter(perSecond float64) *rate.Limiter {
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// Start enters the consume loop and blocks until ctx is cancelled. A message
// whose handler still fails after retries is left uncommitted and Start
// returns the error; committing a later offset would acknowledge it.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started")
	for {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				c.logger.Info("consumer stopping", "reason", err)
				return nil
			}
		}
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
			"value_size", len(msg.Value),
		)
		err = resilience.Retry(ctx, "handle kafka message", c.retry, func() error {
			return c.handler(ctx, fromRecord(msg))
		})
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping", "reason", ctx.Err())
				return nil
			}
			c.logger.Error("failed to process message, stopping",
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
			return fmt.Errorf("handling message at partition %d offset %d: %w", msg.Partition, msg.Offset, err)
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("failed to commit message",
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
		}
	}
}

// Close closes the underlying Kafka reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}

func fromRecord(msg kafka.Message) Message {
	out := Message{Key: msg.Key, Value: msg.Value}
	for _, h := range msg.Headers {
		if h.Key == TypeHeader {
			out.Type = string(h.Value)
		}
	}
	return out
}

// DecodeJSON unmarshals a message value into T.
func DecodeJSON[T any](value []byte) (T, error) {
	var result T
	if err := json.Unmarshal(value, &result); err != nil {
		return result, fmt.Errorf("decoding kafka message: %w", err)
	}
	return result, nil
}
