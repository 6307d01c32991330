package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageHandler processes one message. A returned error is retried with
// backoff; the offset is committed only after the handler succeeds.
type MessageHandler func(ctx context.Context, msg kafkago.Message) error

// Consumer reads a single topic as part of a consumer group.
type Consumer struct {
	reader     *kafkago.Reader
	logger     *zap.Logger
	newBackOff func() backoff.BackOff
}

// NewConsumer creates a group consumer for topic.
func NewConsumer(brokers []string, groupID, topic string, logger *zap.Logger) *Consumer {
	return &Consumer{
		reader: kafkago.NewReader(kafkago.ReaderConfig{
			Brokers:     brokers,
			GroupID:     groupID,
			Topic:       topic,
			MinBytes:    1,
			MaxBytes:    10e6,
			StartOffset: kafkago.FirstOffset,
		}),
		logger:     logger.With(zap.String("topic", topic), zap.String("group_id", groupID)),
		newBackOff: defaultBackOff,
	}
}

// defaultBackOff doubles from 100ms up to 5s and never gives up on its own;
// only context cancellation ends a retry loop.
func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Consume blocks, dispatching messages to handler until ctx is cancelled.
// Messages are handled in order: a failing message is retried until it
// succeeds, and the ones behind it wait.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	fetchBackOff := c.newBackOff()
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return ctx.Err()
			}
			wait := fetchBackOff.NextBackOff()
			c.logger.Error("failed to fetch message", zap.Duration("retry_in", wait), zap.Error(err))
			if err := sleep(ctx, wait); err != nil {
				return err
			}
			continue
		}
		fetchBackOff.Reset()

		if err := c.handleWithRetry(ctx, msg, handler); err != nil {
			// Uncommitted, so the group redelivers it after a restart.
			return err
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("failed to commit message",
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		}
	}
}

// handleWithRetry runs handler until it succeeds. It returns a non-nil error
// only when ctx ends first.
func (c *Consumer) handleWithRetry(ctx context.Context, msg kafkago.Message, handler MessageHandler) error {
	operation := func() error { return handler(ctx, msg) }
	notify := func(err error, wait time.Duration) {
		c.logger.Error("failed to handle message",
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
			zap.Duration("retry_in", wait),
			zap.Error(err),
		)
	}
	if err := backoff.RetryNotify(operation, backoff.WithContext(c.newBackOff(), ctx), notify); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Close closes the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
