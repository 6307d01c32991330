package events

import (
	"context"
	"errors"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/staybook/service-booking/internal/application"
	paymentDomain "github.com/staybook/service-booking/internal/domain/payment"
	"github.com/staybook/service-booking/pkg/domain"
	"github.com/staybook/service-booking/pkg/events"
	"github.com/staybook/service-booking/pkg/kafka"
	"go.uber.org/zap"
)

// PaymentStatusApplier applies a gateway status to a payment.
// *application.PaymentService satisfies it.
type PaymentStatusApplier interface {
	ApplyGatewayStatus(ctx context.Context, evt events.PaymentStatusEvent, target paymentDomain.Status) (*application.PaymentDTO, error)
}

var gatewayStatuses = map[string]paymentDomain.Status{
	events.PaymentCompleted: paymentDomain.StatusCompleted,
	events.PaymentFailed:    paymentDomain.StatusFailed,
	events.PaymentRefunded:  paymentDomain.StatusRefunded,
}

// PaymentEventConsumer listens to payment gateway events and records the
// resulting payment status.
type PaymentEventConsumer struct {
	consumer *kafka.Consumer
	service  PaymentStatusApplier
	logger   *zap.Logger
}

// NewPaymentEventConsumer creates a new PaymentEventConsumer.
func NewPaymentEventConsumer(
	brokers []string,
	groupID string,
	service PaymentStatusApplier,
	logger *zap.Logger,
) *PaymentEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, events.TopicPaymentEvents, logger)
	return &PaymentEventConsumer{
		consumer: consumer,
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming payment events. This blocks until the context is cancelled.
func (c *PaymentEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *PaymentEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *PaymentEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from payment topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	target, ok := gatewayStatuses[cloudEvent.Type]
	if !ok {
		c.logger.Debug("ignoring unhandled payment event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
	return c.handleStatus(ctx, cloudEvent, target)
}

func (c *PaymentEventConsumer) handleStatus(ctx context.Context, cloudEvent kafka.CloudEvent, target paymentDomain.Status) error {
	var evt events.PaymentStatusEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse payment status event data",
			zap.String("type", cloudEvent.Type),
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	c.logger.Info("processing payment status event",
		zap.String("type", cloudEvent.Type),
		zap.String("payment_id", evt.PaymentID.String()),
		zap.String("booking_id", evt.BookingID.String()),
	)

	_, err := c.service.ApplyGatewayStatus(ctx, evt, target)
	if err == nil {
		return nil
	}

	// Business rejections will never succeed on retry; only storage trouble is retried.
	if de, ok := domain.AsDomainError(err); ok && !errors.Is(err, domain.ErrStorageUnavailable) && de.Kind != domain.KindConflict {
		c.logger.Warn("payment status event rejected",
			zap.String("type", cloudEvent.Type),
			zap.String("booking_id", evt.BookingID.String()),
			zap.Error(err),
		)
		return nil
	}

	c.logger.Error("failed to apply payment status event",
		zap.String("type", cloudEvent.Type),
		zap.String("booking_id", evt.BookingID.String()),
		zap.Error(err),
	)
	return err
}
