package application

import (
	"context"

	"github.com/staybook/service-booking/pkg/kafka"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

const eventSource = "service-booking"

var tracer = otel.Tracer("github.com/staybook/service-booking/internal/application")

// EventPublisher sends CloudEvents to the bus. *kafka.Producer satisfies it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// publishEvent wraps data in a CloudEvent and sends it. Failures are logged and
// never fail the calling operation; a nil publisher disables publishing.
func publishEvent(ctx context.Context, pub EventPublisher, logger *zap.Logger, topic, eventType, key string, data interface{}) {
	if pub == nil {
		return
	}
	cloudEvent, err := kafka.NewCloudEvent(eventSource, eventType, data)
	if err != nil {
		logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}
	cloudEvent = cloudEvent.WithSubject(key)
	if err := pub.PublishEvent(ctx, topic, cloudEvent); err != nil {
		logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}
