package application

import (
	"context"

	"github.com/ridepool/service-offers/internal/pkg/kafka"
)

// EventPublisher publishes CloudEvents to a topic. Satisfied by
// kafka.Producer; test doubles record events instead.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}
