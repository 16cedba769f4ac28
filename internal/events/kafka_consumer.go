package events

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/ridepool/service-offers/internal/pkg/kafka"
)

// RouteRecomputer refreshes the stored geometry of one offer. Implemented by
// the offer application service.
type RouteRecomputer interface {
	RecomputeRoute(ctx context.Context, offerID uuid.UUID) error
}

// TripEventConsumer listens to trip events and refreshes offer geometry when
// a driver reroutes mid-trip.
type TripEventConsumer struct {
	consumer *kafka.Consumer
	service  RouteRecomputer
	logger   *zap.Logger
}

// NewTripEventConsumer creates a new TripEventConsumer.
func NewTripEventConsumer(
	brokers []string,
	groupID string,
	service RouteRecomputer,
	logger *zap.Logger,
) *TripEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, TopicTripEvents, logger)
	return &TripEventConsumer{
		consumer: consumer,
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming trip events. This blocks until the context is cancelled.
func (c *TripEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *TripEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *TripEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	var cloudEvent kafka.CloudEvent
	if err := json.Unmarshal(msg.Value, &cloudEvent); err != nil {
		c.logger.Error("failed to parse cloud event from trip topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case TripRouteChanged:
		return c.handleRouteChanged(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled trip event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *TripEventConsumer) handleRouteChanged(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt RouteChangedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse RouteChangedEvent data",
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	c.logger.Info("processing trip route change",
		zap.String("offer_id", evt.OfferID.String()),
	)

	if err := c.service.RecomputeRoute(ctx, evt.OfferID); err != nil {
		c.logger.Error("failed to recompute offer route after trip change",
			zap.String("offer_id", evt.OfferID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}
