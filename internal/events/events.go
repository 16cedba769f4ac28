// Package events defines the Kafka topics and payloads the offers service
// publishes and consumes.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics.
const (
	// TopicOfferEvents carries the offer lifecycle events published by this
	// service.
	TopicOfferEvents = "offer.events"

	// TopicTripEvents carries trip updates from the trips service; route
	// changes on a booked trip arrive here.
	TopicTripEvents = "trip.events"
)

// Event types, used as the CloudEvent type attribute.
const (
	OfferCreated            = "offer.created"
	OfferActivated          = "offer.activated"
	OfferSeatsBooked        = "offer.seats_booked"
	OfferSeatsReleased      = "offer.seats_released"
	OfferCompleted          = "offer.completed"
	OfferCancelled          = "offer.cancelled"
	OfferRouteChanged       = "offer.route_changed"
	OfferPolylineBackfilled = "offer.polyline_backfilled"

	// TripRouteChanged is published by the trips service when a driver
	// reroutes mid-trip; the offer's stored geometry must be recomputed.
	TripRouteChanged = "trip.route_changed"
)

// OfferEvent is the common payload for offer lifecycle events.
type OfferEvent struct {
	OfferID        uuid.UUID `json:"offer_id"`
	OfferNumber    string    `json:"offer_number"`
	DriverID       uuid.UUID `json:"driver_id"`
	Status         string    `json:"status"`
	FromLat        float64   `json:"from_lat"`
	FromLng        float64   `json:"from_lng"`
	ToLat          float64   `json:"to_lat"`
	ToLng          float64   `json:"to_lng"`
	DepartureAt    time.Time `json:"departure_at"`
	SeatsAvailable int       `json:"seats_available"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// SeatsChangedEvent is the payload for seat booking and release events.
type SeatsChangedEvent struct {
	OfferID        uuid.UUID `json:"offer_id"`
	Seats          int       `json:"seats"`
	SeatsAvailable int       `json:"seats_available"`
	Status         string    `json:"status"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// RouteChangedEvent is the payload for trip.route_changed, consumed from the
// trips service.
type RouteChangedEvent struct {
	OfferID uuid.UUID `json:"offer_id"`
	FromLat float64   `json:"from_lat"`
	FromLng float64   `json:"from_lng"`
	ToLat   float64   `json:"to_lat"`
	ToLng   float64   `json:"to_lng"`
}

// PolylineBackfilledEvent is the payload published after a successful
// backfill of one offer's geometry.
type PolylineBackfilledEvent struct {
	OfferID    uuid.UUID `json:"offer_id"`
	Points     int       `json:"points"`
	Fallback   bool      `json:"fallback"`
	OccurredAt time.Time `json:"occurred_at"`
}
