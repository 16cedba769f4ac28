//go:build integration

package main_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridepool/service-offers/internal/application"
	offerEvents "github.com/ridepool/service-offers/internal/events"
)

// TestTripRouteChanged_RecomputesOfferGeometry verifies that a
// trip.route_changed event makes the service refresh the offer's stored
// polyline. The routing endpoint is unreachable in this test, so the
// recomputed geometry is the two-point fallback.
func TestTripRouteChanged_RecomputesOfferGeometry(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupOfferStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	offerID := uuid.New()
	driverID := uuid.New()
	seedOfferMissingPolyline(t, infra.DB, offerID, driverID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	evt := offerEvents.RouteChangedEvent{
		OfferID: offerID,
		FromLat: 12.9716, FromLng: 77.5946,
		ToLat: 13.0827, ToLng: 80.2707,
	}
	publishTestEvent(t, infra.KafkaBrokers, offerEvents.TopicTripEvents,
		"service-trips", offerEvents.TripRouteChanged, evt)

	model := waitForOfferPolyline(t, infra.DB, offerID, 15*time.Second)
	assert.NotEmpty(t, model.Polyline)
	assert.Greater(t, model.DistanceKm, 200.0, "Bengaluru-Chennai straight line is ~290 km")
}

// TestCreateOffer_PersistsAndPublishes drives the full create path against
// real Postgres and Kafka.
func TestCreateOffer_PersistsAndPublishes(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupOfferStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()

	driverID := uuid.New()
	vehicleID := uuid.New()
	seedVehicle(t, infra.DB, vehicleID, driverID)

	dto, err := stack.Service.CreateOffer(context.Background(), driverID, application.CreateOfferRequest{
		VehicleID:         vehicleID,
		From:              application.LocationDTO{Lat: 12.9716, Lng: 77.5946, Address: "Bengaluru"},
		To:                application.LocationDTO{Lat: 13.0827, Lng: 80.2707, Address: "Chennai"},
		DepartureAt:       time.Now().Add(24 * time.Hour),
		Seats:             3,
		PricePerSeatCents: 120000,
	})
	require.NoError(t, err)

	// Routing is unreachable; the offer still lands with the fallback line.
	assert.Equal(t, 2, dto.PolylinePoints)
	assert.Greater(t, dto.DistanceKm, 200.0)

	fetched, err := stack.Service.GetOffer(context.Background(), dto.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.OfferNumber, fetched.OfferNumber)
	assert.Equal(t, "pending", fetched.Status)

	ce := consumeOneEvent(t, infra.KafkaBrokers, offerEvents.TopicOfferEvents,
		offerEvents.OfferCreated, 15*time.Second)

	var created offerEvents.OfferEvent
	require.NoError(t, ce.ParseData(&created))
	assert.Equal(t, dto.ID, created.OfferID)
	assert.Equal(t, driverID, created.DriverID)
	assert.Equal(t, 3, created.SeatsAvailable)
}
