// Package offer holds the RouteOffer aggregate: a driver's posted
// point-to-point trip with seats for sale.
package offer

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/ridepool/service-offers/internal/domain/vehicle"
	"github.com/ridepool/service-offers/internal/pkg/domain"
	"github.com/ridepool/service-offers/internal/pkg/geo"
)

const offerNumberChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// RouteOffer is the aggregate root for the offer domain.
type RouteOffer struct {
	id          uuid.UUID
	offerNumber string
	driverID    uuid.UUID
	vehicleID   uuid.UUID
	vehicleType vehicle.VehicleType
	status      OfferStatus

	route             Route
	departureAt       time.Time
	seatsTotal        int
	seatsAvailable    int
	pricePerSeatCents int64
	currency          string
	notes             string

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// generateOfferNumber creates an offer number in the format "RO-XXXXXX".
func generateOfferNumber() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(offerNumberChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate offer number: %w", err)
		}
		result[i] = offerNumberChars[n.Int64()]
	}
	return "RO-" + string(result), nil
}

// NewRouteOffer creates a new RouteOffer with status=pending. The route's
// polyline is attached separately once the routing service has been consulted.
func NewRouteOffer(
	driverID, vehicleID uuid.UUID,
	vehicleType vehicle.VehicleType,
	route Route,
	departureAt time.Time,
	seats int,
	pricePerSeatCents int64,
	currency string,
	notes string,
) (*RouteOffer, error) {
	if driverID == uuid.Nil {
		return nil, domain.NewValidationError("driver ID is required")
	}
	if !vehicleType.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid vehicle type: %s", vehicleType))
	}
	if !route.From.IsValid() || !route.To.IsValid() {
		return nil, domain.NewValidationError("route coordinates out of range")
	}
	if route.From.Address == "" || route.To.Address == "" {
		return nil, domain.NewValidationError("origin and destination addresses are required")
	}
	if departureAt.IsZero() {
		return nil, domain.NewValidationError("departure time is required")
	}
	if seats < 1 {
		return nil, domain.NewValidationError("seat count must be positive")
	}
	if pricePerSeatCents <= 0 {
		return nil, domain.NewValidationError("price per seat must be positive")
	}

	offerNumber, err := generateOfferNumber()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &RouteOffer{
		id:                uuid.New(),
		offerNumber:       offerNumber,
		driverID:          driverID,
		vehicleID:         vehicleID,
		vehicleType:       vehicleType,
		status:            StatusPending,
		route:             route,
		departureAt:       departureAt.UTC(),
		seatsTotal:        seats,
		seatsAvailable:    seats,
		pricePerSeatCents: pricePerSeatCents,
		currency:          currency,
		notes:             notes,
		version:           1,
		createdAt:         now,
		updatedAt:         now,
	}, nil
}

// ReconstructRouteOffer rebuilds a RouteOffer from persistence data (no validation).
func ReconstructRouteOffer(
	id uuid.UUID,
	offerNumber string,
	driverID, vehicleID uuid.UUID,
	vehicleType vehicle.VehicleType,
	status OfferStatus,
	route Route,
	departureAt time.Time,
	seatsTotal, seatsAvailable int,
	pricePerSeatCents int64,
	currency string,
	notes string,
	version int64,
	createdAt, updatedAt time.Time,
) *RouteOffer {
	return &RouteOffer{
		id:                id,
		offerNumber:       offerNumber,
		driverID:          driverID,
		vehicleID:         vehicleID,
		vehicleType:       vehicleType,
		status:            status,
		route:             route,
		departureAt:       departureAt,
		seatsTotal:        seatsTotal,
		seatsAvailable:    seatsAvailable,
		pricePerSeatCents: pricePerSeatCents,
		currency:          currency,
		notes:             notes,
		version:           version,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

// --- Getters ---

// ID returns the offer's unique identifier.
func (o *RouteOffer) ID() uuid.UUID { return o.id }

// OfferNumber returns the human-readable offer number.
func (o *RouteOffer) OfferNumber() string { return o.offerNumber }

// DriverID returns the posting driver's user ID.
func (o *RouteOffer) DriverID() uuid.UUID { return o.driverID }

// VehicleID returns the vehicle assigned to this offer.
func (o *RouteOffer) VehicleID() uuid.UUID { return o.vehicleID }

// VehicleType returns the offer's vehicle type.
func (o *RouteOffer) VehicleType() vehicle.VehicleType { return o.vehicleType }

// Status returns the current offer status.
func (o *RouteOffer) Status() OfferStatus { return o.status }

// Route returns the posted route.
func (o *RouteOffer) Route() Route { return o.route }

// DepartureAt returns the planned departure time.
func (o *RouteOffer) DepartureAt() time.Time { return o.departureAt }

// SeatsTotal returns the number of seats originally offered.
func (o *RouteOffer) SeatsTotal() int { return o.seatsTotal }

// SeatsAvailable returns the number of seats still bookable.
func (o *RouteOffer) SeatsAvailable() int { return o.seatsAvailable }

// PricePerSeatCents returns the per-seat price in cents.
func (o *RouteOffer) PricePerSeatCents() int64 { return o.pricePerSeatCents }

// Currency returns the currency code.
func (o *RouteOffer) Currency() string { return o.currency }

// Notes returns any free-text notes on the offer.
func (o *RouteOffer) Notes() string { return o.notes }

// Version returns the entity version for optimistic locking.
func (o *RouteOffer) Version() int64 { return o.version }

// CreatedAt returns the creation timestamp.
func (o *RouteOffer) CreatedAt() time.Time { return o.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (o *RouteOffer) UpdatedAt() time.Time { return o.updatedAt }

// --- Behavior ---

// Activate transitions the offer from pending to active, making it bookable.
func (o *RouteOffer) Activate() error {
	if !o.status.CanTransitionTo(StatusActive) {
		return domain.NewInvalidStateError(string(o.status), string(StatusActive))
	}
	o.status = StatusActive
	o.updatedAt = time.Now().UTC()
	return nil
}

// BookSeats reserves the given number of seats, flipping the offer to full
// when the last seat goes.
func (o *RouteOffer) BookSeats(count int) error {
	if count < 1 {
		return domain.NewValidationError("seat count must be positive")
	}
	if o.status != StatusActive && o.status != StatusPending {
		return domain.NewInvalidStateError(string(o.status), "seat booking")
	}
	if count > o.seatsAvailable {
		return domain.NewConflictError(fmt.Sprintf(
			"only %d seats available, %d requested", o.seatsAvailable, count))
	}
	o.seatsAvailable -= count
	if o.seatsAvailable == 0 && o.status == StatusActive {
		o.status = StatusFull
	}
	o.updatedAt = time.Now().UTC()
	return nil
}

// ReleaseSeats returns previously booked seats, reopening a full offer.
func (o *RouteOffer) ReleaseSeats(count int) error {
	if count < 1 {
		return domain.NewValidationError("seat count must be positive")
	}
	if o.seatsAvailable+count > o.seatsTotal {
		return domain.NewConflictError("cannot release more seats than were booked")
	}
	o.seatsAvailable += count
	if o.status == StatusFull {
		o.status = StatusActive
	}
	o.updatedAt = time.Now().UTC()
	return nil
}

// Complete marks the trip as driven.
func (o *RouteOffer) Complete() error {
	if !o.status.CanTransitionTo(StatusCompleted) {
		return domain.NewInvalidStateError(string(o.status), string(StatusCompleted))
	}
	o.status = StatusCompleted
	o.updatedAt = time.Now().UTC()
	return nil
}

// Cancel withdraws the offer if it is not in a terminal state.
func (o *RouteOffer) Cancel() error {
	if !o.status.CanTransitionTo(StatusCancelled) {
		return domain.NewInvalidStateError(string(o.status), string(StatusCancelled))
	}
	o.status = StatusCancelled
	o.updatedAt = time.Now().UTC()
	return nil
}

// AttachPolyline sets the route geometry computed by the polyline provider.
func (o *RouteOffer) AttachPolyline(polyline geo.Polyline, distanceKm, durationMin float64) {
	o.route.Polyline = polyline
	o.route.DistanceKm = distanceKm
	o.route.DurationMin = durationMin
	o.updatedAt = time.Now().UTC()
}

// UpdateRoute replaces the offer's route endpoints and invalidates the stored
// polyline; the caller must recompute it before the offer is matched again.
func (o *RouteOffer) UpdateRoute(route Route) error {
	if o.status.IsTerminal() {
		return domain.NewInvalidStateError(string(o.status), "route update")
	}
	if !route.From.IsValid() || !route.To.IsValid() {
		return domain.NewValidationError("route coordinates out of range")
	}
	route.Polyline = nil
	route.DistanceKm = 0
	route.DurationMin = 0
	o.route = route
	o.updatedAt = time.Now().UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (o *RouteOffer) IncrementVersion() {
	o.version++
	o.updatedAt = time.Now().UTC()
}
