// Package vehicle holds the driver vehicle registry. Offered seat counts are
// validated against the registered vehicle's capacity.
package vehicle

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ridepool/service-offers/internal/pkg/domain"
)

// Vehicle is a driver's registered vehicle.
type Vehicle struct {
	id           uuid.UUID
	driverID     uuid.UUID
	vehicleType  VehicleType
	brand        string
	model        string
	plateNumber  string
	seatCapacity int
	createdAt    time.Time
	updatedAt    time.Time
}

// NewVehicle creates a new Vehicle after validating its fields.
func NewVehicle(
	driverID uuid.UUID,
	vehicleType VehicleType,
	brand, model, plateNumber string,
	seatCapacity int,
) (*Vehicle, error) {
	if driverID == uuid.Nil {
		return nil, domain.NewValidationError("driver ID is required")
	}
	if !vehicleType.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid vehicle type: %s", vehicleType))
	}
	if plateNumber == "" {
		return nil, domain.NewValidationError("plate number is required")
	}
	if seatCapacity < 1 {
		return nil, domain.NewValidationError("seat capacity must be positive")
	}
	if seatCapacity > vehicleType.MaxPassengerSeats() {
		return nil, domain.NewValidationError(fmt.Sprintf(
			"seat capacity %d exceeds maximum %d for %s",
			seatCapacity, vehicleType.MaxPassengerSeats(), vehicleType,
		))
	}

	now := time.Now().UTC()
	return &Vehicle{
		id:           uuid.New(),
		driverID:     driverID,
		vehicleType:  vehicleType,
		brand:        brand,
		model:        model,
		plateNumber:  plateNumber,
		seatCapacity: seatCapacity,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// ReconstructVehicle rebuilds a Vehicle from persistence data (no validation).
func ReconstructVehicle(
	id, driverID uuid.UUID,
	vehicleType VehicleType,
	brand, model, plateNumber string,
	seatCapacity int,
	createdAt, updatedAt time.Time,
) *Vehicle {
	return &Vehicle{
		id:           id,
		driverID:     driverID,
		vehicleType:  vehicleType,
		brand:        brand,
		model:        model,
		plateNumber:  plateNumber,
		seatCapacity: seatCapacity,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

// ID returns the vehicle's unique identifier.
func (v *Vehicle) ID() uuid.UUID { return v.id }

// DriverID returns the owning driver's user ID.
func (v *Vehicle) DriverID() uuid.UUID { return v.driverID }

// Type returns the vehicle type.
func (v *Vehicle) Type() VehicleType { return v.vehicleType }

// Make returns the vehicle manufacturer.
func (v *Vehicle) Make() string { return v.brand }

// Model returns the vehicle model.
func (v *Vehicle) Model() string { return v.model }

// PlateNumber returns the registration plate.
func (v *Vehicle) PlateNumber() string { return v.plateNumber }

// SeatCapacity returns the number of passenger seats.
func (v *Vehicle) SeatCapacity() int { return v.seatCapacity }

// CreatedAt returns the creation timestamp.
func (v *Vehicle) CreatedAt() time.Time { return v.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (v *Vehicle) UpdatedAt() time.Time { return v.updatedAt }

// UpdateDetails updates the mutable vehicle fields.
func (v *Vehicle) UpdateDetails(brand, model string, seatCapacity int) error {
	if seatCapacity < 1 || seatCapacity > v.vehicleType.MaxPassengerSeats() {
		return domain.NewValidationError("seat capacity out of range for vehicle type")
	}
	v.brand = brand
	v.model = model
	v.seatCapacity = seatCapacity
	v.updatedAt = time.Now().UTC()
	return nil
}
