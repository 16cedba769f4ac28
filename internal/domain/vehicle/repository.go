package vehicle

import (
	"context"

	"github.com/google/uuid"
)

// VehicleRepository defines the persistence contract for vehicles.
type VehicleRepository interface {
	// FindByID retrieves a vehicle by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Vehicle, error)

	// FindByDriverID retrieves all vehicles registered by a driver.
	FindByDriverID(ctx context.Context, driverID uuid.UUID) ([]*Vehicle, error)

	// Save persists a new vehicle.
	Save(ctx context.Context, v *Vehicle) error

	// Update persists changes to an existing vehicle.
	Update(ctx context.Context, v *Vehicle) error

	// Delete removes a vehicle from the registry.
	Delete(ctx context.Context, id uuid.UUID) error
}
