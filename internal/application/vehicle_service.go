package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	vehicleDomain "github.com/ridepool/service-offers/internal/domain/vehicle"
	"github.com/ridepool/service-offers/internal/pkg/domain"
)

// RegisterVehicleRequest holds the data needed to register a vehicle.
type RegisterVehicleRequest struct {
	VehicleType  string `json:"vehicle_type" binding:"required"`
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	PlateNumber  string `json:"plate_number" binding:"required"`
	SeatCapacity int    `json:"seat_capacity" binding:"required"`
}

// UpdateVehicleRequest holds the mutable vehicle fields.
type UpdateVehicleRequest struct {
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	SeatCapacity int    `json:"seat_capacity" binding:"required"`
}

// VehicleDTO is the response representation of a vehicle.
type VehicleDTO struct {
	ID           uuid.UUID `json:"id"`
	DriverID     uuid.UUID `json:"driver_id"`
	VehicleType  string    `json:"vehicle_type"`
	Brand        string    `json:"brand,omitempty"`
	Model        string    `json:"model,omitempty"`
	PlateNumber  string    `json:"plate_number"`
	SeatCapacity int       `json:"seat_capacity"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// VehicleService is the application service for the vehicle registry.
type VehicleService struct {
	repo   vehicleDomain.VehicleRepository
	logger *zap.Logger
}

// NewVehicleService creates a new VehicleService.
func NewVehicleService(repo vehicleDomain.VehicleRepository, logger *zap.Logger) *VehicleService {
	return &VehicleService{repo: repo, logger: logger}
}

// RegisterVehicle adds a vehicle to the driver's registry.
func (s *VehicleService) RegisterVehicle(ctx context.Context, driverID uuid.UUID, req RegisterVehicleRequest) (*VehicleDTO, error) {
	v, err := vehicleDomain.NewVehicle(
		driverID,
		vehicleDomain.VehicleType(req.VehicleType),
		req.Brand,
		req.Model,
		req.PlateNumber,
		req.SeatCapacity,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, v); err != nil {
		return nil, err
	}

	s.logger.Info("vehicle registered",
		zap.String("vehicle_id", v.ID().String()),
		zap.String("driver_id", driverID.String()),
	)

	result := toVehicleDTO(v)
	return &result, nil
}

// GetVehicle retrieves a vehicle by ID.
func (s *VehicleService) GetVehicle(ctx context.Context, id uuid.UUID) (*VehicleDTO, error) {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result := toVehicleDTO(v)
	return &result, nil
}

// GetDriverVehicles retrieves all vehicles registered by a driver.
func (s *VehicleService) GetDriverVehicles(ctx context.Context, driverID uuid.UUID) ([]VehicleDTO, error) {
	vehicles, err := s.repo.FindByDriverID(ctx, driverID)
	if err != nil {
		return nil, err
	}

	dtos := make([]VehicleDTO, len(vehicles))
	for i, v := range vehicles {
		dtos[i] = toVehicleDTO(v)
	}
	return dtos, nil
}

// UpdateVehicle updates the mutable fields of the driver's own vehicle.
func (s *VehicleService) UpdateVehicle(ctx context.Context, driverID, vehicleID uuid.UUID, req UpdateVehicleRequest) (*VehicleDTO, error) {
	v, err := s.repo.FindByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if v.DriverID() != driverID {
		return nil, domain.NewForbiddenError("vehicle belongs to another driver")
	}

	if err := v.UpdateDetails(req.Brand, req.Model, req.SeatCapacity); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}

	result := toVehicleDTO(v)
	return &result, nil
}

// RemoveVehicle deletes the driver's own vehicle from the registry.
func (s *VehicleService) RemoveVehicle(ctx context.Context, driverID, vehicleID uuid.UUID) error {
	v, err := s.repo.FindByID(ctx, vehicleID)
	if err != nil {
		return err
	}
	if v.DriverID() != driverID {
		return domain.NewForbiddenError("vehicle belongs to another driver")
	}
	return s.repo.Delete(ctx, vehicleID)
}

func toVehicleDTO(v *vehicleDomain.Vehicle) VehicleDTO {
	return VehicleDTO{
		ID:           v.ID(),
		DriverID:     v.DriverID(),
		VehicleType:  string(v.Type()),
		Brand:        v.Make(),
		Model:        v.Model(),
		PlateNumber:  v.PlateNumber(),
		SeatCapacity: v.SeatCapacity(),
		CreatedAt:    v.CreatedAt(),
		UpdatedAt:    v.UpdatedAt(),
	}
}
