package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	offerDomain "github.com/ridepool/service-offers/internal/domain/offer"
	"github.com/ridepool/service-offers/internal/domain/vehicle"
	"github.com/ridepool/service-offers/internal/pkg/domain"
	"github.com/ridepool/service-offers/internal/pkg/geo"
)

// OfferModel is the GORM model for the route_offers table. The polyline is
// stored in its encoded string form; locations are jsonb documents.
type OfferModel struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OfferNumber       string          `gorm:"uniqueIndex;not null;size:20"`
	DriverID          uuid.UUID       `gorm:"type:uuid;index;not null"`
	VehicleID         uuid.UUID       `gorm:"type:uuid;not null"`
	VehicleType       string          `gorm:"not null;size:20;index"`
	Status            string          `gorm:"not null;size:20;index"`
	FromLocation      json.RawMessage `gorm:"type:jsonb;not null"`
	ToLocation        json.RawMessage `gorm:"type:jsonb;not null"`
	Polyline          string          `gorm:"type:text;not null;default:''"`
	DistanceKm        float64         `gorm:"not null;default:0"`
	DurationMin       float64         `gorm:"not null;default:0"`
	DepartureAt       time.Time       `gorm:"not null;index"`
	SeatsTotal        int             `gorm:"not null"`
	SeatsAvailable    int             `gorm:"not null"`
	PricePerSeatCents int64           `gorm:"not null"`
	Currency          string          `gorm:"not null;size:3;default:'INR'"`
	Notes             string          `gorm:"size:1000"`
	Version           int64           `gorm:"not null;default:1"`
	CreatedAt         time.Time       `gorm:"not null;index"`
	UpdatedAt         time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (OfferModel) TableName() string {
	return "route_offers"
}

// GormOfferRepository is the GORM-based implementation of OfferRepository.
type GormOfferRepository struct {
	db *gorm.DB
}

// NewGormOfferRepository creates a new GormOfferRepository.
func NewGormOfferRepository(db *gorm.DB) *GormOfferRepository {
	return &GormOfferRepository{db: db}
}

// FindByID retrieves an offer by its unique identifier.
func (r *GormOfferRepository) FindByID(ctx context.Context, id uuid.UUID) (*offerDomain.RouteOffer, error) {
	var model OfferModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("RouteOffer", id.String())
		}
		return nil, fmt.Errorf("failed to find offer by ID: %w", err)
	}
	return toDomainOffer(&model)
}

// FindByNumber retrieves an offer by its offer number.
func (r *GormOfferRepository) FindByNumber(ctx context.Context, number string) (*offerDomain.RouteOffer, error) {
	var model OfferModel
	if err := r.db.WithContext(ctx).Where("offer_number = ?", number).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("RouteOffer", number)
		}
		return nil, fmt.Errorf("failed to find offer by number: %w", err)
	}
	return toDomainOffer(&model)
}

// FindByDriverID retrieves offers posted by a driver with pagination.
func (r *GormOfferRepository) FindByDriverID(ctx context.Context, driverID uuid.UUID, page, limit int) ([]*offerDomain.RouteOffer, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&OfferModel{}).Where("driver_id = ?", driverID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count driver offers: %w", err)
	}

	var models []OfferModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find driver offers: %w", err)
	}

	offers, err := toDomainOffers(models)
	if err != nil {
		return nil, 0, err
	}
	return offers, total, nil
}

// SearchCandidates returns every searchable offer matching the coarse filter,
// newest first. No limit is applied: the geometric filter downstream needs
// the full candidate set to keep pagination totals correct.
func (r *GormOfferRepository) SearchCandidates(ctx context.Context, filter offerDomain.SearchFilter) ([]*offerDomain.RouteOffer, error) {
	minSeats := filter.MinSeats
	if minSeats < 1 {
		minSeats = 1
	}

	query := r.db.WithContext(ctx).
		Where("status IN ?", statusStrings(offerDomain.SearchableStatuses)).
		Where("seats_available >= ?", minSeats)

	if filter.DepartureDate != nil {
		dayStart := filter.DepartureDate.UTC().Truncate(24 * time.Hour)
		query = query.Where("departure_at >= ? AND departure_at < ?", dayStart, dayStart.Add(24*time.Hour))
	}
	if filter.VehicleType != nil {
		query = query.Where("vehicle_type = ?", string(*filter.VehicleType))
	}
	if filter.MinPriceCents != nil {
		query = query.Where("price_per_seat_cents >= ?", *filter.MinPriceCents)
	}
	if filter.MaxPriceCents != nil {
		query = query.Where("price_per_seat_cents <= ?", *filter.MaxPriceCents)
	}

	var models []OfferModel
	if err := query.Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to search offer candidates: %w", err)
	}
	return toDomainOffers(models)
}

// ListAll retrieves all offers with pagination (admin).
func (r *GormOfferRepository) ListAll(ctx context.Context, page, limit int) ([]*offerDomain.RouteOffer, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&OfferModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count offers: %w", err)
	}

	var models []OfferModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list offers: %w", err)
	}

	offers, err := toDomainOffers(models)
	if err != nil {
		return nil, 0, err
	}
	return offers, total, nil
}

// CountByStatus returns offer counts grouped by status (admin).
func (r *GormOfferRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&OfferModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// ListMissingPolyline returns up to limit non-terminal offers whose stored
// polyline is empty, oldest first so the backlog drains in order.
func (r *GormOfferRepository) ListMissingPolyline(ctx context.Context, limit int) ([]*offerDomain.RouteOffer, error) {
	var models []OfferModel
	if err := r.db.WithContext(ctx).
		Where("polyline = ''").
		Where("status IN ?", statusStrings(offerDomain.SearchableStatuses)).
		Order("created_at ASC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list offers missing polyline: %w", err)
	}
	return toDomainOffers(models)
}

// UpdateRouteGeometry persists a recomputed polyline and route metrics for a
// single offer without touching the rest of the row.
func (r *GormOfferRepository) UpdateRouteGeometry(ctx context.Context, id uuid.UUID, route offerDomain.Route) error {
	result := r.db.WithContext(ctx).
		Model(&OfferModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"polyline":     geo.EncodePolyline(route.Polyline),
			"distance_km":  route.DistanceKm,
			"duration_min": route.DurationMin,
			"updated_at":   time.Now().UTC(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update route geometry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("RouteOffer", id.String())
	}
	return nil
}

// Save persists a new offer.
func (r *GormOfferRepository) Save(ctx context.Context, o *offerDomain.RouteOffer) error {
	model, err := toOfferModel(o)
	if err != nil {
		return fmt.Errorf("failed to convert offer to model: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save offer: %w", err)
	}
	return nil
}

// Update persists changes to an existing offer with optimistic locking.
func (r *GormOfferRepository) Update(ctx context.Context, o *offerDomain.RouteOffer) error {
	model, err := toOfferModel(o)
	if err != nil {
		return fmt.Errorf("failed to convert offer to model: %w", err)
	}

	// Optimistic locking: only update if the version matches (current version - 1 since IncrementVersion was called)
	expectedVersion := o.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&OfferModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":               model.Status,
			"from_location":        model.FromLocation,
			"to_location":          model.ToLocation,
			"polyline":             model.Polyline,
			"distance_km":          model.DistanceKm,
			"duration_min":         model.DurationMin,
			"departure_at":         model.DepartureAt,
			"seats_total":          model.SeatsTotal,
			"seats_available":      model.SeatsAvailable,
			"price_per_seat_cents": model.PricePerSeatCents,
			"currency":             model.Currency,
			"notes":                model.Notes,
			"version":              model.Version,
			"updated_at":           model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update offer: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.NewConflictError("offer was modified by another transaction")
	}

	return nil
}

// --- Conversion Helpers ---

func statusStrings(statuses []offerDomain.OfferStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func toOfferModel(o *offerDomain.RouteOffer) (*OfferModel, error) {
	route := o.Route()

	fromJSON, err := json.Marshal(route.From)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal origin location: %w", err)
	}

	toJSON, err := json.Marshal(route.To)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal destination location: %w", err)
	}

	return &OfferModel{
		ID:                o.ID(),
		OfferNumber:       o.OfferNumber(),
		DriverID:          o.DriverID(),
		VehicleID:         o.VehicleID(),
		VehicleType:       string(o.VehicleType()),
		Status:            string(o.Status()),
		FromLocation:      fromJSON,
		ToLocation:        toJSON,
		Polyline:          geo.EncodePolyline(route.Polyline),
		DistanceKm:        route.DistanceKm,
		DurationMin:       route.DurationMin,
		DepartureAt:       o.DepartureAt(),
		SeatsTotal:        o.SeatsTotal(),
		SeatsAvailable:    o.SeatsAvailable(),
		PricePerSeatCents: o.PricePerSeatCents(),
		Currency:          o.Currency(),
		Notes:             o.Notes(),
		Version:           o.Version(),
		CreatedAt:         o.CreatedAt(),
		UpdatedAt:         o.UpdatedAt(),
	}, nil
}

func toDomainOffer(m *OfferModel) (*offerDomain.RouteOffer, error) {
	var from offerDomain.Location
	if err := json.Unmarshal(m.FromLocation, &from); err != nil {
		return nil, fmt.Errorf("failed to unmarshal origin location: %w", err)
	}

	var to offerDomain.Location
	if err := json.Unmarshal(m.ToLocation, &to); err != nil {
		return nil, fmt.Errorf("failed to unmarshal destination location: %w", err)
	}

	polyline, err := geo.DecodePolyline(m.Polyline)
	if err != nil {
		return nil, fmt.Errorf("failed to decode offer polyline: %w", err)
	}

	status, err := offerDomain.ParseOfferStatus(m.Status)
	if err != nil {
		return nil, err
	}

	route := offerDomain.Route{
		From:        from,
		To:          to,
		DistanceKm:  m.DistanceKm,
		DurationMin: m.DurationMin,
		Polyline:    polyline,
	}

	return offerDomain.ReconstructRouteOffer(
		m.ID,
		m.OfferNumber,
		m.DriverID,
		m.VehicleID,
		vehicle.VehicleType(m.VehicleType),
		status,
		route,
		m.DepartureAt,
		m.SeatsTotal,
		m.SeatsAvailable,
		m.PricePerSeatCents,
		m.Currency,
		m.Notes,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toDomainOffers(models []OfferModel) ([]*offerDomain.RouteOffer, error) {
	offers := make([]*offerDomain.RouteOffer, len(models))
	for i, m := range models {
		o, err := toDomainOffer(&m)
		if err != nil {
			return nil, err
		}
		offers[i] = o
	}
	return offers, nil
}
