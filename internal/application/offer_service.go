package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	offerDomain "github.com/ridepool/service-offers/internal/domain/offer"
	vehicleDomain "github.com/ridepool/service-offers/internal/domain/vehicle"
	"github.com/ridepool/service-offers/internal/events"
	"github.com/ridepool/service-offers/internal/pkg/domain"
	"github.com/ridepool/service-offers/internal/pkg/geo"
	"github.com/ridepool/service-offers/internal/pkg/kafka"
	"github.com/ridepool/service-offers/internal/routing"
)

const eventSource = "service-offers"

// LocationDTO is the wire representation of a geocoded location.
type LocationDTO struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address" binding:"required"`
	City    string  `json:"city"`
	State   string  `json:"state"`
	Pincode string  `json:"pincode"`
}

func (d LocationDTO) toDomain() offerDomain.Location {
	return offerDomain.Location{
		Coordinate: geo.Coordinate{Lat: d.Lat, Lng: d.Lng},
		Address:    d.Address,
		City:       d.City,
		State:      d.State,
		Pincode:    d.Pincode,
	}
}

func toLocationDTO(l offerDomain.Location) LocationDTO {
	return LocationDTO{
		Lat:     l.Lat,
		Lng:     l.Lng,
		Address: l.Address,
		City:    l.City,
		State:   l.State,
		Pincode: l.Pincode,
	}
}

// CreateOfferRequest holds the data needed to post a new route offer.
type CreateOfferRequest struct {
	VehicleID         uuid.UUID   `json:"vehicle_id" binding:"required"`
	From              LocationDTO `json:"from" binding:"required"`
	To                LocationDTO `json:"to" binding:"required"`
	DepartureAt       time.Time   `json:"departure_at" binding:"required"`
	Seats             int         `json:"seats" binding:"required"`
	PricePerSeatCents int64       `json:"price_per_seat_cents" binding:"required"`
	Currency          string      `json:"currency"`
	Notes             string      `json:"notes"`
}

// UpdateRouteRequest holds replacement endpoints for an offer's route.
type UpdateRouteRequest struct {
	From LocationDTO `json:"from" binding:"required"`
	To   LocationDTO `json:"to" binding:"required"`
}

// SeatRequest holds a seat count for booking and release operations.
type SeatRequest struct {
	Seats int `json:"seats" binding:"required"`
}

// OfferDTO is the response representation of a route offer.
type OfferDTO struct {
	ID                uuid.UUID   `json:"id"`
	OfferNumber       string      `json:"offer_number"`
	DriverID          uuid.UUID   `json:"driver_id"`
	VehicleID         uuid.UUID   `json:"vehicle_id"`
	VehicleType       string      `json:"vehicle_type"`
	Status            string      `json:"status"`
	From              LocationDTO `json:"from"`
	To                LocationDTO `json:"to"`
	DistanceKm        float64     `json:"distance_km"`
	DurationMin       float64     `json:"duration_min"`
	PolylinePoints    int         `json:"polyline_points"`
	DepartureAt       time.Time   `json:"departure_at"`
	SeatsTotal        int         `json:"seats_total"`
	SeatsAvailable    int         `json:"seats_available"`
	PricePerSeatCents int64       `json:"price_per_seat_cents"`
	Currency          string      `json:"currency"`
	Notes             string      `json:"notes,omitempty"`
	Version           int64       `json:"version"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// OfferService is the application service orchestrating offer use cases.
type OfferService struct {
	offerRepo   offerDomain.OfferRepository
	vehicleRepo vehicleDomain.VehicleRepository
	provider    routing.PolylineProvider
	producer    EventPublisher
	logger      *zap.Logger
}

// NewOfferService creates a new OfferService.
func NewOfferService(
	offerRepo offerDomain.OfferRepository,
	vehicleRepo vehicleDomain.VehicleRepository,
	provider routing.PolylineProvider,
	producer EventPublisher,
	logger *zap.Logger,
) *OfferService {
	return &OfferService{
		offerRepo:   offerRepo,
		vehicleRepo: vehicleRepo,
		provider:    provider,
		producer:    producer,
		logger:      logger,
	}
}

// CreateOffer posts a new route offer for the given driver. The route
// geometry comes from the polyline provider; when the routing service is
// unavailable the offer is created with the two-point fallback polyline.
func (s *OfferService) CreateOffer(ctx context.Context, driverID uuid.UUID, req CreateOfferRequest) (*OfferDTO, error) {
	veh, err := s.vehicleRepo.FindByID(ctx, req.VehicleID)
	if err != nil {
		return nil, err
	}
	if veh.DriverID() != driverID {
		return nil, domain.NewForbiddenError("vehicle belongs to another driver")
	}
	if req.Seats > veh.SeatCapacity() {
		return nil, domain.NewValidationError(fmt.Sprintf(
			"cannot offer %d seats in a vehicle with capacity %d", req.Seats, veh.SeatCapacity()))
	}

	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}

	route := offerDomain.Route{From: req.From.toDomain(), To: req.To.toDomain()}
	o, err := offerDomain.NewRouteOffer(
		driverID,
		veh.ID(),
		veh.Type(),
		route,
		req.DepartureAt,
		req.Seats,
		req.PricePerSeatCents,
		currency,
		req.Notes,
	)
	if err != nil {
		return nil, err
	}

	info := s.provider.GetRoutePolyline(ctx, route.From.Coordinate, route.To.Coordinate)
	o.AttachPolyline(info.Polyline, info.DistanceKm, info.DurationMin)
	if info.Fallback {
		s.logger.Warn("offer created with fallback polyline",
			zap.String("offer_id", o.ID().String()),
		)
	}

	if err := s.offerRepo.Save(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to save offer: %w", err)
	}

	s.publishLifecycleEvent(ctx, events.OfferCreated, o)

	result := toOfferDTO(o)
	return &result, nil
}

// GetOffer retrieves an offer by ID.
func (s *OfferService) GetOffer(ctx context.Context, id uuid.UUID) (*OfferDTO, error) {
	o, err := s.offerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result := toOfferDTO(o)
	return &result, nil
}

// GetOfferByNumber retrieves an offer by its offer number.
func (s *OfferService) GetOfferByNumber(ctx context.Context, number string) (*OfferDTO, error) {
	o, err := s.offerRepo.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	result := toOfferDTO(o)
	return &result, nil
}

// GetDriverOffers retrieves the driver's offers with pagination.
func (s *OfferService) GetDriverOffers(ctx context.Context, driverID uuid.UUID, page, limit int) ([]OfferDTO, int64, error) {
	offers, total, err := s.offerRepo.FindByDriverID(ctx, driverID, page, limit)
	if err != nil {
		return nil, 0, err
	}
	return toOfferDTOs(offers), total, nil
}

// ActivateOffer makes a pending offer bookable.
func (s *OfferService) ActivateOffer(ctx context.Context, driverID, offerID uuid.UUID) (*OfferDTO, error) {
	return s.mutateOwnOffer(ctx, driverID, offerID, events.OfferActivated,
		func(o *offerDomain.RouteOffer) error { return o.Activate() })
}

// CompleteOffer marks an offer's trip as driven.
func (s *OfferService) CompleteOffer(ctx context.Context, driverID, offerID uuid.UUID) (*OfferDTO, error) {
	return s.mutateOwnOffer(ctx, driverID, offerID, events.OfferCompleted,
		func(o *offerDomain.RouteOffer) error { return o.Complete() })
}

// CancelOffer withdraws an offer.
func (s *OfferService) CancelOffer(ctx context.Context, driverID, offerID uuid.UUID) (*OfferDTO, error) {
	return s.mutateOwnOffer(ctx, driverID, offerID, events.OfferCancelled,
		func(o *offerDomain.RouteOffer) error { return o.Cancel() })
}

// BookSeats reserves seats on an offer on behalf of the bookings service.
func (s *OfferService) BookSeats(ctx context.Context, offerID uuid.UUID, seats int) (*OfferDTO, error) {
	o, err := s.offerRepo.FindByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if err := o.BookSeats(seats); err != nil {
		return nil, err
	}

	o.IncrementVersion()
	if err := s.offerRepo.Update(ctx, o); err != nil {
		return nil, err
	}

	s.publishSeatsEvent(ctx, events.OfferSeatsBooked, o, seats)

	result := toOfferDTO(o)
	return &result, nil
}

// ReleaseSeats returns previously booked seats, reopening a full offer.
func (s *OfferService) ReleaseSeats(ctx context.Context, offerID uuid.UUID, seats int) (*OfferDTO, error) {
	o, err := s.offerRepo.FindByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if err := o.ReleaseSeats(seats); err != nil {
		return nil, err
	}

	o.IncrementVersion()
	if err := s.offerRepo.Update(ctx, o); err != nil {
		return nil, err
	}

	s.publishSeatsEvent(ctx, events.OfferSeatsReleased, o, seats)

	result := toOfferDTO(o)
	return &result, nil
}

// UpdateRoute replaces an offer's endpoints and recomputes the geometry.
func (s *OfferService) UpdateRoute(ctx context.Context, driverID, offerID uuid.UUID, req UpdateRouteRequest) (*OfferDTO, error) {
	o, err := s.offerRepo.FindByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if o.DriverID() != driverID {
		return nil, domain.NewForbiddenError("offer belongs to another driver")
	}

	route := offerDomain.Route{From: req.From.toDomain(), To: req.To.toDomain()}
	if err := o.UpdateRoute(route); err != nil {
		return nil, err
	}

	info := s.provider.GetRoutePolyline(ctx, route.From.Coordinate, route.To.Coordinate)
	o.AttachPolyline(info.Polyline, info.DistanceKm, info.DurationMin)

	o.IncrementVersion()
	if err := s.offerRepo.Update(ctx, o); err != nil {
		return nil, err
	}

	s.publishLifecycleEvent(ctx, events.OfferRouteChanged, o)

	result := toOfferDTO(o)
	return &result, nil
}

// RecomputeRoute refreshes an offer's geometry for its current endpoints.
// Used by the trip event consumer when a driver reroutes.
func (s *OfferService) RecomputeRoute(ctx context.Context, offerID uuid.UUID) error {
	o, err := s.offerRepo.FindByID(ctx, offerID)
	if err != nil {
		return err
	}

	route := o.Route()
	info := s.provider.GetRoutePolyline(ctx, route.From.Coordinate, route.To.Coordinate)
	route.Polyline = info.Polyline
	route.DistanceKm = info.DistanceKm
	route.DurationMin = info.DurationMin

	if err := s.offerRepo.UpdateRouteGeometry(ctx, offerID, route); err != nil {
		return err
	}

	s.logger.Info("recomputed offer route geometry",
		zap.String("offer_id", offerID.String()),
		zap.Int("points", len(info.Polyline)),
		zap.Bool("fallback", info.Fallback),
	)
	return nil
}

// mutateOwnOffer runs a driver-owned state transition and persists it.
func (s *OfferService) mutateOwnOffer(
	ctx context.Context,
	driverID, offerID uuid.UUID,
	eventType string,
	mutate func(*offerDomain.RouteOffer) error,
) (*OfferDTO, error) {
	o, err := s.offerRepo.FindByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if o.DriverID() != driverID {
		return nil, domain.NewForbiddenError("offer belongs to another driver")
	}

	if err := mutate(o); err != nil {
		return nil, err
	}

	o.IncrementVersion()
	if err := s.offerRepo.Update(ctx, o); err != nil {
		return nil, err
	}

	s.publishLifecycleEvent(ctx, eventType, o)

	result := toOfferDTO(o)
	return &result, nil
}

func (s *OfferService) publishLifecycleEvent(ctx context.Context, eventType string, o *offerDomain.RouteOffer) {
	route := o.Route()
	evt := events.OfferEvent{
		OfferID:        o.ID(),
		OfferNumber:    o.OfferNumber(),
		DriverID:       o.DriverID(),
		Status:         string(o.Status()),
		FromLat:        route.From.Lat,
		FromLng:        route.From.Lng,
		ToLat:          route.To.Lat,
		ToLng:          route.To.Lng,
		DepartureAt:    o.DepartureAt(),
		SeatsAvailable: o.SeatsAvailable(),
		OccurredAt:     time.Now().UTC(),
	}
	s.publishEvent(ctx, eventType, evt)
}

func (s *OfferService) publishSeatsEvent(ctx context.Context, eventType string, o *offerDomain.RouteOffer, seats int) {
	evt := events.SeatsChangedEvent{
		OfferID:        o.ID(),
		Seats:          seats,
		SeatsAvailable: o.SeatsAvailable(),
		Status:         string(o.Status()),
		OccurredAt:     time.Now().UTC(),
	}
	s.publishEvent(ctx, eventType, evt)
}

func (s *OfferService) publishEvent(ctx context.Context, eventType string, data interface{}) {
	cloudEvent, err := kafka.NewCloudEvent(eventSource, eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.producer.PublishEvent(ctx, events.TopicOfferEvents, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

// --- Conversion Helpers ---

func toOfferDTO(o *offerDomain.RouteOffer) OfferDTO {
	route := o.Route()
	return OfferDTO{
		ID:                o.ID(),
		OfferNumber:       o.OfferNumber(),
		DriverID:          o.DriverID(),
		VehicleID:         o.VehicleID(),
		VehicleType:       string(o.VehicleType()),
		Status:            string(o.Status()),
		From:              toLocationDTO(route.From),
		To:                toLocationDTO(route.To),
		DistanceKm:        route.DistanceKm,
		DurationMin:       route.DurationMin,
		PolylinePoints:    len(route.Polyline),
		DepartureAt:       o.DepartureAt(),
		SeatsTotal:        o.SeatsTotal(),
		SeatsAvailable:    o.SeatsAvailable(),
		PricePerSeatCents: o.PricePerSeatCents(),
		Currency:          o.Currency(),
		Notes:             o.Notes(),
		Version:           o.Version(),
		CreatedAt:         o.CreatedAt(),
		UpdatedAt:         o.UpdatedAt(),
	}
}

func toOfferDTOs(offers []*offerDomain.RouteOffer) []OfferDTO {
	dtos := make([]OfferDTO, len(offers))
	for i, o := range offers {
		dtos[i] = toOfferDTO(o)
	}
	return dtos
}
