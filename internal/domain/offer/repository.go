package offer

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ridepool/service-offers/internal/domain/vehicle"
)

// SearchFilter holds the non-geometric search criteria pushed down to the
// store. Geometric filtering happens afterwards, in memory, over the
// candidates this filter returns.
type SearchFilter struct {
	// DepartureDate matches offers departing on this calendar day (UTC).
	DepartureDate *time.Time
	VehicleType   *vehicle.VehicleType
	MinPriceCents *int64
	MaxPriceCents *int64
	// MinSeats requires at least this many available seats; defaults to 1.
	MinSeats int
}

// OfferRepository defines the persistence contract for route offers.
type OfferRepository interface {
	// FindByID retrieves an offer by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*RouteOffer, error)

	// FindByNumber retrieves an offer by its human-readable offer number.
	FindByNumber(ctx context.Context, number string) (*RouteOffer, error)

	// FindByDriverID retrieves offers posted by a specific driver with pagination.
	FindByDriverID(ctx context.Context, driverID uuid.UUID, page, limit int) ([]*RouteOffer, int64, error)

	// SearchCandidates returns every searchable offer (status active or
	// pending, seats available) matching the coarse filter, newest first.
	// Pagination is intentionally NOT applied here: the geometric filter
	// runs over the full candidate set so result totals stay correct.
	SearchCandidates(ctx context.Context, filter SearchFilter) ([]*RouteOffer, error)

	// ListAll retrieves all offers with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*RouteOffer, int64, error)

	// CountByStatus returns offer counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// ListMissingPolyline returns up to limit offers whose stored polyline
	// has fewer than two points, for the backfill operation.
	ListMissingPolyline(ctx context.Context, limit int) ([]*RouteOffer, error)

	// UpdateRouteGeometry persists a recomputed polyline and route metrics
	// for a single offer without touching the rest of the row.
	UpdateRouteGeometry(ctx context.Context, id uuid.UUID, route Route) error

	// Save persists a new offer.
	Save(ctx context.Context, o *RouteOffer) error

	// Update persists changes to an existing offer with optimistic locking.
	Update(ctx context.Context, o *RouteOffer) error
}
