package application

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	offerDomain "github.com/ridepool/service-offers/internal/domain/offer"
	vehicleDomain "github.com/ridepool/service-offers/internal/domain/vehicle"
	"github.com/ridepool/service-offers/internal/pkg/domain"
	"github.com/ridepool/service-offers/internal/pkg/geo"
	"github.com/ridepool/service-offers/internal/pkg/kafka"
	"github.com/ridepool/service-offers/internal/routing"
)

// fakeOfferRepo is an in-memory OfferRepository for service tests.
type fakeOfferRepo struct {
	mu     sync.Mutex
	offers map[uuid.UUID]*offerDomain.RouteOffer

	geometryUpdates map[uuid.UUID]int
	failGeometryFor map[uuid.UUID]bool
}

func newFakeOfferRepo() *fakeOfferRepo {
	return &fakeOfferRepo{
		offers:          make(map[uuid.UUID]*offerDomain.RouteOffer),
		geometryUpdates: make(map[uuid.UUID]int),
		failGeometryFor: make(map[uuid.UUID]bool),
	}
}

func (r *fakeOfferRepo) add(o *offerDomain.RouteOffer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.offers[o.ID()] = o
}

func (r *fakeOfferRepo) FindByID(_ context.Context, id uuid.UUID) (*offerDomain.RouteOffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.offers[id]
	if !ok {
		return nil, domain.NewNotFoundError("RouteOffer", id.String())
	}
	return o, nil
}

func (r *fakeOfferRepo) FindByNumber(_ context.Context, number string) (*offerDomain.RouteOffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.offers {
		if o.OfferNumber() == number {
			return o, nil
		}
	}
	return nil, domain.NewNotFoundError("RouteOffer", number)
}

func (r *fakeOfferRepo) FindByDriverID(_ context.Context, driverID uuid.UUID, page, limit int) ([]*offerDomain.RouteOffer, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*offerDomain.RouteOffer
	for _, o := range r.offers {
		if o.DriverID() == driverID {
			out = append(out, o)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeOfferRepo) SearchCandidates(_ context.Context, filter offerDomain.SearchFilter) ([]*offerDomain.RouteOffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	minSeats := filter.MinSeats
	if minSeats < 1 {
		minSeats = 1
	}

	var out []*offerDomain.RouteOffer
	for _, o := range r.offers {
		searchable := false
		for _, s := range offerDomain.SearchableStatuses {
			if o.Status() == s {
				searchable = true
			}
		}
		if !searchable || o.SeatsAvailable() < minSeats {
			continue
		}
		if filter.VehicleType != nil && o.VehicleType() != *filter.VehicleType {
			continue
		}
		if filter.MinPriceCents != nil && o.PricePerSeatCents() < *filter.MinPriceCents {
			continue
		}
		if filter.MaxPriceCents != nil && o.PricePerSeatCents() > *filter.MaxPriceCents {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt().After(out[j].CreatedAt())
	})
	return out, nil
}

func (r *fakeOfferRepo) ListAll(_ context.Context, page, limit int) ([]*offerDomain.RouteOffer, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*offerDomain.RouteOffer
	for _, o := range r.offers {
		out = append(out, o)
	}
	return out, int64(len(out)), nil
}

func (r *fakeOfferRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, o := range r.offers {
		counts[string(o.Status())]++
	}
	return counts, nil
}

func (r *fakeOfferRepo) ListMissingPolyline(_ context.Context, limit int) ([]*offerDomain.RouteOffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*offerDomain.RouteOffer
	for _, o := range r.offers {
		if !o.Route().HasPolyline() && len(out) < limit {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeOfferRepo) UpdateRouteGeometry(_ context.Context, id uuid.UUID, route offerDomain.Route) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failGeometryFor[id] {
		return fmt.Errorf("simulated write failure")
	}
	o, ok := r.offers[id]
	if !ok {
		return domain.NewNotFoundError("RouteOffer", id.String())
	}
	o.AttachPolyline(route.Polyline, route.DistanceKm, route.DurationMin)
	r.geometryUpdates[id]++
	return nil
}

func (r *fakeOfferRepo) Save(_ context.Context, o *offerDomain.RouteOffer) error {
	r.add(o)
	return nil
}

func (r *fakeOfferRepo) Update(_ context.Context, o *offerDomain.RouteOffer) error {
	r.add(o)
	return nil
}

// fakeVehicleRepo is an in-memory VehicleRepository.
type fakeVehicleRepo struct {
	vehicles map[uuid.UUID]*vehicleDomain.Vehicle
}

func newFakeVehicleRepo() *fakeVehicleRepo {
	return &fakeVehicleRepo{vehicles: make(map[uuid.UUID]*vehicleDomain.Vehicle)}
}

func (r *fakeVehicleRepo) FindByID(_ context.Context, id uuid.UUID) (*vehicleDomain.Vehicle, error) {
	v, ok := r.vehicles[id]
	if !ok {
		return nil, domain.NewNotFoundError("Vehicle", id.String())
	}
	return v, nil
}

func (r *fakeVehicleRepo) FindByDriverID(_ context.Context, driverID uuid.UUID) ([]*vehicleDomain.Vehicle, error) {
	var out []*vehicleDomain.Vehicle
	for _, v := range r.vehicles {
		if v.DriverID() == driverID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *fakeVehicleRepo) Save(_ context.Context, v *vehicleDomain.Vehicle) error {
	r.vehicles[v.ID()] = v
	return nil
}

func (r *fakeVehicleRepo) Update(_ context.Context, v *vehicleDomain.Vehicle) error {
	r.vehicles[v.ID()] = v
	return nil
}

func (r *fakeVehicleRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.vehicles, id)
	return nil
}

// fakePublisher records published events.
type fakePublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
}

func (p *fakePublisher) PublishEvent(_ context.Context, _ string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.Type
	}
	return types
}

// fakeProvider returns a canned polyline for every request.
type fakeProvider struct {
	mu       sync.Mutex
	calls    int
	fallback bool
}

func (p *fakeProvider) GetRoutePolyline(_ context.Context, from, to geo.Coordinate) routing.RouteInfo {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	if p.fallback {
		return routing.RouteInfo{
			Polyline:   geo.FallbackPolyline(from, to),
			DistanceKm: geo.HaversineKm(from, to),
			Fallback:   true,
		}
	}
	mid := geo.Coordinate{Lat: (from.Lat + to.Lat) / 2, Lng: (from.Lng + to.Lng) / 2}
	return routing.RouteInfo{
		Polyline:    geo.NewPolyline([]geo.Coordinate{from, mid, to}),
		DistanceKm:  geo.HaversineKm(from, to) * 1.2,
		DurationMin: 30,
	}
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// makeActiveOffer builds an active offer with the given route polyline and
// creation time, for search tests.
func makeActiveOffer(coords []geo.Coordinate, createdAt time.Time) *offerDomain.RouteOffer {
	from := offerDomain.Location{Coordinate: coords[0], Address: "origin"}
	to := offerDomain.Location{Coordinate: coords[len(coords)-1], Address: "destination"}
	polyline := geo.NewPolyline(coords)

	return offerDomain.ReconstructRouteOffer(
		uuid.New(),
		"RO-TEST01",
		uuid.New(),
		uuid.New(),
		vehicleDomain.TypeSedan,
		offerDomain.StatusActive,
		offerDomain.Route{
			From:       from,
			To:         to,
			DistanceKm: polyline.LengthKm(),
			Polyline:   polyline,
		},
		time.Now().Add(24*time.Hour),
		3, 3,
		50000,
		"INR",
		"",
		1,
		createdAt, createdAt,
	)
}
