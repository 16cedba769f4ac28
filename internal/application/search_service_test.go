package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ridepool/service-offers/internal/domain/matching"
	offerDomain "github.com/ridepool/service-offers/internal/domain/offer"
	"github.com/ridepool/service-offers/internal/pkg/geo"
)

func newSearchService(repo *fakeOfferRepo) *SearchService {
	return NewSearchService(repo, matching.NewMatcher(matching.DefaultConfig()), 4, zap.NewNop())
}

func coord(lat, lng float64) *geo.Coordinate {
	return &geo.Coordinate{Lat: lat, Lng: lng}
}

// diagonalRoute returns a polyline running south-west to north-east through
// the origin, long enough for all sub-trips used in these tests.
func diagonalRoute() []geo.Coordinate {
	return []geo.Coordinate{
		{Lat: 0, Lng: 0},
		{Lat: 2.5, Lng: 2.5},
		{Lat: 5, Lng: 5},
		{Lat: 7.5, Lng: 7.5},
		{Lat: 10, Lng: 10},
	}
}

func TestSearch_MatchesCompatibleRoute(t *testing.T) {
	repo := newFakeOfferRepo()
	repo.add(makeActiveOffer(diagonalRoute(), time.Now()))

	result, err := newSearchService(repo).Search(context.Background(), SearchRequest{
		PassengerFrom: coord(2, 2),
		PassengerTo:   coord(8, 8),
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Total)
	require.Len(t, result.Items, 1)
}

func TestSearch_RejectsOppositeDirection(t *testing.T) {
	repo := newFakeOfferRepo()
	repo.add(makeActiveOffer(diagonalRoute(), time.Now()))

	result, err := newSearchService(repo).Search(context.Background(), SearchRequest{
		PassengerFrom: coord(8, 8),
		PassengerTo:   coord(2, 2),
	})

	require.NoError(t, err)
	assert.Zero(t, result.Total)
	assert.Empty(t, result.Items)
}

// An offer still waiting for its polyline is matched against the straight
// line between its route endpoints instead of being hidden from passengers.
func TestSearch_MatchesOfferWithoutPolylineByEndpointLine(t *testing.T) {
	repo := newFakeOfferRepo()
	repo.add(makeActiveOffer(diagonalRoute(), time.Now()))

	bare := makeActiveOffer(diagonalRoute(), time.Now())
	bare.AttachPolyline(nil, 0, 0)
	repo.add(bare)

	result, err := newSearchService(repo).Search(context.Background(), SearchRequest{
		PassengerFrom: coord(2, 2),
		PassengerTo:   coord(8, 8),
	})

	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Total)
}

func TestSearch_BrowseAllWithoutCoordinates(t *testing.T) {
	repo := newFakeOfferRepo()
	repo.add(makeActiveOffer(diagonalRoute(), time.Now()))
	reversed := []geo.Coordinate{{Lat: 10, Lng: 10}, {Lat: 5, Lng: 5}, {Lat: 0, Lng: 0}}
	repo.add(makeActiveOffer(reversed, time.Now()))

	result, err := newSearchService(repo).Search(context.Background(), SearchRequest{})

	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Total, "browse-all skips the geometric filter")
}

func TestSearch_RejectsInvalidCoordinates(t *testing.T) {
	repo := newFakeOfferRepo()

	_, err := newSearchService(repo).Search(context.Background(), SearchRequest{
		PassengerFrom: coord(91, 0),
		PassengerTo:   coord(0, 0),
	})
	assert.Error(t, err)

	_, err = newSearchService(repo).Search(context.Background(), SearchRequest{
		PassengerFrom: coord(2, 2),
	})
	assert.Error(t, err, "origin without destination is rejected")
}

func TestSearch_PaginatesAfterGeometricFilter(t *testing.T) {
	repo := newFakeOfferRepo()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 25; i++ {
		repo.add(makeActiveOffer(diagonalRoute(), base.Add(time.Duration(i)*time.Minute)))
	}
	// Offers the passenger cannot match must not count towards totals.
	reversed := []geo.Coordinate{{Lat: 10, Lng: 10}, {Lat: 5, Lng: 5}, {Lat: 0, Lng: 0}}
	for i := 0; i < 5; i++ {
		repo.add(makeActiveOffer(reversed, base.Add(time.Duration(100+i)*time.Minute)))
	}

	svc := newSearchService(repo)
	req := SearchRequest{
		PassengerFrom: coord(2, 2),
		PassengerTo:   coord(8, 8),
		Page:          2,
		Limit:         10,
	}

	result, err := svc.Search(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, int64(25), result.Total)
	assert.Len(t, result.Items, 10)

	// Page 3 holds the remaining 5 matches.
	req.Page = 3
	result, err = svc.Search(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, result.Items, 5)

	// Past the last page comes back empty, never an error.
	req.Page = 4
	result, err = svc.Search(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.Equal(t, int64(25), result.Total)
}

func TestSearch_OrdersNewestFirst(t *testing.T) {
	repo := newFakeOfferRepo()
	base := time.Now().Add(-time.Hour)
	oldest := makeActiveOffer(diagonalRoute(), base)
	middle := makeActiveOffer(diagonalRoute(), base.Add(10*time.Minute))
	newest := makeActiveOffer(diagonalRoute(), base.Add(20*time.Minute))
	repo.add(middle)
	repo.add(oldest)
	repo.add(newest)

	result, err := newSearchService(repo).Search(context.Background(), SearchRequest{
		PassengerFrom: coord(2, 2),
		PassengerTo:   coord(8, 8),
	})

	require.NoError(t, err)
	require.Len(t, result.Items, 3)
	assert.Equal(t, newest.ID(), result.Items[0].ID)
	assert.Equal(t, middle.ID(), result.Items[1].ID)
	assert.Equal(t, oldest.ID(), result.Items[2].ID)
}

func TestSearch_AppliesCoarseFilters(t *testing.T) {
	repo := newFakeOfferRepo()
	cheap := makeActiveOffer(diagonalRoute(), time.Now())
	repo.add(cheap)

	expensive := offerDomain.ReconstructRouteOffer(
		uuid.New(), "RO-PRICEY", cheap.DriverID(), cheap.VehicleID(),
		cheap.VehicleType(), offerDomain.StatusActive, cheap.Route(),
		cheap.DepartureAt(), 3, 3, 990000, "INR", "", 1,
		time.Now(), time.Now(),
	)
	repo.add(expensive)

	maxPrice := int64(100000)
	result, err := newSearchService(repo).Search(context.Background(), SearchRequest{
		PassengerFrom: coord(2, 2),
		PassengerTo:   coord(8, 8),
		Filter:        offerDomain.SearchFilter{MaxPriceCents: &maxPrice},
	})

	require.NoError(t, err)
	require.Equal(t, int64(1), result.Total)
	assert.Equal(t, cheap.ID(), result.Items[0].ID)
}
