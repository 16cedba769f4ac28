package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func diagonalPolyline() Polyline {
	return NewPolyline([]Coordinate{
		{Lat: 0, Lng: 0},
		{Lat: 5, Lng: 5},
		{Lat: 10, Lng: 10},
	})
}

func TestProject_SelfMatchEndpoints(t *testing.T) {
	pl := diagonalPolyline()

	first := Project(pl.First().Coordinate, pl)
	assert.Equal(t, pl.First().Index, first.Index)
	assert.InDelta(t, 0.0, first.DistanceKm, 1e-6)

	last := Project(pl.Last().Coordinate, pl)
	assert.Equal(t, pl.Last().Index, last.Index)
	assert.InDelta(t, 0.0, last.DistanceKm, 1e-6)
}

func TestProject_MonotonicIndicesAlongPath(t *testing.T) {
	pl := diagonalPolyline()

	samples := []Coordinate{
		{Lat: 0, Lng: 0},
		{Lat: 1, Lng: 1},
		{Lat: 4, Lng: 4},
		{Lat: 5, Lng: 5},
		{Lat: 6, Lng: 6},
		{Lat: 9, Lng: 9},
		{Lat: 10, Lng: 10},
	}

	prev := -1
	for _, s := range samples {
		res := Project(s, pl)
		require.GreaterOrEqual(t, res.Index, prev, "index regressed at %+v", s)
		prev = res.Index
	}
}

func TestProject_NearestEndpointIndex(t *testing.T) {
	pl := diagonalPolyline()

	// Closer to (5,5) than to (0,0), so the winning segment's nearer
	// endpoint carries index 1.
	res := Project(Coordinate{Lat: 4, Lng: 4}, pl)
	assert.Equal(t, 1, res.Index)

	res = Project(Coordinate{Lat: 1, Lng: 1}, pl)
	assert.Equal(t, 0, res.Index)
}

func TestProject_EqualDistanceKeepsLaterSegment(t *testing.T) {
	// Routing services may repeat a coordinate; both segments touching the
	// duplicated point are equidistant, and the scan keeps the later one.
	pl := NewPolyline([]Coordinate{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 0},
		{Lat: 1, Lng: 1},
	})

	res := Project(Coordinate{Lat: 0, Lng: 0}, pl)
	assert.Equal(t, 1, res.Index)
	assert.InDelta(t, 0.0, res.DistanceKm, 1e-9)
}

func TestProject_OffRouteDistance(t *testing.T) {
	// Polyline along the equator; point 0.05 degrees north, ~5.5 km off.
	pl := NewPolyline([]Coordinate{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 0.5},
		{Lat: 0, Lng: 1},
	})

	res := Project(Coordinate{Lat: 0.05, Lng: 0.25}, pl)
	assert.InDelta(t, 5.56, res.DistanceKm, 0.1)
}

func TestProject_SinglePointDegenerate(t *testing.T) {
	single := Polyline{{Coordinate: Coordinate{Lat: 2, Lng: 2}, Index: 0}}

	res := Project(Coordinate{Lat: 2, Lng: 3}, single)
	assert.Equal(t, 0, res.Index)
	assert.InDelta(t, HaversineKm(Coordinate{Lat: 2, Lng: 3}, Coordinate{Lat: 2, Lng: 2}), res.DistanceKm, 1e-9)
}

func TestProject_EmptyPolylinePanics(t *testing.T) {
	assert.Panics(t, func() {
		Project(Coordinate{}, Polyline{})
	})
}

func TestEncodeDecodePolyline_RoundTrip(t *testing.T) {
	pl := diagonalPolyline()

	encoded := EncodePolyline(pl)
	require.NotEmpty(t, encoded)

	decoded, err := DecodePolyline(encoded)
	require.NoError(t, err)
	require.Len(t, decoded, len(pl))
	for i := range pl {
		assert.InDelta(t, pl[i].Lat, decoded[i].Lat, 1e-5)
		assert.InDelta(t, pl[i].Lng, decoded[i].Lng, 1e-5)
		assert.Equal(t, pl[i].Index, decoded[i].Index)
	}
}

func TestDecodePolyline_Empty(t *testing.T) {
	decoded, err := DecodePolyline("")
	assert.NoError(t, err)
	assert.Nil(t, decoded)
}
