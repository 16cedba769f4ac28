// Package geo holds the coordinate types and pure geometry used by the
// route-matching engine. It has no dependencies beyond the polyline codec.
package geo

// Coordinate is an immutable WGS-84 point in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NewCoordinate creates a Coordinate from latitude and longitude.
func NewCoordinate(lat, lng float64) Coordinate {
	return Coordinate{Lat: lat, Lng: lng}
}

// IsValid returns true if the coordinate is within WGS-84 bounds.
func (c Coordinate) IsValid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// PathPoint is a coordinate tagged with its position along a path.
type PathPoint struct {
	Coordinate
	Index int `json:"index"`
}

// Polyline is an ordered sequence of path points approximating a driving
// route. Indices are contiguous integers starting at 0 in traversal order.
// A two-point polyline (origin, destination only) is a valid degraded form.
type Polyline []PathPoint

// NewPolyline builds a polyline from an ordered coordinate sequence,
// assigning indices 0..n-1.
func NewPolyline(coords []Coordinate) Polyline {
	points := make(Polyline, len(coords))
	for i, c := range coords {
		points[i] = PathPoint{Coordinate: c, Index: i}
	}
	return points
}

// FallbackPolyline returns the degraded two-point polyline used when no
// route geometry is available.
func FallbackPolyline(from, to Coordinate) Polyline {
	return Polyline{
		{Coordinate: from, Index: 0},
		{Coordinate: to, Index: 1},
	}
}

// First returns the polyline's origin point. Panics on an empty polyline,
// which indicates a contract violation by the caller.
func (p Polyline) First() PathPoint {
	if len(p) == 0 {
		panic("geo: First called on empty polyline")
	}
	return p[0]
}

// Last returns the polyline's destination point. Panics on an empty polyline.
func (p Polyline) Last() PathPoint {
	if len(p) == 0 {
		panic("geo: Last called on empty polyline")
	}
	return p[len(p)-1]
}

// IsDegraded returns true if the polyline carries no real route geometry,
// i.e. fewer points than the two-point fallback form.
func (p Polyline) IsDegraded() bool {
	return len(p) < 2
}

// LengthKm returns the summed segment length of the polyline in kilometres.
func (p Polyline) LengthKm() float64 {
	var total float64
	for i := 0; i < len(p)-1; i++ {
		total += HaversineKm(p[i].Coordinate, p[i+1].Coordinate)
	}
	return total
}
