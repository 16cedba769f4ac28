package geo

import "math"

// earthRadiusKm is the mean radius of Earth used by the Haversine formula.
const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two points in
// kilometres.
func HaversineKm(a, b Coordinate) float64 {
	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	latA := degreesToRadians(a.Lat)
	latB := degreesToRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// PointToSegmentKm returns the distance in kilometres from p to the segment
// segStart→segEnd. Lat/lng are treated as a local planar approximation for
// the scalar projection; the clamped projected point is then measured with
// Haversine. Valid for the short (<~50 km) segments of intra-city routes.
func PointToSegmentKm(p, segStart, segEnd Coordinate) float64 {
	dLat := segEnd.Lat - segStart.Lat
	dLng := segEnd.Lng - segStart.Lng

	// Degenerate segment: both endpoints coincide.
	if dLat == 0 && dLng == 0 {
		return HaversineKm(p, segStart)
	}

	t := ((p.Lat-segStart.Lat)*dLat + (p.Lng-segStart.Lng)*dLng) /
		(dLat*dLat + dLng*dLng)
	t = math.Max(0, math.Min(1, t))

	nearest := Coordinate{
		Lat: segStart.Lat + t*dLat,
		Lng: segStart.Lng + t*dLng,
	}
	return HaversineKm(p, nearest)
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
