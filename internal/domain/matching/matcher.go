// Package matching decides whether a passenger's trip lies "on the way" of a
// driver's posted route, using only the driver's stored polyline and the
// passenger's endpoint coordinates.
package matching

import (
	"math"

	"github.com/ridepool/service-offers/internal/pkg/geo"
)

// Rejection reasons returned in MatchDecision. Each failing check has its own
// reason so searches can be debugged from logs alone.
const (
	ReasonMatch            = "match"
	ReasonDirection        = "direction_mismatch"
	ReasonOutOfBounds      = "outside_route_bounds"
	ReasonBackwards        = "travels_backwards"
	ReasonOffRoute         = "off_route_distance_exceeded"
	ReasonIndexOrder       = "index_order_violation"
	ReasonLengthExceeded   = "passenger_trip_longer_than_route"
	ReasonDegradedPolyline = "polyline_missing"
)

// MatchDecision is the outcome of a compatibility check. Ephemeral, used for
// filtering and logging only.
type MatchDecision struct {
	IsMatch bool
	Reason  string
}

// Config holds the matching policy thresholds. The defaults are deliberate
// product constants, not derived values.
type Config struct {
	// MaxOffRouteKm bounds how far a passenger endpoint may lie from the
	// driver's polyline.
	MaxOffRouteKm float64
	// LengthRatioSlack allows the passenger's straight-line trip to exceed
	// the driver's endpoint distance by this factor, absorbing route
	// curvature.
	LengthRatioSlack float64
}

// DefaultConfig returns the production matching thresholds.
func DefaultConfig() Config {
	return Config{
		MaxOffRouteKm:    3.0,
		LengthRatioSlack: 1.1,
	}
}

// Matcher applies the route-compatibility decision. It is stateless and safe
// for concurrent use.
type Matcher struct {
	cfg Config
}

// NewMatcher creates a Matcher with the given thresholds. Zero thresholds
// fall back to the defaults.
func NewMatcher(cfg Config) *Matcher {
	def := DefaultConfig()
	if cfg.MaxOffRouteKm <= 0 {
		cfg.MaxOffRouteKm = def.MaxOffRouteKm
	}
	if cfg.LengthRatioSlack <= 0 {
		cfg.LengthRatioSlack = def.LengthRatioSlack
	}
	return &Matcher{cfg: cfg}
}

// IsCompatible runs the six compatibility checks in order, cheapest first,
// short-circuiting on the first failure. Projection (the only O(n) step) runs
// only after the vector and box pre-filters have passed.
//
// The direction, bounding-box and ordering checks operate on raw lat/lng
// deltas as if the plane were Euclidean. This matches the established product
// behaviour; routes crossing the anti-meridian or near the poles are
// unsupported.
func (m *Matcher) IsCompatible(passengerFrom, passengerTo geo.Coordinate, driverPolyline geo.Polyline) MatchDecision {
	if driverPolyline.IsDegraded() {
		return MatchDecision{Reason: ReasonDegradedPolyline}
	}

	driverFrom := driverPolyline.First()
	driverTo := driverPolyline.Last()

	// 1. Direction consistency, per axis, zero delta acting as a wildcard.
	if !sameDirection(driverTo.Lat-driverFrom.Lat, passengerTo.Lat-passengerFrom.Lat) ||
		!sameDirection(driverTo.Lng-driverFrom.Lng, passengerTo.Lng-passengerFrom.Lng) {
		return MatchDecision{Reason: ReasonDirection}
	}

	// 2. Both passenger endpoints inside the driver endpoint bounding box.
	if !inBounds(passengerFrom, driverFrom.Coordinate, driverTo.Coordinate) ||
		!inBounds(passengerTo, driverFrom.Coordinate, driverTo.Coordinate) {
		return MatchDecision{Reason: ReasonOutOfBounds}
	}

	// 3. Passenger travels forward along the driver's dominant axis.
	if !ordersForward(passengerFrom, passengerTo, driverFrom.Coordinate, driverTo.Coordinate) {
		return MatchDecision{Reason: ReasonBackwards}
	}

	// 4. Both endpoints within the off-route distance bound.
	fromProj := geo.Project(passengerFrom, driverPolyline)
	if fromProj.DistanceKm > m.cfg.MaxOffRouteKm {
		return MatchDecision{Reason: ReasonOffRoute}
	}
	toProj := geo.Project(passengerTo, driverPolyline)
	if toProj.DistanceKm > m.cfg.MaxOffRouteKm {
		return MatchDecision{Reason: ReasonOffRoute}
	}

	// 5. Passenger segment is a correctly ordered sub-range of the path.
	if !(driverFrom.Index <= fromProj.Index &&
		fromProj.Index < toProj.Index &&
		toProj.Index <= driverTo.Index) {
		return MatchDecision{Reason: ReasonIndexOrder}
	}

	// 6. A trip longer than the whole route cannot be a sub-trip of it.
	driverLengthKm := geo.HaversineKm(driverFrom.Coordinate, driverTo.Coordinate)
	passengerLengthKm := geo.HaversineKm(passengerFrom, passengerTo)
	if passengerLengthKm > driverLengthKm*m.cfg.LengthRatioSlack {
		return MatchDecision{Reason: ReasonLengthExceeded}
	}

	return MatchDecision{IsMatch: true, Reason: ReasonMatch}
}

// sameDirection reports whether two axis deltas agree in sign, treating an
// exactly-zero delta as matching any sign.
func sameDirection(driverDelta, passengerDelta float64) bool {
	if driverDelta == 0 || passengerDelta == 0 {
		return true
	}
	return math.Signbit(driverDelta) == math.Signbit(passengerDelta)
}

// inBounds reports whether p lies within the axis-aligned box spanned by the
// two corner coordinates, inclusive.
func inBounds(p, cornerA, cornerB geo.Coordinate) bool {
	minLat := math.Min(cornerA.Lat, cornerB.Lat)
	maxLat := math.Max(cornerA.Lat, cornerB.Lat)
	minLng := math.Min(cornerA.Lng, cornerB.Lng)
	maxLng := math.Max(cornerA.Lng, cornerB.Lng)

	return p.Lat >= minLat && p.Lat <= maxLat &&
		p.Lng >= minLng && p.Lng <= maxLng
}

// ordersForward verifies, along the driver's dominant travel axis, that the
// passenger's origin precedes their destination in the driver's direction of
// travel. Latitude is preferred unless the driver barely moves on it.
func ordersForward(passengerFrom, passengerTo, driverFrom, driverTo geo.Coordinate) bool {
	dLat := driverTo.Lat - driverFrom.Lat
	dLng := driverTo.Lng - driverFrom.Lng

	if math.Abs(dLat) > 1e-9 {
		if dLat > 0 {
			return passengerFrom.Lat < passengerTo.Lat
		}
		return passengerFrom.Lat > passengerTo.Lat
	}
	if math.Abs(dLng) > 1e-9 {
		if dLng > 0 {
			return passengerFrom.Lng < passengerTo.Lng
		}
		return passengerFrom.Lng > passengerTo.Lng
	}
	// Driver origin and destination coincide; nothing can be ordered.
	return false
}
