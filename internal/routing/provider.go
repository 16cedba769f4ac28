// Package routing obtains route geometry from an external OSRM-compatible
// routing service, degrading to a straight-line polyline when the service is
// unavailable. Offer creation and backfill call it; search never does.
package routing

import (
	"context"

	"github.com/ridepool/service-offers/internal/pkg/geo"
)

// RouteInfo is the geometry and metrics for a single driving route.
type RouteInfo struct {
	Polyline    geo.Polyline
	DistanceKm  float64
	DurationMin float64
	// Fallback is true when the routing service could not be consulted and
	// the polyline is the degraded two-point form.
	Fallback bool
}

// PolylineProvider returns an ordered path between two coordinates. The
// result is always usable: failures yield the two-point fallback polyline,
// never an error.
type PolylineProvider interface {
	GetRoutePolyline(ctx context.Context, from, to geo.Coordinate) RouteInfo
}
