package offer

import "github.com/ridepool/service-offers/internal/pkg/geo"

// Location is a geocoded point with its human-readable address. Geocoding
// happens upstream; the value is consumed as-is.
type Location struct {
	geo.Coordinate
	Address string `json:"address"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Pincode string `json:"pincode,omitempty"`
}

// Route is the driver's posted point-to-point trip. The polyline is optional
// at creation time but should be populated before the route participates in
// matching; without it the offer is matched against the straight line between
// its endpoints, at reduced precision.
type Route struct {
	From        Location     `json:"from"`
	To          Location     `json:"to"`
	DistanceKm  float64      `json:"distance_km,omitempty"`
	DurationMin float64      `json:"duration_min,omitempty"`
	Polyline    geo.Polyline `json:"polyline,omitempty"`
}

// HasPolyline returns true if the route carries a usable polyline.
func (r Route) HasPolyline() bool {
	return len(r.Polyline) >= 2
}
