package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ridepool/service-offers/internal/pkg/geo"
)

// averageCitySpeedKmph estimates trip duration on the fallback path, where no
// routed duration is available.
const averageCitySpeedKmph = 30.0

// osrmResponse mirrors the OSRM route response. Coordinates arrive as
// [lng, lat] pairs.
type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"` // metres
		Duration float64 `json:"duration"` // seconds
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

// OSRMClient fetches driving-route geometry from an OSRM-compatible HTTP
// endpoint.
type OSRMClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewOSRMClient creates an OSRMClient. The timeout bounds the whole outbound
// call; on expiry the fallback polyline is returned, not an error.
func NewOSRMClient(baseURL string, timeout time.Duration, logger *zap.Logger) *OSRMClient {
	return &OSRMClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// GetRoutePolyline requests the full route geometry between from and to.
// Any failure degrades to the two-point fallback polyline with haversine
// distance and an estimated duration. There are no retries; offer creation
// must stay available even when the routing service is down.
func (c *OSRMClient) GetRoutePolyline(ctx context.Context, from, to geo.Coordinate) RouteInfo {
	url := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=full&geometries=geojson",
		c.baseURL, from.Lng, from.Lat, to.Lng, to.Lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.logger.Warn("failed to build routing request", zap.Error(err))
		return c.fallback(from, to)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("routing service unreachable, using fallback polyline",
			zap.Error(err))
		return c.fallback(from, to)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("routing service returned non-OK status, using fallback polyline",
			zap.Int("status", resp.StatusCode))
		return c.fallback(from, to)
	}

	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.logger.Warn("failed to decode routing response, using fallback polyline",
			zap.Error(err))
		return c.fallback(from, to)
	}

	// A polyline needs at least two points; a shorter geometry is unusable.
	if body.Code != "Ok" || len(body.Routes) == 0 ||
		len(body.Routes[0].Geometry.Coordinates) < 2 {
		c.logger.Warn("routing service returned no usable route, using fallback polyline",
			zap.String("code", body.Code))
		return c.fallback(from, to)
	}

	route := body.Routes[0]
	coords := make([]geo.Coordinate, len(route.Geometry.Coordinates))
	for i, pair := range route.Geometry.Coordinates {
		if len(pair) < 2 {
			c.logger.Warn("routing service returned malformed coordinate pair, using fallback polyline")
			return c.fallback(from, to)
		}
		coords[i] = geo.Coordinate{Lat: pair[1], Lng: pair[0]}
	}

	return RouteInfo{
		Polyline:    geo.NewPolyline(coords),
		DistanceKm:  route.Distance / 1000.0,
		DurationMin: route.Duration / 60.0,
	}
}

func (c *OSRMClient) fallback(from, to geo.Coordinate) RouteInfo {
	distanceKm := geo.HaversineKm(from, to)
	return RouteInfo{
		Polyline:    geo.FallbackPolyline(from, to),
		DistanceKm:  distanceKm,
		DurationMin: distanceKm / averageCitySpeedKmph * 60.0,
		Fallback:    true,
	}
}
