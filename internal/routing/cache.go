package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ridepool/service-offers/internal/pkg/geo"
)

// cachedRoute is the Redis value for a cached routing response. The polyline
// travels in its encoded string form.
type cachedRoute struct {
	Polyline    string  `json:"polyline"`
	DistanceKm  float64 `json:"distance_km"`
	DurationMin float64 `json:"duration_min"`
}

// RedisRouteCache wraps a PolylineProvider with a Redis-backed cache keyed by
// the endpoint pair. Fallback results are never cached so a routing-service
// outage does not poison the cache after recovery.
type RedisRouteCache struct {
	inner  PolylineProvider
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisRouteCache creates a caching decorator around the given provider.
func NewRedisRouteCache(inner PolylineProvider, client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisRouteCache {
	return &RedisRouteCache{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// GetRoutePolyline returns the cached route for this endpoint pair when
// available, delegating to the inner provider otherwise. Cache failures are
// logged and ignored; the cache must never make routing less available.
func (c *RedisRouteCache) GetRoutePolyline(ctx context.Context, from, to geo.Coordinate) RouteInfo {
	key := routeKey(from, to)

	if val, err := c.client.Get(ctx, key).Result(); err == nil {
		var cached cachedRoute
		if jsonErr := json.Unmarshal([]byte(val), &cached); jsonErr == nil {
			if pl, decErr := geo.DecodePolyline(cached.Polyline); decErr == nil && len(pl) >= 2 {
				return RouteInfo{
					Polyline:    pl,
					DistanceKm:  cached.DistanceKm,
					DurationMin: cached.DurationMin,
				}
			}
		}
		c.logger.Warn("discarding malformed cached route", zap.String("key", key))
	} else if err != redis.Nil {
		c.logger.Warn("route cache read failed", zap.Error(err))
	}

	info := c.inner.GetRoutePolyline(ctx, from, to)
	if info.Fallback {
		return info
	}

	payload, err := json.Marshal(cachedRoute{
		Polyline:    geo.EncodePolyline(info.Polyline),
		DistanceKm:  info.DistanceKm,
		DurationMin: info.DurationMin,
	})
	if err == nil {
		if setErr := c.client.Set(ctx, key, payload, c.ttl).Err(); setErr != nil {
			c.logger.Warn("route cache write failed", zap.Error(setErr))
		}
	}
	return info
}

// routeKey builds the cache key from both endpoints, rounded to ~1 m
// precision so nearby re-requests hit the same entry.
func routeKey(from, to geo.Coordinate) string {
	return fmt.Sprintf("route:%.5f,%.5f;%.5f,%.5f", from.Lat, from.Lng, to.Lat, to.Lng)
}
