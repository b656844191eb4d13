package routing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/domicare/rota/pkg/geo"
	"github.com/domicare/rota/pkg/observability"
	"github.com/redis/go-redis/v9"
)

// DefaultCacheTTL is how long a routed duration stays valid. Road
// networks do not change hour to hour.
const DefaultCacheTTL = 24 * time.Hour

// RedisTravelCache caches routed durations in Redis so they survive
// process restarts and are shared between the API server and the
// worker. Only successful Router answers are stored; when the router
// fails the cache returns the straight-line estimate without writing
// anything, so a recovered routing service is picked up on the next
// lookup.
type RedisTravelCache struct {
	client  *redis.Client
	router  Router
	ttl     time.Duration
	metrics observability.Metrics
	logger  *slog.Logger
}

// NewRedisTravelCache wraps a router with a Redis cache. A nil client
// disables caching; lookups then go straight to the router.
func NewRedisTravelCache(client *redis.Client, router Router, ttl time.Duration, metrics observability.Metrics, logger *slog.Logger) *RedisTravelCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisTravelCache{
		client:  client,
		router:  router,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger,
	}
}

// DriveMinutes implements the scheduling application's TravelPlanner.
func (c *RedisTravelCache) DriveMinutes(ctx context.Context, from, to geo.Coordinates) int {
	key := travelCacheKey(from, to)

	if c.client != nil {
		minutes, err := c.client.Get(ctx, key).Int()
		if err == nil {
			c.metrics.Counter(observability.MetricTravelCacheHits, 1)
			return minutes
		}
		if err != redis.Nil {
			c.logger.Warn("travel cache read failed", "key", key, "error", err)
		}
		c.metrics.Counter(observability.MetricTravelCacheMisses, 1)
	}

	minutes, err := c.router.Route(ctx, from, to)
	if err != nil {
		c.logger.Warn("routing lookup failed, using straight-line estimate",
			"error", err,
		)
		c.metrics.Counter(observability.MetricTravelFallbacks, 1)
		return geo.EstimateDriveMinutes(from, to)
	}

	if c.client != nil {
		if err := c.client.Set(ctx, key, minutes, c.ttl).Err(); err != nil {
			c.logger.Warn("travel cache write failed", "key", key, "error", err)
		}
	}

	return minutes
}

// travelCacheKey rounds both coordinates to five decimal places (about
// a metre) so equal locations share an entry.
func travelCacheKey(from, to geo.Coordinates) string {
	return fmt.Sprintf("rota:travel:%.5f,%.5f:%.5f,%.5f",
		from.Latitude, from.Longitude, to.Latitude, to.Longitude)
}
