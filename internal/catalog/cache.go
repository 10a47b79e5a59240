package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/walid-afk/salon-scheduler/pkg/logging"
)

const (
	cacheKey        = "catalog:services"
	defaultCatalogTTL = 5 * time.Minute
)

// Cached is a read-through Redis cache over the catalog API. The
// Shopify Admin API is throttled upstream, so availability and booking
// paths read through this cache rather than hitting it per request.
type Cached struct {
	next   API
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewCached wraps next with a Redis cache. A zero ttl uses five minutes.
func NewCached(next API, redisClient *redis.Client, ttl time.Duration, logger *logging.Logger) *Cached {
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = defaultCatalogTTL
	}
	return &Cached{next: next, redis: redisClient, ttl: ttl, logger: logger}
}

// ListServices returns the cached catalog when present, otherwise
// delegates and stores the result. Cache failures fall through to the
// underlying client; fetch errors are never cached.
func (c *Cached) ListServices(ctx context.Context) ([]Service, error) {
	data, err := c.redis.Get(ctx, cacheKey).Bytes()
	if err == nil {
		var services []Service
		if jsonErr := json.Unmarshal(data, &services); jsonErr == nil {
			return services, nil
		}
		_ = c.redis.Del(ctx, cacheKey).Err()
	} else if err != redis.Nil {
		c.logger.Warn("catalog cache read failed", "error", err)
	}

	services, err := c.next.ListServices(ctx)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(services); err == nil {
		if setErr := c.redis.Set(ctx, cacheKey, encoded, c.ttl).Err(); setErr != nil {
			c.logger.Warn("catalog cache write failed", "error", setErr)
		}
	}
	return services, nil
}
