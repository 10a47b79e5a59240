package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/walid-afk/salon-scheduler/internal/schedule"
	"github.com/walid-afk/salon-scheduler/internal/timegrid"
	"github.com/walid-afk/salon-scheduler/pkg/logging"
)

const defaultBusyTTL = 60 * time.Second

// CachedSource is a read-through Redis cache in front of a BusySource.
// Calendar data goes stale fast, so the TTL is short; cache failures are
// logged and the query falls through to the underlying source. Fetch
// errors are never cached.
type CachedSource struct {
	next   BusySource
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewCachedSource wraps next with a Redis cache. A zero ttl uses the
// default of one minute.
func NewCachedSource(next BusySource, redisClient *redis.Client, ttl time.Duration, logger *logging.Logger) *CachedSource {
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = defaultBusyTTL
	}
	return &CachedSource{next: next, redis: redisClient, ttl: ttl, logger: logger}
}

func (c *CachedSource) key(employeeID string, day time.Time, opening timegrid.OpeningSpec) string {
	return fmt.Sprintf("busy:%s:%s:%s", employeeID, day.Format("2006-01-02"), opening)
}

// FetchBusyIntervals returns cached intervals when present, otherwise
// delegates and stores the result.
func (c *CachedSource) FetchBusyIntervals(ctx context.Context, employeeID string, day time.Time, opening timegrid.OpeningSpec) ([]schedule.Interval, error) {
	key := c.key(employeeID, day, opening)

	data, err := c.redis.Get(ctx, key).Bytes()
	if err == nil {
		var busy []schedule.Interval
		if jsonErr := json.Unmarshal(data, &busy); jsonErr == nil {
			return busy, nil
		}
		// Unreadable entry: drop it and refetch.
		_ = c.redis.Del(ctx, key).Err()
	} else if err != redis.Nil {
		c.logger.Warn("busy cache read failed", "key", key, "error", err)
	}

	busy, err := c.next.FetchBusyIntervals(ctx, employeeID, day, opening)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(busy)
	if err == nil {
		if setErr := c.redis.Set(ctx, key, encoded, c.ttl).Err(); setErr != nil {
			c.logger.Warn("busy cache write failed", "key", key, "error", setErr)
		}
	}
	return busy, nil
}
