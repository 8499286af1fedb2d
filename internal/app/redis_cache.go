/**
 * @description
 * Redis-backed SummaryCache for deployments where several instances should
 * share memoized period summaries. Entries are stored as JSON with a TTL and,
 * like the in-memory cache, each write replaces the entry wholesale.
 *
 * Failure policy: Redis errors are logged and treated as cache misses so a
 * Redis outage degrades to recomputation, never to a failed request.
 */

package app

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gestioncarteras/cartera-service/internal/reconcile"
	"github.com/redis/go-redis/v9"
)

// RedisSummaryCache implements SummaryCache on a shared Redis instance.
type RedisSummaryCache struct {
	client *redis.Client
	logger *slog.Logger
	prefix string
	ttl    time.Duration
}

// NewRedisSummaryCache creates a Redis-backed cache. prefix namespaces the
// keys so other tenants of the same Redis never collide.
func NewRedisSummaryCache(client *redis.Client, logger *slog.Logger, prefix string, ttl time.Duration) *RedisSummaryCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisSummaryCache{
		client: client,
		logger: logger,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *RedisSummaryCache) key(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + ":" + key
}

func (c *RedisSummaryCache) Get(ctx context.Context, key string) (reconcile.PeriodSummary, bool) {
	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("redis cache read failed", "key", key, "error", err)
		}
		return reconcile.PeriodSummary{}, false
	}
	var summary reconcile.PeriodSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		c.logger.Warn("redis cache entry corrupt; discarding", "key", key, "error", err)
		if delErr := c.client.Del(ctx, c.key(key)).Err(); delErr != nil {
			c.logger.Warn("redis cache delete failed", "key", key, "error", delErr)
		}
		return reconcile.PeriodSummary{}, false
	}
	return summary, true
}

func (c *RedisSummaryCache) Set(ctx context.Context, key string, summary reconcile.PeriodSummary) {
	raw, err := json.Marshal(summary)
	if err != nil {
		c.logger.Warn("redis cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, c.key(key), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("redis cache write failed", "key", key, "error", err)
	}
}
