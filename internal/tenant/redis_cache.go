package tenant

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache shares actor -> tenant lookups between server replicas.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func cacheKey(actorID uint) string {
	return fmt.Sprintf("pos:tenant:actor:%d", actorID)
}

func (c *RedisCache) Get(ctx context.Context, actorID uint) (uint, bool) {
	val, err := c.client.Get(ctx, cacheKey(actorID)).Result()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("tenant cache read failed", "actor_id", actorID, "error", err)
		}
		return 0, false
	}
	tenantID, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(tenantID), true
}

func (c *RedisCache) Set(ctx context.Context, actorID, tenantID uint) {
	if err := c.client.Set(ctx, cacheKey(actorID), tenantID, c.ttl).Err(); err != nil {
		slog.Warn("tenant cache write failed", "actor_id", actorID, "error", err)
	}
}
