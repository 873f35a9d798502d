package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is the external-store Cache implementation, grounded on the
// teacher's internal/config/redis.go client construction. Every method
// logs its errors. Get and Has report a miss on failure; Put, Forget and
// ForgetMany also return the error, which StockView discards, so a cache
// failure never reaches a request (spec §4.3 and §7).
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache wraps an already-connected client. Pass nil to disable
// caching entirely; all operations then report misses/no-ops.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// NewRedisClient dials Redis using the supplied address/credentials and
// verifies the connection with a short timeout, mirroring the teacher's
// config.NewRedisClient. Returns nil (not an error) on failure so callers
// degrade to a no-op cache rather than fail startup.
func NewRedisClient(addr, password string, db int) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		slog.Warn("cache: redis ping failed, disabling cache", "addr", addr, "err", err)
		return nil
	}
	return client
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	if c.client == nil {
		return "", false
	}
	v, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("cache: get failed", "key", key, "err", err)
		}
		return "", false
	}
	return v, true
}

func (c *RedisCache) Has(ctx context.Context, key string) bool {
	if c.client == nil {
		return false
	}
	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		slog.Warn("cache: exists failed", "key", key, "err", err)
		return false
	}
	return n > 0
}

func (c *RedisCache) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if c.client == nil {
		return nil
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		slog.Warn("cache: put failed", "key", key, "err", err)
		return err
	}
	return nil
}

func (c *RedisCache) Forget(ctx context.Context, key string) error {
	if c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		slog.Warn("cache: forget failed", "key", key, "err", err)
		return err
	}
	return nil
}

func (c *RedisCache) ForgetMany(ctx context.Context, keys []string) error {
	if c.client == nil || len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		slog.Warn("cache: forget_many failed", "keys", keys, "err", err)
		return err
	}
	return nil
}
