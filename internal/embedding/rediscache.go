package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisCache is a Redis-backed Cache with JSON values and server-side TTL.
// It fails closed: a backend error turns Get into a miss and Set into a
// logged, non-fatal error, so callers fall back to recomputing.
type RedisCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisCache connects to Redis at addr and verifies the connection.
func NewRedisCache(addr, password string, db int, logger *zap.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &RedisCache{client: client, logger: logger}, nil
}

// Get returns the cached embedding, or a miss on absence, expiry, or any
// backend error.
func (c *RedisCache) Get(ctx context.Context, text string) (*CachedEmbedding, bool) {
	raw, err := c.client.Get(ctx, Fingerprint(text)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("embedding cache get failed", zap.Error(err))
		return nil, false
	}
	var result CachedEmbedding
	if err := json.Unmarshal(raw, &result); err != nil {
		c.logger.Warn("embedding cache entry corrupt", zap.Error(err))
		return nil, false
	}
	return &result, true
}

// Set stores the result with the given TTL.
func (c *RedisCache) Set(ctx context.Context, text string, result *CachedEmbedding, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal cached embedding: %w", err)
	}
	if err := c.client.Set(ctx, Fingerprint(text), data, ttl).Err(); err != nil {
		return fmt.Errorf("embedding cache set: %w", err)
	}
	return nil
}

// Client exposes the underlying connection for other Redis-backed
// concerns sharing the same server.
func (c *RedisCache) Client() *redis.Client {
	return c.client
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

var _ Cache = (*RedisCache)(nil)
