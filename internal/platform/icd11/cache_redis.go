package icd11

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const redisKeyPrefix = "termbridge:icd11:search:"

type redisEntry struct {
	Concepts  []ExternalConcept `json:"concepts"`
	Timestamp time.Time         `json:"timestamp"`
}

// RedisCache shares search results across processes. Entries are written
// with a Redis expiry equal to the TTL and the stored timestamp is checked
// again on read, so clock skew between writer and Redis cannot serve a
// stale entry.
type RedisCache struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	now    func() time.Time
	logger zerolog.Logger
}

// NewRedisCache wraps a Redis client. A non-positive ttl falls back to
// DefaultCacheTTL.
func NewRedisCache(rdb redis.Cmdable, ttl time.Duration, logger zerolog.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{rdb: rdb, ttl: ttl, now: time.Now, logger: logger}
}

// NewRedisClient parses a redis:// URL and pings the server.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (c *RedisCache) redisKey(key CacheKey) string {
	return redisKeyPrefix + key.String()
}

func (c *RedisCache) load(ctx context.Context, key CacheKey) (*redisEntry, bool) {
	raw, err := c.rdb.Get(ctx, c.redisKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Str("key", key.String()).Msg("redis cache read failed")
		}
		return nil, false
	}
	var entry redisEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.logger.Warn().Err(err).Str("key", key.String()).Msg("redis cache entry undecodable")
		return nil, false
	}
	return &entry, true
}

func (c *RedisCache) Get(ctx context.Context, key CacheKey) ([]ExternalConcept, bool) {
	entry, ok := c.load(ctx, key)
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.Timestamp) >= c.ttl {
		c.EvictIfExpired(ctx, key)
		return nil, false
	}
	return entry.Concepts, true
}

func (c *RedisCache) Put(ctx context.Context, key CacheKey, concepts []ExternalConcept) {
	data, err := json.Marshal(redisEntry{Concepts: concepts, Timestamp: c.now()})
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key.String()).Msg("redis cache encode failed")
		return
	}
	if err := c.rdb.Set(ctx, c.redisKey(key), data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key.String()).Msg("redis cache write failed")
	}
}

func (c *RedisCache) EvictIfExpired(ctx context.Context, key CacheKey) bool {
	entry, ok := c.load(ctx, key)
	if !ok || c.now().Sub(entry.Timestamp) < c.ttl {
		return false
	}
	if err := c.rdb.Del(ctx, c.redisKey(key)).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key.String()).Msg("redis cache evict failed")
		return false
	}
	return true
}
