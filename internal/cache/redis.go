// Package cache stores classifier verdicts in Redis so unchanged companies are not re-sent.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jonathan/warm-intros/internal/classifier"
	"github.com/jonathan/warm-intros/internal/config"
	"github.com/jonathan/warm-intros/internal/logger"
)

const keyPrefix = "intro:classify:"

// RedisCache implements classifier.Cache on top of go-redis
type RedisCache struct {
	rdb goredis.UniversalClient
	ttl time.Duration
	log *logger.Logger
}

// NewRedisCache connects to Redis and verifies the connection with a ping.
func NewRedisCache(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (*RedisCache, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return NewWithClient(rdb, cfg.TTL, log), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(rdb goredis.UniversalClient, ttl time.Duration, log *logger.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = config.Default().Redis.TTL
	}
	return &RedisCache{rdb: rdb, ttl: ttl, log: logger.OrNop(log).With("component", "redis_cache")}
}

// GetMany fetches all keys in one MGET. Missing or undecodable entries are left out.
func (c *RedisCache) GetMany(ctx context.Context, keys []string) (map[string]classifier.Classification, error) {
	out := make(map[string]classifier.Classification, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = keyPrefix + k
	}

	values, err := c.rdb.MGet(ctx, prefixed...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read classification cache: %w", err)
	}

	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var verdict classifier.Classification
		if err := json.Unmarshal([]byte(s), &verdict); err != nil {
			c.log.Debug("dropping undecodable cache entry", "key", keys[i], "error", err)
			continue
		}
		out[keys[i]] = verdict
	}
	return out, nil
}

// SetMany writes entries in a single pipeline, each with the configured TTL.
func (c *RedisCache) SetMany(ctx context.Context, entries map[string]classifier.Classification) error {
	if len(entries) == 0 {
		return nil
	}

	pipe := c.rdb.Pipeline()
	for k, v := range entries {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode cache entry: %w", err)
		}
		pipe.Set(ctx, keyPrefix+k, raw, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write classification cache: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
