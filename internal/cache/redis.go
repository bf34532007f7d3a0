// Package cache is a best-effort Redis read cache for standings payloads.
// The worker keeps running without it.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/crops004/supercontest/internal/metrics"
)

// Config holds Redis connection configuration
type Config struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// RedisCache wraps a Redis client
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to Redis and verifies the connection
func NewRedisCache(cfg Config) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	log.Info().Str("addr", client.Options().Addr).Msg("Redis cache connected")
	return &RedisCache{client: client}, nil
}

// Close closes the underlying client
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func standingsKey(week int, weekOnly bool) string {
	if weekOnly {
		return fmt.Sprintf("standings:week:%d", week)
	}
	return fmt.Sprintf("standings:season:%d", week)
}

// GetStandings loads a cached standings payload into dest. ok is false on
// a miss; Redis errors count as misses.
func (c *RedisCache) GetStandings(ctx context.Context, week int, weekOnly bool, dest interface{}) bool {
	data, err := c.client.Get(ctx, standingsKey(week, weekOnly)).Bytes()
	if err != nil {
		metrics.RecordCacheMiss()
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		metrics.RecordCacheMiss()
		return false
	}
	metrics.RecordCacheHit()
	return true
}

// SetStandings caches a standings payload with the given TTL.
func (c *RedisCache) SetStandings(ctx context.Context, week int, weekOnly bool, payload interface{}, ttl time.Duration) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to marshal standings for cache")
		return
	}
	if err := c.client.Set(ctx, standingsKey(week, weekOnly), data, ttl).Err(); err != nil {
		log.Warn().Err(err).Msg("Failed to cache standings")
	}
}

// InvalidateStandings drops all cached standings, called after a grading
// batch changes results.
func (c *RedisCache) InvalidateStandings(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, "standings:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			log.Warn().Err(err).Str("key", iter.Val()).Msg("Failed to invalidate cache key")
		}
	}
	if err := iter.Err(); err != nil {
		log.Warn().Err(err).Msg("Failed to scan cache keys")
	}
}
