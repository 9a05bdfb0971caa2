package advisory

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/heartguard-api/internal/domain"
)

// Cache stores advisory responses keyed by normalized query so repeat
// questions skip the upstream API.
type Cache interface {
	Get(ctx context.Context, key string) (*domain.AdvisoryResponse, bool)
	Set(ctx context.Context, key string, resp *domain.AdvisoryResponse)
}

// CacheKey derives a stable key from the query text.
func CacheKey(query string) string {
	hash := sha256.Sum256([]byte(query))
	return fmt.Sprintf("advisory:%x", hash[:8])
}

// RedisCache backs the advisory cache with Redis.
type RedisCache struct {
	redis *redis.Client
	ttl   time.Duration
	log   *logrus.Logger
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(config domain.CacheConfig, ttl time.Duration, logger *logrus.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = config.PoolSize
	opts.PoolTimeout = config.PoolTimeout
	opts.MaxRetries = config.MaxRetries

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{redis: client, ttl: ttl, log: logger}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (*domain.AdvisoryResponse, bool) {
	val, err := c.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.log.WithError(err).Warn("Advisory cache read failed")
		return nil, false
	}

	var resp domain.AdvisoryResponse
	if err := json.Unmarshal([]byte(val), &resp); err != nil {
		// Remove corrupted cache entry
		c.redis.Del(ctx, key)
		return nil, false
	}
	return &resp, true
}

func (c *RedisCache) Set(ctx context.Context, key string, resp *domain.AdvisoryResponse) {
	payload, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.log.WithError(err).Warn("Advisory cache write failed")
	}
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.redis.Close()
}

// MemoryCache is an in-process expiring LRU used when Redis is not
// configured.
type MemoryCache struct {
	lru *lru.LRU[string, *domain.AdvisoryResponse]
}

// NewMemoryCache builds an expiring LRU cache of the given size.
func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		lru: lru.NewLRU[string, *domain.AdvisoryResponse](size, nil, ttl),
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*domain.AdvisoryResponse, bool) {
	return c.lru.Get(key)
}

func (c *MemoryCache) Set(_ context.Context, key string, resp *domain.AdvisoryResponse) {
	c.lru.Add(key, resp)
}
