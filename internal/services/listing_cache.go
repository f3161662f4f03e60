package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AnshRaj112/pashu-bazaar-backend/internal/models"
)

const (
	// CacheKeyPrefix is the Redis key prefix for cached data
	CacheKeyPrefix = "cache:"
	// listingFeedKey holds the full newest-first listing feed
	listingFeedKey = CacheKeyPrefix + "animals:all"
	// DefaultListingCacheTTL bounds how stale a cached feed can be
	DefaultListingCacheTTL = 30 * time.Second
)

// ListingCache stores the listing feed between writes. Implementations
// treat every failure as a miss.
type ListingCache interface {
	Get(ctx context.Context) ([]models.Animal, bool)
	Set(ctx context.Context, animals []models.Animal)
	Invalidate(ctx context.Context)
}

// RedisListingCache keeps the feed as one JSON value in Redis.
type RedisListingCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisListingCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisListingCache {
	if ttl <= 0 {
		ttl = DefaultListingCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisListingCache{client: client, ttl: ttl, logger: logger}
}

func (c *RedisListingCache) Get(ctx context.Context) ([]models.Animal, bool) {
	val, err := c.client.Get(ctx, listingFeedKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("listing cache read failed", slog.String("error", err.Error()))
		}
		return nil, false
	}

	var animals []models.Animal
	if err := json.Unmarshal(val, &animals); err != nil {
		c.logger.Warn("listing cache holds an undecodable value", slog.String("error", err.Error()))
		return nil, false
	}
	return animals, true
}

func (c *RedisListingCache) Set(ctx context.Context, animals []models.Animal) {
	data, err := json.Marshal(animals)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, listingFeedKey, data, c.ttl).Err(); err != nil {
		c.logger.Warn("listing cache write failed", slog.String("error", err.Error()))
	}
}

func (c *RedisListingCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, listingFeedKey).Err(); err != nil {
		c.logger.Warn("listing cache invalidate failed", slog.String("error", err.Error()))
	}
}
