package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/budgetledger/internal/infrastructure/metrics"
)

// Cache implements usecase.Cache using Redis. It backs the availability
// summary cache; values are JSON strings serialized by the caller.
type Cache struct {
	client  *redis.Client
	prefix  string
	metrics *metrics.Metrics
}

// NewCache creates a new Cache. metrics may be nil.
func NewCache(client *redis.Client, m *metrics.Metrics) *Cache {
	return &Cache{
		client:  client,
		prefix:  "cache:",
		metrics: m,
	}
}

// Get retrieves a value by key.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	defer c.observe("get", time.Now())

	val, err := c.client.Get(ctx, c.prefix+key).Result()
	if err != nil && err != redis.Nil {
		c.countError("get")
	}
	return val, err
}

// Set stores a value with TTL.
func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	defer c.observe("set", time.Now())

	err := c.client.Set(ctx, c.prefix+key, value, ttl).Err()
	if err != nil {
		c.countError("set")
	}
	return err
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	defer c.observe("delete", time.Now())

	err := c.client.Del(ctx, c.prefix+key).Err()
	if err != nil {
		c.countError("delete")
	}
	return err
}

func (c *Cache) observe(op string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.RedisOperations.WithLabelValues(op).Inc()
	c.metrics.RedisDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (c *Cache) countError(op string) {
	if c.metrics == nil {
		return
	}
	c.metrics.RedisErrors.WithLabelValues(op).Inc()
}
