package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/samirwankhede/restaurant-insights/internal/store"
)

func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// MetricsCache stores JSON-encoded per-restaurant monthly aggregates.
type MetricsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewMetricsCache(client *redis.Client, ttl time.Duration) *MetricsCache {
	return &MetricsCache{client: client, ttl: ttl}
}

func (c *MetricsCache) key(restaurantID string, month store.MonthKey) string {
	return fmt.Sprintf("metrics:%s:%s", restaurantID, month)
}

// Get decodes the cached value into dest. found is false on a miss.
func (c *MetricsCache) Get(ctx context.Context, restaurantID string, month store.MonthKey, dest any) (found bool, err error) {
	b, err := c.client.Get(ctx, c.key(restaurantID, month)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *MetricsCache) Set(ctx context.Context, restaurantID string, month store.MonthKey, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(restaurantID, month), b, c.ttl).Err()
}

func (c *MetricsCache) Invalidate(ctx context.Context, restaurantID string, month store.MonthKey) error {
	return c.client.Del(ctx, c.key(restaurantID, month)).Err()
}

func (c *MetricsCache) Close() { _ = c.client.Close() }
