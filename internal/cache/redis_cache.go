package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"wiggies/backend/internal/domain"
)

type RedisInsightsCache struct {
	client *redis.Client
}

func NewRedisInsightsCache(addr string, password string, db int) *RedisInsightsCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisInsightsCache{client: client}
}

func (c *RedisInsightsCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisInsightsCache) Close() error {
	return c.client.Close()
}

func (c *RedisInsightsCache) Get(ctx context.Context, key string) (*domain.Insights, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var insights domain.Insights
	if err := json.Unmarshal([]byte(val), &insights); err != nil {
		return nil, false, err
	}
	return &insights, true, nil
}

func (c *RedisInsightsCache) Set(ctx context.Context, key string, value *domain.Insights, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}
