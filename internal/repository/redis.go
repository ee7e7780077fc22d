package repository

import (
	"context"
	"fmt"
	"time"

	"officebook/internal/config"

	"github.com/redis/go-redis/v9"
)

// RedisDedupStore remembers processed payment event ids in redis so a
// replayed webhook is ignored across restarts and instances.
type RedisDedupStore struct {
	client *redis.Client
}

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}
	return redis.NewClient(options)
}

func NewRedisDedupStore(client *redis.Client) *RedisDedupStore {
	return &RedisDedupStore{client: client}
}

func dedupKey(externalID string) string {
	return fmt.Sprintf("payment_event:%s", externalID)
}

func (r *RedisDedupStore) FirstSeen(ctx context.Context, externalID string, ttl time.Duration) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	ok, err := r.client.SetNX(ctx, dedupKey(externalID), 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record payment event id: %w", err)
	}
	return ok, nil
}

func (r *RedisDedupStore) Forget(ctx context.Context, externalID string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, dedupKey(externalID)).Err(); err != nil {
		return fmt.Errorf("failed to forget payment event id: %w", err)
	}
	return nil
}

// Ping checks the redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	return nil
}

// Close closes the redis connection.
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
