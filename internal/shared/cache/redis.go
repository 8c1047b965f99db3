package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/plateful/server/internal/shared/config"
	"github.com/redis/go-redis/v9"
)

const connectTimeout = 3 * time.Second

// NewRedisClient connects to Redis and verifies the connection before
// handing the client out.
func NewRedisClient(cfg *config.RedisConfig) (redis.UniversalClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

// Close closes the Redis client.
func Close(client redis.UniversalClient) error {
	return client.Close()
}
