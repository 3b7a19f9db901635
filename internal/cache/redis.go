package cache

import (
	"context"
	"fmt"
	"time"

	"study-quiz/internal/config"
	"study-quiz/internal/domain"

	"github.com/redis/go-redis/v9"
)

const connectTimeout = 5 * time.Second

// NewRedisClient creates a Redis client. It does not dial; pass the store built
// on it to CheckConnection before use.
func NewRedisClient(redisCfg config.RedisConfig) (*redis.Client, error) {
	if redisCfg.Address == "" {
		return nil, fmt.Errorf("redis configuration is missing or address is empty")
	}

	return redis.NewClient(&redis.Options{
		Addr:     redisCfg.Address,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	}), nil
}

// CheckConnection pings store to ensure connectivity.
func CheckConnection(ctx context.Context, store domain.Cache) error {
	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		return fmt.Errorf("failed to connect to cache: %w", err)
	}
	return nil
}
