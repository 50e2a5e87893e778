package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/leahpeker/vedgyproject/internal/app/config"
	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}
