package database

import (
	"context"
	"fmt"
	"time"

	"nesterlify-api/pkg/utils"

	"github.com/go-redis/redis/v8"
)

// InitRedis membuat koneksi Redis dan cek dengan ping.
func InitRedis(config utils.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis failed: %w", err)
	}

	return client, nil
}
