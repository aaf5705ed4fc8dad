package cache

import (
	"context"
	"fmt"
	"time"

	"ms-events-web/internal/logger"

	"github.com/go-redis/redis/v8"
)

// Connect opens a Redis client and checks it with a ping and a probe write.
func Connect(ctx context.Context, addr string, log *logger.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "",
		DB:       0,
		PoolSize: 10,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Error("CACHE", fmt.Sprintf("Failed to connect to Redis at %s: %v", addr, err))
		_ = client.Close()
		return nil, err
	}

	probe := keyPrefix + "probe"
	if err := client.Set(ctx, probe, "ok", 5*time.Second).Err(); err != nil {
		log.Error("CACHE", fmt.Sprintf("Failed to write probe value to Redis: %v", err))
		_ = client.Close()
		return nil, err
	}

	log.Info("CACHE", fmt.Sprintf("Connected to Redis at %s for event caching", addr))
	return client, nil
}
