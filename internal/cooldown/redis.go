// internal/cooldown/redis.go
package cooldown

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "repo-insights:cooldown:"

// RedisConfig holds the connection settings for a shared cooldown store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Redis is a Limiter shared by every instance pointing at the same server.
// A key is admitted when SET NX succeeds; the PX expiry ends its window.
type Redis struct {
	rdb    *redis.Client
	window time.Duration
}

// NewRedis connects to redis and verifies the connection.
func NewRedis(cfg RedisConfig, window time.Duration) (*Redis, error) {
	if window <= 0 {
		window = DefaultWindow
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Redis{rdb: rdb, window: window}, nil
}

func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	ok, err := r.rdb.SetNX(ctx, keyPrefix+key, time.Now().UnixMilli(), r.window).Result()
	if err != nil {
		return false, fmt.Errorf("cooldown setnx failed: %w", err)
	}
	return ok, nil
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return r.rdb.Close()
}
