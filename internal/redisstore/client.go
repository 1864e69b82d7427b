package redisstore

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

type Options struct {
	Addr     string
	Password string
	DB       int
}

func NewClient(ctx context.Context, opts Options) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("NewClient: ping: %w", err)
	}
	return rdb, nil
}

// Health adapts a client to the readiness check.
type Health struct {
	rdb *redis.Client
}

func NewHealth(rdb *redis.Client) Health {
	return Health{rdb: rdb}
}

func (h Health) PingContext(ctx context.Context) error {
	return h.rdb.Ping(ctx).Err()
}
