package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const lockPrefix = "lock:"

type Locker struct {
	rdb *redis.Client
}

func NewLocker(rdb *redis.Client) *Locker {
	return &Locker{rdb: rdb}
}

func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, lockPrefix+key, "processing", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("Acquire: %w", err)
	}
	return ok, nil
}

func (l *Locker) Release(ctx context.Context, key string) error {
	if err := l.rdb.Del(ctx, lockPrefix+key).Err(); err != nil {
		return fmt.Errorf("Release: %w", err)
	}
	return nil
}
