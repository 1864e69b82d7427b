package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const authCodePrefix = "authcode:"

// AuthCodeStore keeps the digest of at most one outstanding authorization
// code per user. Issuing a new code replaces the previous one.
type AuthCodeStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewAuthCodeStore(rdb *redis.Client, ttl time.Duration) *AuthCodeStore {
	return &AuthCodeStore{rdb: rdb, ttl: ttl}
}

func (s *AuthCodeStore) TTL() time.Duration {
	return s.ttl
}

func (s *AuthCodeStore) Save(ctx context.Context, userID uuid.UUID, digest string) error {
	if err := s.rdb.Set(ctx, authCodePrefix+userID.String(), digest, s.ttl).Err(); err != nil {
		return fmt.Errorf("Save: %w", err)
	}
	return nil
}

// Consume removes and returns the outstanding digest. found is false when
// no code was issued or it expired.
func (s *AuthCodeStore) Consume(ctx context.Context, userID uuid.UUID) (digest string, found bool, err error) {
	digest, err = s.rdb.GetDel(ctx, authCodePrefix+userID.String()).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("Consume: %w", err)
	}
	return digest, true, nil
}
