package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// CodeStore holds pending verification codes keyed by admin email. Entries
// expire on their own after the configured TTL.
type CodeStore interface {
	Put(ctx context.Context, email, code string, ttl time.Duration) error
	// Take returns the pending code and removes it in the same operation,
	// so a code can be consumed at most once across concurrent attempts.
	Take(ctx context.Context, email string) (string, bool, error)
}

const codeKeyPrefix = "auth:verify:"

type redisCodeStore struct {
	client *redis.Client
}

func NewRedisCodeStore(client *redis.Client) CodeStore {
	return &redisCodeStore{client: client}
}

func (s *redisCodeStore) Put(ctx context.Context, email, code string, ttl time.Duration) error {
	return s.client.Set(ctx, codeKeyPrefix+email, code, ttl).Err()
}

func (s *redisCodeStore) Take(ctx context.Context, email string) (string, bool, error) {
	code, err := s.client.GetDel(ctx, codeKeyPrefix+email).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return code, true, nil
}
