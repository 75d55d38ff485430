package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"adespota/pkg/e"
)

// CodeStore keeps the last dispatched verification code per user.
type CodeStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCodeStore(client *redis.Client, ttl time.Duration) *CodeStore {
	return &CodeStore{client: client, ttl: ttl}
}

func (s *CodeStore) SaveCode(ctx context.Context, userID uuid.UUID, code string) error {
	return s.client.Set(ctx, codeKeyPrefix+userID.String(), code, s.ttl).Err()
}

func (s *CodeStore) GetCode(ctx context.Context, userID uuid.UUID) (string, error) {
	code, err := s.client.Get(ctx, codeKeyPrefix+userID.String()).Result()
	if errors.Is(err, redis.Nil) {
		return "", e.ErrCacheMiss
	}
	return code, err
}

func (s *CodeStore) DeleteCode(ctx context.Context, userID uuid.UUID) error {
	return s.client.Del(ctx, codeKeyPrefix+userID.String()).Err()
}
