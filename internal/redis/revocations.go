package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Revocations lists signed-out token ids until the tokens would have expired anyway.
type Revocations struct {
	client *redis.Client
	now    func() time.Time
}

func NewRevocations(client *redis.Client) *Revocations {
	return &Revocations{client: client, now: time.Now}
}

func (r *Revocations) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, revokedKeyPrefix+tokenID, 1, ttl).Err()
}

func (r *Revocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
