package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"adespota/internal/domain"
	"adespota/pkg/e"
)

// ChallengeQueue carries verification challenges from the API to the sender worker.
type ChallengeQueue struct {
	client *redis.Client
	key    string
}

func NewChallengeQueue(client *redis.Client) *ChallengeQueue {
	return &ChallengeQueue{client: client, key: challengeQueue}
}

func (q *ChallengeQueue) Enqueue(ctx context.Context, ch domain.Challenge) error {
	b, err := json.Marshal(ch)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, b).Err()
}

// BRPop waits up to timeout; an empty queue yields e.ErrQueueEmpty.
func (q *ChallengeQueue) BRPop(ctx context.Context, timeout time.Duration) (domain.Challenge, error) {
	var ch domain.Challenge

	res, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ch, e.ErrQueueEmpty
		}
		return ch, err
	}
	if len(res) < 2 {
		return ch, e.ErrQueueEmpty
	}
	if err := json.Unmarshal([]byte(res[1]), &ch); err != nil {
		return ch, err
	}
	return ch, nil
}
