package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"adespota/internal/domain"
	"adespota/pkg/e"
)

// ReportCache holds the full newest-first report list under one key.
type ReportCache struct {
	client *goredis.Client
	key    string
}

func NewReportCache(r *Redis) *ReportCache {
	return &ReportCache{
		client: r.Client,
		key:    reportsKey,
	}
}

// Get returns e.ErrCacheMiss when nothing is cached.
func (c *ReportCache) Get(ctx context.Context) ([]domain.SubmittedReport, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, e.ErrCacheMiss
		}
		return nil, err
	}

	var reports []domain.SubmittedReport
	if err := json.Unmarshal(data, &reports); err != nil {
		return nil, err
	}

	return reports, nil
}

func (c *ReportCache) Set(ctx context.Context, reports []domain.SubmittedReport, ttl time.Duration) error {
	b, err := json.Marshal(reports)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key, b, ttl).Err()
}

func (c *ReportCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, c.key).Err()
}
