package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// SubmissionGuard holds idempotency keys in Redis so duplicates are caught across instances.
type SubmissionGuard struct {
	client *redis.Client
	prefix string
}

func NewSubmissionGuard(client *redis.Client) *SubmissionGuard {
	return &SubmissionGuard{client: client, prefix: "guard:"}
}

func (g *SubmissionGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return g.client.SetNX(ctx, g.prefix+key, "1", ttl).Result()
}

func (g *SubmissionGuard) Release(ctx context.Context, key string) error {
	return g.client.Del(ctx, g.prefix+key).Err()
}
