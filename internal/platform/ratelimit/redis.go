package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a fixed window limiter shared by every replica.
type Redis struct {
	client redis.Cmdable
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewRedis allows limit requests per key in each aligned window.
func NewRedis(client redis.Cmdable, limit int, window time.Duration) *Redis {
	return &Redis{
		client: client,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

func (r *Redis) Allow(ctx context.Context, key string) (*Result, error) {
	now := r.now()
	start := now.Truncate(r.window)
	resetAt := start.Add(r.window)
	bucket := key + ":" + strconv.FormatInt(start.Unix(), 10)

	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, bucket)
		pipe.PExpireAt(ctx, bucket, resetAt)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis rate limit %s: %w", key, err)
	}

	count := int(incr.Val())
	if count > r.limit {
		return &Result{
			Allowed:    false,
			Limit:      r.limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: retryAfter(now, resetAt),
		}, nil
	}
	return &Result{
		Allowed:   true,
		Limit:     r.limit,
		Remaining: r.limit - count,
		ResetAt:   resetAt,
	}, nil
}
