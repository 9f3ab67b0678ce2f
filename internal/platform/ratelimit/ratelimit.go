// Package ratelimit bounds how often one client may submit an application.
// The Redis limiter shares counts across replicas; the in-memory limiter
// serves single-instance deployments and the Redis outage fallback.
package ratelimit

import (
	"context"
	"math"
	"time"
)

// Result is the outcome of one limiter check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter is whole seconds until a retry can succeed, zero when allowed.
	RetryAfter int
	// Degraded is set when the answer came from the fallback limiter.
	Degraded bool
}

// Limiter counts one request against key.
type Limiter interface {
	Allow(ctx context.Context, key string) (*Result, error)
}

// SubmitKey is the limiter key for application submissions from ip.
func SubmitKey(ip string) string {
	return "ratelimit:submit:ip:" + ip
}

func retryAfter(now, resetAt time.Time) int {
	secs := int(math.Ceil(resetAt.Sub(now).Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
