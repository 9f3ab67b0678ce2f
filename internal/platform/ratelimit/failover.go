package ratelimit

import (
	"context"
	"log/slog"

	"grantapp/internal/platform/metrics"
	"grantapp/pkg/platform/circuit"
)

// Failover answers from primary while it is healthy. After repeated primary
// errors the breaker opens and answers come from fallback, marked Degraded,
// until primary succeeds often enough to close it again.
type Failover struct {
	primary  Limiter
	fallback Limiter
	breaker  *circuit.Breaker
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type FailoverOption func(*Failover)

func WithBreaker(b *circuit.Breaker) FailoverOption {
	return func(f *Failover) {
		f.breaker = b
	}
}

func WithFailoverLogger(logger *slog.Logger) FailoverOption {
	return func(f *Failover) {
		f.logger = logger
	}
}

func WithFailoverMetrics(m *metrics.Metrics) FailoverOption {
	return func(f *Failover) {
		f.metrics = m
	}
}

func NewFailover(primary, fallback Limiter, opts ...FailoverOption) *Failover {
	f := &Failover{
		primary:  primary,
		fallback: fallback,
		breaker:  circuit.New("ratelimit-primary"),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Failover) Allow(ctx context.Context, key string) (*Result, error) {
	res, err := f.primary.Allow(ctx, key)
	if err != nil {
		useFallback, change := f.breaker.RecordFailure()
		if change.Opened {
			f.logger.WarnContext(ctx, "rate limit store failing, using in-memory fallback",
				"breaker", f.breaker.Name(),
				"error", err,
			)
			f.metrics.SetRateLimitDegraded(true)
		}
		if !useFallback {
			return nil, err
		}
		return f.answerFromFallback(ctx, key)
	}

	usePrimary, change := f.breaker.RecordSuccess()
	if change.Closed {
		f.logger.InfoContext(ctx, "rate limit store recovered", "breaker", f.breaker.Name())
		f.metrics.SetRateLimitDegraded(false)
	}
	if !usePrimary {
		return f.answerFromFallback(ctx, key)
	}
	return res, nil
}

func (f *Failover) answerFromFallback(ctx context.Context, key string) (*Result, error) {
	res, err := f.fallback.Allow(ctx, key)
	if err != nil {
		return nil, err
	}
	res.Degraded = true
	return res, nil
}
