// Package retry provides bounded, sequential retry policies.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Result reports how many attempts ran and the last error, nil on success.
type Result struct {
	Attempts int
	Err      error
}

// OK reports whether the operation eventually succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Policy runs an operation until it succeeds or the policy gives up.
// Attempts never overlap.
type Policy interface {
	Do(ctx context.Context, op func(ctx context.Context) error) Result
}

// Fixed retries up to MaxAttempts times with a constant delay between
// attempts. Each attempt gets its own deadline when AttemptTimeout is set.
type Fixed struct {
	maxAttempts    int
	delay          time.Duration
	attemptTimeout time.Duration
	onFailure      func(attempt int, err error)
	sleep          func(ctx context.Context, d time.Duration) error
}

type Option func(*Fixed)

// WithOnFailure registers a hook called after every failed attempt.
func WithOnFailure(fn func(attempt int, err error)) Option {
	return func(f *Fixed) {
		f.onFailure = fn
	}
}

// WithSleep replaces the inter-attempt wait. Tests use it to avoid real delays.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(f *Fixed) {
		f.sleep = fn
	}
}

// NewFixed builds a Fixed policy. maxAttempts below 1 is treated as 1.
func NewFixed(maxAttempts int, delay, attemptTimeout time.Duration, opts ...Option) *Fixed {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	f := &Fixed{
		maxAttempts:    maxAttempts,
		delay:          delay,
		attemptTimeout: attemptTimeout,
		sleep:          sleepContext,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// MaxAttempts returns the attempt bound.
func (f *Fixed) MaxAttempts() int {
	return f.maxAttempts
}

func (f *Fixed) Do(ctx context.Context, op func(ctx context.Context) error) Result {
	var last error
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if last == nil {
				last = err
			}
			return Result{Attempts: attempt - 1, Err: last}
		}

		last = f.runAttempt(ctx, op)
		if last == nil {
			return Result{Attempts: attempt}
		}
		if f.onFailure != nil {
			f.onFailure(attempt, last)
		}

		if attempt < f.maxAttempts && f.delay > 0 {
			if err := f.sleep(ctx, f.delay); err != nil {
				return Result{Attempts: attempt, Err: last}
			}
		}
	}
	return Result{Attempts: f.maxAttempts, Err: last}
}

// runAttempt converts panics into errors so a misbehaving transport counts
// as one failed attempt.
func (f *Fixed) runAttempt(ctx context.Context, op func(ctx context.Context) error) (err error) {
	if f.attemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.attemptTimeout)
		defer cancel()
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("attempt panicked: %v", p)
		}
	}()
	// A reported success stands even if the deadline passed meanwhile.
	return op(ctx)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
