package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sleepRecorder struct {
	waits []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return nil
}

func TestFixedStopsOnFirstSuccess(t *testing.T) {
	rec := &sleepRecorder{}
	p := NewFixed(3, 200*time.Millisecond, 0, WithSleep(rec.sleep))

	calls := 0
	res := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})

	assert.True(t, res.OK())
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, []time.Duration{200 * time.Millisecond}, rec.waits)
}

func TestFixedExhaustsWithConstantDelay(t *testing.T) {
	rec := &sleepRecorder{}
	var failures []int
	p := NewFixed(3, 200*time.Millisecond, 0,
		WithSleep(rec.sleep),
		WithOnFailure(func(attempt int, _ error) { failures = append(failures, attempt) }),
	)

	calls := 0
	res := p.Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("attempt failed")
	})

	require.Error(t, res.Err)
	assert.Equal(t, "attempt failed", res.Err.Error())
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, []int{1, 2, 3}, failures)
	// no wait after the final attempt, and no growth between waits
	assert.Equal(t, []time.Duration{200 * time.Millisecond, 200 * time.Millisecond}, rec.waits)
}

func TestFixedCountsPanicAsFailedAttempt(t *testing.T) {
	p := NewFixed(2, 0, 0)

	calls := 0
	res := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls == 1 {
			panic("smtp client exploded")
		}
		return nil
	})

	assert.True(t, res.OK())
	assert.Equal(t, 2, res.Attempts)
}

func TestFixedAppliesAttemptTimeout(t *testing.T) {
	p := NewFixed(1, 0, 10*time.Millisecond)

	res := p.Do(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
}

func TestFixedKeepsSuccessReportedAfterDeadline(t *testing.T) {
	p := NewFixed(3, 0, 5*time.Millisecond)

	calls := 0
	res := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		<-ctx.Done()
		return nil
	})

	assert.True(t, res.OK())
	assert.Equal(t, 1, calls, "a delivered attempt is not repeated")
}

func TestFixedHonoursCancelledParent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewFixed(3, 0, 0)

	calls := 0
	res := p.Do(ctx, func(context.Context) error {
		calls++
		return nil
	})

	assert.Equal(t, 0, calls)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestNewFixedClampsAttempts(t *testing.T) {
	assert.Equal(t, 1, NewFixed(0, 0, 0).MaxAttempts())
}
