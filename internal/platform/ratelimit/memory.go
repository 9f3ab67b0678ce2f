package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Memory is a sliding window limiter held in process memory.
type Memory struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string][]time.Time
}

// NewMemory allows limit requests per key in any window-long interval.
func NewMemory(limit int, window time.Duration) *Memory {
	return &Memory{
		limit:   limit,
		window:  window,
		now:     time.Now,
		windows: make(map[string][]time.Time),
	}
}

func (m *Memory) Allow(_ context.Context, key string) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	stamps := prune(m.windows[key], now.Add(-m.window))

	if len(stamps) >= m.limit {
		m.windows[key] = stamps
		resetAt := stamps[0].Add(m.window)
		return &Result{
			Allowed:    false,
			Limit:      m.limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: retryAfter(now, resetAt),
		}, nil
	}

	stamps = append(stamps, now)
	m.windows[key] = stamps
	return &Result{
		Allowed:   true,
		Limit:     m.limit,
		Remaining: m.limit - len(stamps),
		ResetAt:   stamps[0].Add(m.window),
	}, nil
}

// Sweep drops keys with no request inside the window.
func (m *Memory) Sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-m.window)
	for key, stamps := range m.windows {
		if stamps = prune(stamps, cutoff); len(stamps) == 0 {
			delete(m.windows, key)
		} else {
			m.windows[key] = stamps
		}
	}
}

// prune drops timestamps at or before cutoff. stamps is ascending.
func prune(stamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for ; i < len(stamps); i++ {
		if stamps[i].After(cutoff) {
			break
		}
	}
	return stamps[i:]
}
