package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBreakerIsClosed(t *testing.T) {
	b := New("ratelimit-redis")
	assert.Equal(t, "ratelimit-redis", b.Name())
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "closed", b.State().String())
	assert.False(t, b.IsOpen())
}

func TestRecordFailure(t *testing.T) {
	t.Run("opens on the threshold failure only", func(t *testing.T) {
		b := New("primary", WithFailureThreshold(3))

		for i := 0; i < 2; i++ {
			useFallback, change := b.RecordFailure()
			require.False(t, useFallback, "failure %d", i+1)
			require.False(t, change.Opened)
		}
		useFallback, change := b.RecordFailure()
		assert.True(t, useFallback)
		assert.True(t, change.Opened)
		assert.Equal(t, "open", b.State().String())

		useFallback, change = b.RecordFailure()
		assert.True(t, useFallback)
		assert.False(t, change.Opened, "already open")
	})

	t.Run("a success clears the streak", func(t *testing.T) {
		b := New("primary", WithFailureThreshold(2))
		b.RecordFailure()
		b.RecordSuccess()
		b.RecordFailure()
		assert.False(t, b.IsOpen())
		b.RecordFailure()
		assert.True(t, b.IsOpen())
	})

	t.Run("non-positive thresholds keep defaults", func(t *testing.T) {
		b := New("primary", WithFailureThreshold(0), WithSuccessThreshold(-1))
		for i := 0; i < defaultFailureThreshold-1; i++ {
			b.RecordFailure()
		}
		assert.False(t, b.IsOpen())
		b.RecordFailure()
		assert.True(t, b.IsOpen())
	})
}

func TestRecordSuccessWhileOpen(t *testing.T) {
	b := New("primary", WithFailureThreshold(1), WithSuccessThreshold(3))
	b.RecordFailure()
	require.True(t, b.IsOpen())

	usePrimary, _ := b.RecordSuccess()
	assert.False(t, usePrimary)
	b.RecordSuccess()

	// a failure while recovering restarts the success count
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordSuccess()
	assert.True(t, b.IsOpen())

	usePrimary, change := b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)
	assert.False(t, b.IsOpen())
}

func TestReset(t *testing.T) {
	b := New("primary", WithFailureThreshold(1))
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())

	useFallback, _ := b.RecordFailure()
	assert.True(t, useFallback, "counters were cleared, threshold is one")
}
