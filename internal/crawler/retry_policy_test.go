package crawler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSchedulePolicyShouldRetry(t *testing.T) {
	t.Parallel()

	p := NewSchedulePolicy()
	for attempt := 1; attempt < DefaultMaxAttempts; attempt++ {
		require.True(t, p.ShouldRetry(attempt), "attempt %d", attempt)
	}
	require.False(t, p.ShouldRetry(DefaultMaxAttempts))
	require.False(t, p.ShouldRetry(DefaultMaxAttempts+1))
}

func TestSchedulePolicyBackoffClampsToLastPause(t *testing.T) {
	t.Parallel()

	p := NewSchedulePolicy()
	require.Equal(t, time.Minute, p.Backoff(1))
	require.Equal(t, 5*time.Minute, p.Backoff(2))
	require.Equal(t, 15*time.Minute, p.Backoff(4))
	require.Equal(t, 15*time.Minute, p.Backoff(9))
	require.Equal(t, time.Minute, p.Backoff(0))

	empty := &SchedulePolicy{}
	require.Zero(t, empty.Backoff(3))
}

func TestSchedulePolicyNextDelayCapped(t *testing.T) {
	t.Parallel()

	p := NewSchedulePolicy()
	delay := p.InitialDelay
	for i := 0; i < 20; i++ {
		delay = p.NextDelay(delay)
	}
	require.Equal(t, DefaultMaxDelay, delay)
	require.Equal(t, 4*time.Second, p.NextDelay(3*time.Second))
}

func TestSchedulePolicyBatchDue(t *testing.T) {
	t.Parallel()

	p := &SchedulePolicy{BatchSize: 3}
	require.False(t, p.BatchDue(0))
	require.False(t, p.BatchDue(2))
	require.True(t, p.BatchDue(3))
	require.True(t, p.BatchDue(6))

	disabled := &SchedulePolicy{}
	require.False(t, disabled.BatchDue(50))
}
