package crawler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimerPauserHonorsContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pauser := NewTimerPauser()
	start := time.Now()
	pauser.Pause(ctx, 5*time.Second)
	require.Less(t, time.Since(start), time.Second, "pause should exit immediately when context is done")
}

func TestTimerPauserSleeps(t *testing.T) {
	t.Parallel()

	pauser := NewTimerPauser()
	start := time.Now()
	pauser.Pause(context.Background(), 20*time.Millisecond)
	require.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestTimerPauserIgnoresNonPositiveDelay(t *testing.T) {
	t.Parallel()

	start := time.Now()
	NewTimerPauser().Pause(context.Background(), -time.Second)
	require.Less(t, time.Since(start), 100*time.Millisecond)
}
