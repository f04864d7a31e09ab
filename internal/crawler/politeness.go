package crawler

import (
	"context"
	"time"
)

// TimerPauser implements Pauser with a timer that yields to context cancellation.
type TimerPauser struct{}

// NewTimerPauser returns the production Pauser.
func NewTimerPauser() *TimerPauser {
	return &TimerPauser{}
}

// Pause sleeps for delay unless ctx finishes first.
func (p *TimerPauser) Pause(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
