package crawler

import "time"

// Default pacing values for a source worker.
const (
	DefaultMaxAttempts    = 5
	DefaultInitialDelay   = 3 * time.Second
	DefaultDelayIncrement = time.Second
	DefaultMaxDelay       = 10 * time.Second
	DefaultBatchSize      = 50
	DefaultBatchPause     = 3 * time.Minute
)

// DefaultPauses is the escalating pause schedule indexed by failed attempt.
var DefaultPauses = []time.Duration{
	time.Minute,
	5 * time.Minute,
	10 * time.Minute,
	15 * time.Minute,
}

// SchedulePolicy decides how a worker retries and paces a source.
type SchedulePolicy struct {
	MaxAttempts    int
	Pauses         []time.Duration
	InitialDelay   time.Duration
	DelayIncrement time.Duration
	MaxDelay       time.Duration
	BatchSize      int
	BatchPause     time.Duration
}

// NewSchedulePolicy builds a policy with the default schedule.
func NewSchedulePolicy() *SchedulePolicy {
	pauses := make([]time.Duration, len(DefaultPauses))
	copy(pauses, DefaultPauses)
	return &SchedulePolicy{
		MaxAttempts:    DefaultMaxAttempts,
		Pauses:         pauses,
		InitialDelay:   DefaultInitialDelay,
		DelayIncrement: DefaultDelayIncrement,
		MaxDelay:       DefaultMaxDelay,
		BatchSize:      DefaultBatchSize,
		BatchPause:     DefaultBatchPause,
	}
}

// ShouldRetry reports whether another attempt follows the failed one.
func (p *SchedulePolicy) ShouldRetry(attempt int) bool {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return attempt < maxAttempts
}

// Backoff returns the pause after the given failed attempt (1-based).
// The last entry repeats when the schedule is shorter than the attempt count.
func (p *SchedulePolicy) Backoff(attempt int) time.Duration {
	if len(p.Pauses) == 0 {
		return 0
	}
	idx := attempt - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(p.Pauses) {
		idx = len(p.Pauses) - 1
	}
	return p.Pauses[idx]
}

// NextDelay raises the inter-request delay after a failure, capped at MaxDelay.
func (p *SchedulePolicy) NextDelay(current time.Duration) time.Duration {
	next := current + p.DelayIncrement
	if p.MaxDelay > 0 && next > p.MaxDelay {
		return p.MaxDelay
	}
	return next
}

// BatchDue reports whether a batch pause follows the n-th processed title.
func (p *SchedulePolicy) BatchDue(processed int) bool {
	return p.BatchSize > 0 && processed > 0 && processed%p.BatchSize == 0
}
