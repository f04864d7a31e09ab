// Package clock provides crawler.Clock implementations.
package clock

import "time"

// System reads the wall clock in UTC.
type System struct{}

// New returns the wall clock.
func New() System {
	return System{}
}

// Now returns the current time.
func (System) Now() time.Time {
	return time.Now().UTC()
}

// Fixed always returns the same instant. Useful for backup names in tests.
type Fixed time.Time

// Now returns the fixed instant.
func (f Fixed) Now() time.Time {
	return time.Time(f)
}
