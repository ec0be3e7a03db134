// Package clock abstracts wall time so battle timestamps and durations can be
// controlled in tests.
package clock

import "time"

// Clock stamps battle starts and ends
type Clock interface {
	Now() time.Time
	// Since returns the time elapsed since t according to this clock
	Since(t time.Time) time.Duration
}

// System reads the host clock, always in UTC so stored summaries compare
// cleanly across servers
type System struct{}

// New returns the system clock
func New() System {
	return System{}
}

// Now returns the current UTC time
func (System) Now() time.Time {
	return time.Now().UTC()
}

// Since returns the time elapsed since t
func (System) Since(t time.Time) time.Duration {
	return time.Since(t)
}
