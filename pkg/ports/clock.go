package ports

import "time"

// Clock abstracts wall-clock time. Components that schedule work against
// real time take a Clock at construction so tests can substitute a fake,
// instead of reaching for a process-wide time source.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// SystemClock is the real clock.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

var _ Clock = SystemClock{}
