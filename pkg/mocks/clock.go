package mocks

import (
	"sync"
	"time"

	"github.com/user/signage/pkg/ports"
)

// Clock is a mock implementation of ports.Clock with a manually advanced
// current time.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock creates a clock frozen at the given time.
func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (m *Clock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward.
func (m *Clock) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

var _ ports.Clock = (*Clock)(nil)
