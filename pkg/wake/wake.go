// Package wake provides a manual-reset, edge-triggered cross-goroutine
// notification primitive.
package wake

import "time"

// Signal is an edge-triggered wake flag shared between goroutines.
//
// Set marks a pending wake; if nobody is waiting, the next wait returns
// immediately. Multiple Set calls collapse into one pending wake. Each
// successful wait consumes the flag.
type Signal struct {
	ch chan struct{}
}

// NewSignal creates a signal with no pending wake.
func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{}, 1)}
}

// Set marks a pending wake. It never blocks and is idempotent while the
// wake is pending.
func (s *Signal) Set() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// Wait blocks until a wake is pending, then consumes it.
func (s *Signal) Wait() {
	<-s.ch
}

// WaitUntil blocks until a wake is pending or the absolute deadline passes.
// It returns true if it was woken, false on timeout (the flag, if set later,
// stays pending).
func (s *Signal) WaitUntil(deadline time.Time) bool {
	return s.WaitFor(time.Until(deadline))
}

// WaitFor is WaitUntil with a deadline relative to the time of the call.
func (s *Signal) WaitFor(d time.Duration) bool {
	if d <= 0 {
		select {
		case <-s.ch:
			return true
		default:
			return false
		}
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-s.ch:
		return true
	case <-t.C:
		return false
	}
}
