// Package nullsink provides a no-op debug sink implementation.
package nullsink

import (
	"image"

	"github.com/user/signage/pkg/ports"
	"github.com/user/signage/pkg/timeline"
)

// Sink is a no-op implementation of ports.DebugSink.
// It discards all debug output.
type Sink struct{}

// New creates a new null sink.
func New() *Sink {
	return &Sink{}
}

// Enabled returns false as this sink discards all output.
func (s *Sink) Enabled() bool {
	return false
}

// SaveInfoJSON does nothing.
func (s *Sink) SaveInfoJSON(data []byte) error {
	return nil
}

// SaveDecodedFrame does nothing.
func (s *Sink) SaveDecodedFrame(t timeline.Seconds, img image.Image) error {
	return nil
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
