package mocks

import (
	"image"
	"sync"

	"github.com/user/signage/pkg/ports"
	"github.com/user/signage/pkg/timeline"
)

// DebugSink is a mock implementation of ports.DebugSink that records what
// was saved.
type DebugSink struct {
	EnabledFunc          func() bool
	SaveInfoJSONFunc     func(data []byte) error
	SaveDecodedFrameFunc func(t timeline.Seconds, img image.Image) error

	mu         sync.Mutex
	infoJSON   [][]byte
	frameTimes []timeline.Seconds
}

// NewDebugSink creates an enabled mock sink.
func NewDebugSink() *DebugSink {
	return &DebugSink{}
}

func (m *DebugSink) Enabled() bool {
	if m.EnabledFunc != nil {
		return m.EnabledFunc()
	}
	return true
}

func (m *DebugSink) SaveInfoJSON(data []byte) error {
	m.mu.Lock()
	m.infoJSON = append(m.infoJSON, data)
	m.mu.Unlock()
	if m.SaveInfoJSONFunc != nil {
		return m.SaveInfoJSONFunc(data)
	}
	return nil
}

func (m *DebugSink) SaveDecodedFrame(t timeline.Seconds, img image.Image) error {
	m.mu.Lock()
	m.frameTimes = append(m.frameTimes, t)
	m.mu.Unlock()
	if m.SaveDecodedFrameFunc != nil {
		return m.SaveDecodedFrameFunc(t, img)
	}
	return nil
}

// InfoJSON returns the recorded metadata payloads.
func (m *DebugSink) InfoJSON() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.infoJSON))
	copy(out, m.infoJSON)
	return out
}

// FrameTimes returns the timestamps of the saved frames.
func (m *DebugSink) FrameTimes() []timeline.Seconds {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]timeline.Seconds, len(m.frameTimes))
	copy(out, m.frameTimes)
	return out
}

var _ ports.DebugSink = (*DebugSink)(nil)
