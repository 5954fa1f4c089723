package mocks

import (
	"image"
	"sync"

	"github.com/user/signage/pkg/ports"
	"github.com/user/signage/pkg/timeline"
)

// ScriptedFrame describes one frame a MediaDecoder mock will emit.
type ScriptedFrame struct {
	Time    timeline.Seconds
	Corrupt bool
}

// MediaDecoder is a mock implementation of ports.MediaDecoder.
//
// By default it emits the scripted frames in order, always ready, and
// reports EOF after the last one. The Func fields override each method.
type MediaDecoder struct {
	InfoFunc            func() ports.MediaInfo
	ReachedEOFFunc      func() bool
	GetFrameIfReadyFunc func() (*ports.MediaFrame, error)
	CloseFunc           func()

	// Script drives the default GetFrameIfReady behavior.
	Script []ScriptedFrame

	// StreamInfo is returned by the default Info. Zero FrameRate defaults
	// to 1 fps so scripted integer timestamps cover unit-length spans.
	StreamInfo ports.MediaInfo

	// NotReadyEvery makes every Nth poll return "not ready" when > 0.
	NotReadyEvery int

	mu          sync.Mutex
	next        int
	polls       int
	CloseCalled bool
}

// NewMediaDecoder creates a mock decoder emitting one frame per second at
// the given timestamps.
func NewMediaDecoder(times ...timeline.Seconds) *MediaDecoder {
	d := &MediaDecoder{
		StreamInfo: ports.MediaInfo{
			ContainerType: "mock",
			CodecName:     "mock",
			Width:         8,
			Height:        8,
			FrameRate:     1,
		},
	}
	for _, t := range times {
		d.Script = append(d.Script, ScriptedFrame{Time: t})
	}
	return d
}

// MarkCorrupt flags the scripted frame at time t corrupt.
func (m *MediaDecoder) MarkCorrupt(t timeline.Seconds) {
	for i := range m.Script {
		if m.Script[i].Time == t {
			m.Script[i].Corrupt = true
		}
	}
}

func (m *MediaDecoder) Info() ports.MediaInfo {
	if m.InfoFunc != nil {
		return m.InfoFunc()
	}
	info := m.StreamInfo
	if info.FrameRate == 0 {
		info.FrameRate = 1
	}
	return info
}

func (m *MediaDecoder) ReachedEOF() bool {
	if m.ReachedEOFFunc != nil {
		return m.ReachedEOFFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.next >= len(m.Script)
}

func (m *MediaDecoder) GetFrameIfReady() (*ports.MediaFrame, error) {
	if m.GetFrameIfReadyFunc != nil {
		return m.GetFrameIfReadyFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.next >= len(m.Script) {
		return nil, nil
	}
	m.polls++
	if m.NotReadyEvery > 0 && m.polls%m.NotReadyEvery == 0 {
		return nil, nil
	}
	s := m.Script[m.next]
	m.next++
	frame := &ports.MediaFrame{
		Time:       s.Time,
		FrameType:  "I",
		IsKeyFrame: true,
		IsCorrupt:  s.Corrupt,
	}
	if !s.Corrupt {
		info := m.Info()
		frame.Image = image.NewRGBA(image.Rect(0, 0, info.Width, info.Height))
	}
	return frame, nil
}

func (m *MediaDecoder) Close() {
	m.mu.Lock()
	m.CloseCalled = true
	m.mu.Unlock()
	if m.CloseFunc != nil {
		m.CloseFunc()
	}
}

var _ ports.MediaDecoder = (*MediaDecoder)(nil)
