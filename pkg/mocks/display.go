package mocks

import (
	"fmt"
	"image"
	"sync"

	"github.com/user/signage/pkg/ports"
)

// UpdateCall records a call to DisplayDriver.UpdateOutput.
type UpdateCall struct {
	ConnectorID uint32
	Mode        ports.DisplayMode
	Layers      []ports.DisplayLayer
}

// DisplayDriver is a mock implementation of ports.DisplayDriver.
type DisplayDriver struct {
	ScanOutputsFunc    func() ([]ports.DisplayStatus, error)
	MakeBufferFunc     func(width, height, bpp int) (ports.ImageBuffer, error)
	ReadyForUpdateFunc func(connectorID uint32) bool
	UpdateOutputFunc   func(connectorID uint32, mode ports.DisplayMode, layers []ports.DisplayLayer) error

	mu          sync.Mutex
	allocated   int
	released    int
	UpdateCalls []UpdateCall
}

// NewDisplayDriver creates a mock display driver.
func NewDisplayDriver() *DisplayDriver {
	return &DisplayDriver{}
}

func (m *DisplayDriver) ScanOutputs() ([]ports.DisplayStatus, error) {
	if m.ScanOutputsFunc != nil {
		return m.ScanOutputsFunc()
	}
	mode := ports.DisplayMode{Name: "mock", Width: 640, Height: 480, RefreshHz: 60}
	return []ports.DisplayStatus{{
		ConnectorID:   1,
		ConnectorName: "Mock-1",
		Detected:      true,
		Modes:         []ports.DisplayMode{mode},
		ActiveMode:    mode,
	}}, nil
}

func (m *DisplayDriver) MakeBuffer(width, height, bpp int) (ports.ImageBuffer, error) {
	if m.MakeBufferFunc != nil {
		return m.MakeBufferFunc(width, height, bpp)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid buffer size %dx%d", width, height)
	}
	m.mu.Lock()
	m.allocated++
	m.mu.Unlock()
	return &ImageBuffer{width: width, height: height, bpp: bpp, refs: 1, driver: m}, nil
}

func (m *DisplayDriver) ReadyForUpdate(connectorID uint32) bool {
	if m.ReadyForUpdateFunc != nil {
		return m.ReadyForUpdateFunc(connectorID)
	}
	return true
}

func (m *DisplayDriver) UpdateOutput(connectorID uint32, mode ports.DisplayMode, layers []ports.DisplayLayer) error {
	m.mu.Lock()
	m.UpdateCalls = append(m.UpdateCalls, UpdateCall{ConnectorID: connectorID, Mode: mode, Layers: layers})
	m.mu.Unlock()
	if m.UpdateOutputFunc != nil {
		return m.UpdateOutputFunc(connectorID, mode, layers)
	}
	return nil
}

// LiveBuffers returns allocated minus fully released buffers.
func (m *DisplayDriver) LiveBuffers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.allocated - m.released
}

// Updates returns a copy of the recorded UpdateOutput calls.
func (m *DisplayDriver) Updates() []UpdateCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]UpdateCall, len(m.UpdateCalls))
	copy(out, m.UpdateCalls)
	return out
}

// ImageBuffer is the mock buffer type returned by DisplayDriver.
type ImageBuffer struct {
	width, height, bpp int

	mu     sync.Mutex
	refs   int
	drawn  int
	driver *DisplayDriver
}

func (b *ImageBuffer) Width() int        { return b.width }
func (b *ImageBuffer) Height() int       { return b.height }
func (b *ImageBuffer) BitsPerPixel() int { return b.bpp }

func (b *ImageBuffer) Draw(img image.Image) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.refs <= 0 {
		return fmt.Errorf("draw on released buffer")
	}
	if img == nil {
		return fmt.Errorf("nil image")
	}
	b.drawn++
	return nil
}

func (b *ImageBuffer) Retain() ports.ImageBuffer {
	b.mu.Lock()
	b.refs++
	b.mu.Unlock()
	return b
}

func (b *ImageBuffer) Release() {
	b.mu.Lock()
	b.refs--
	last := b.refs == 0
	b.mu.Unlock()
	if last && b.driver != nil {
		b.driver.mu.Lock()
		b.driver.released++
		b.driver.mu.Unlock()
	}
}

// Refs returns the current reference count.
func (b *ImageBuffer) Refs() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refs
}

var _ ports.DisplayDriver = (*DisplayDriver)(nil)
var _ ports.ImageBuffer = (*ImageBuffer)(nil)
