// Package memdisplay provides an in-memory display driver.
//
// It models a display device with virtual connectors and reference-counted
// RGBA buffers. It stands in for real scanout hardware in tests, headless
// runs and soak tests; the hardware programming sequence itself stays
// outside this module.
package memdisplay

import (
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	xdraw "golang.org/x/image/draw"

	"github.com/user/signage/pkg/ports"
)

// DefaultMode is the mode used for connectors created without one.
var DefaultMode = ports.DisplayMode{Name: "1920x1080p60", Width: 1920, Height: 1080, RefreshHz: 60}

// Driver implements ports.DisplayDriver backed by plain memory.
type Driver struct {
	mu         sync.Mutex
	connectors []*connector
	live       atomic.Int64 // buffers allocated and not yet fully released
}

type connector struct {
	status ports.DisplayStatus
	screen *image.RGBA
}

// New creates a driver with one detected connector per given mode. With no
// modes it creates a single connector with DefaultMode.
func New(modes ...ports.DisplayMode) *Driver {
	if len(modes) == 0 {
		modes = []ports.DisplayMode{DefaultMode}
	}
	d := &Driver{}
	for i, mode := range modes {
		d.connectors = append(d.connectors, &connector{
			status: ports.DisplayStatus{
				ConnectorID:   uint32(i + 1),
				ConnectorName: fmt.Sprintf("Virtual-%d", i+1),
				Detected:      true,
				Modes:         []ports.DisplayMode{mode},
				ActiveMode:    mode,
			},
			screen: image.NewRGBA(image.Rect(0, 0, mode.Width, mode.Height)),
		})
	}
	return d
}

// ScanOutputs lists the virtual connectors.
func (d *Driver) ScanOutputs() ([]ports.DisplayStatus, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]ports.DisplayStatus, len(d.connectors))
	for i, c := range d.connectors {
		out[i] = c.status
	}
	return out, nil
}

// MakeBuffer allocates a reference-counted RGBA buffer.
func (d *Driver) MakeBuffer(width, height, bitsPerPixel int) (ports.ImageBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid buffer size %dx%d", width, height)
	}
	b := &buffer{
		rgba:   image.NewRGBA(image.Rect(0, 0, width, height)),
		bpp:    bitsPerPixel,
		driver: d,
	}
	b.refs.Store(1)
	d.live.Add(1)
	return b, nil
}

// ReadyForUpdate always reports true; memory has no vblank to wait for.
func (d *Driver) ReadyForUpdate(connectorID uint32) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.find(connectorID) != nil
}

// UpdateOutput composites the layers onto the connector's screen image.
func (d *Driver) UpdateOutput(connectorID uint32, mode ports.DisplayMode, layers []ports.DisplayLayer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	c := d.find(connectorID)
	if c == nil {
		return fmt.Errorf("no connector %d", connectorID)
	}
	if mode.Width != c.status.ActiveMode.Width || mode.Height != c.status.ActiveMode.Height {
		return fmt.Errorf("mode %s does not fit connector %s", mode.Name, c.status.ConnectorName)
	}
	for _, layer := range layers {
		src, ok := layer.Image.(*buffer)
		if !ok {
			return fmt.Errorf("layer image is not a memdisplay buffer")
		}
		if src.refs.Load() <= 0 {
			return fmt.Errorf("layer image was already released")
		}
		srcRect := image.Rect(
			int(layer.ImageX), int(layer.ImageY),
			int(layer.ImageX+layer.ImageWidth), int(layer.ImageY+layer.ImageHeight),
		)
		dstRect := image.Rect(
			layer.ScreenX, layer.ScreenY,
			layer.ScreenX+layer.ScreenWidth, layer.ScreenY+layer.ScreenHeight,
		)
		xdraw.ApproxBiLinear.Scale(c.screen, dstRect, src.rgba, srcRect, xdraw.Over, nil)
	}
	return nil
}

// Screen returns a copy of the connector's current screen contents.
func (d *Driver) Screen(connectorID uint32) (image.Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c := d.find(connectorID)
	if c == nil {
		return nil, fmt.Errorf("no connector %d", connectorID)
	}
	out := image.NewRGBA(c.screen.Rect)
	copy(out.Pix, c.screen.Pix)
	return out, nil
}

// LiveBuffers returns the number of buffers not yet fully released. Tests
// use it to assert deterministic teardown.
func (d *Driver) LiveBuffers() int {
	return int(d.live.Load())
}

func (d *Driver) find(connectorID uint32) *connector {
	for _, c := range d.connectors {
		if c.status.ConnectorID == connectorID {
			return c
		}
	}
	return nil
}

// buffer is a reference-counted RGBA image.
type buffer struct {
	rgba   *image.RGBA
	bpp    int
	refs   atomic.Int32
	driver *Driver
}

func (b *buffer) Width() int        { return b.rgba.Rect.Dx() }
func (b *buffer) Height() int       { return b.rgba.Rect.Dy() }
func (b *buffer) BitsPerPixel() int { return b.bpp }

// Draw uploads img into the buffer, scaling when the sizes differ.
func (b *buffer) Draw(img image.Image) error {
	if b.refs.Load() <= 0 {
		return fmt.Errorf("draw on released buffer")
	}
	if img == nil {
		return fmt.Errorf("nil image")
	}
	if img.Bounds().Dx() == b.rgba.Rect.Dx() && img.Bounds().Dy() == b.rgba.Rect.Dy() {
		xdraw.Draw(b.rgba, b.rgba.Rect, img, img.Bounds().Min, xdraw.Src)
		return nil
	}
	xdraw.ApproxBiLinear.Scale(b.rgba, b.rgba.Rect, img, img.Bounds(), xdraw.Src, nil)
	return nil
}

// Retain adds a reference.
func (b *buffer) Retain() ports.ImageBuffer {
	b.refs.Add(1)
	return b
}

// Release drops a reference, returning the memory on the last one.
func (b *buffer) Release() {
	if b.refs.Add(-1) == 0 {
		b.driver.live.Add(-1)
	}
}

var _ ports.DisplayDriver = (*Driver)(nil)
var _ ports.ImageBuffer = (*buffer)(nil)
