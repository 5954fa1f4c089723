package ports

import (
	"image"
)

// DisplayMode describes one fixed video mode of a display output.
type DisplayMode struct {
	Name      string
	Width     int
	Height    int
	RefreshHz int
}

// DisplayStatus describes one physical display connector.
type DisplayStatus struct {
	ConnectorID   uint32
	ConnectorName string
	Detected      bool          // A display is plugged in
	Modes         []DisplayMode // Modes the display advertises
	ActiveMode    DisplayMode   // Zero value when the output is off
}

// DisplayLayer places a device-resident image on the screen.
type DisplayLayer struct {
	Image ImageBuffer

	// Source rectangle within the image, in pixels.
	ImageX, ImageY          float64
	ImageWidth, ImageHeight float64

	// Destination rectangle on the screen, in pixels.
	ScreenX, ScreenY          int
	ScreenWidth, ScreenHeight int
}

// ImageBuffer is a device-resident image with shared ownership.
//
// Ownership is reference counted: the frame cache, in-flight snapshots and
// the display may all hold the same buffer; it returns to the allocator when
// the last holder releases it.
type ImageBuffer interface {
	// Width returns the buffer width in pixels.
	Width() int

	// Height returns the buffer height in pixels.
	Height() int

	// BitsPerPixel returns the pixel depth the buffer was allocated with.
	BitsPerPixel() int

	// Draw uploads decoded pixel data into the buffer, scaling if needed.
	Draw(img image.Image) error

	// Retain adds a reference and returns the same buffer.
	Retain() ImageBuffer

	// Release drops a reference, freeing the buffer on the last one.
	Release()
}

// DisplayDriver abstracts a display device: connector scanning, buffer
// allocation and output updates. Hardware programming details stay behind
// this interface.
type DisplayDriver interface {
	// ScanOutputs lists the device's connectors and their current state.
	ScanOutputs() ([]DisplayStatus, error)

	// MakeBuffer allocates a device-resident image buffer.
	MakeBuffer(width, height, bitsPerPixel int) (ImageBuffer, error)

	// ReadyForUpdate reports whether the connector can accept a new update.
	ReadyForUpdate(connectorID uint32) bool

	// UpdateOutput shows the given layers on a connector using a mode.
	UpdateOutput(connectorID uint32, mode DisplayMode, layers []DisplayLayer) error
}
