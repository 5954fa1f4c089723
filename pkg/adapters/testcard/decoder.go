// Package testcard provides a synthetic media decoder that renders color
// bars with a timestamp readout. It needs no media file or codec, which
// makes it the demo source for the CLI and a realistic decoder for
// integration tests.
package testcard

import (
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"

	"github.com/user/signage/pkg/ports"
	"github.com/user/signage/pkg/timeline"
)

// Config describes the synthetic stream.
type Config struct {
	Width    int     // Frame width (default 640)
	Height   int     // Frame height (default 360)
	FPS      float64 // Frame rate (default 30)
	Duration float64 // Stream length in seconds (default 10)
	Label    string  // Text drawn above the timestamp
}

// Defaults fills unset fields with the default test card parameters.
func (c Config) Defaults() Config {
	if c.Width <= 0 {
		c.Width = 640
	}
	if c.Height <= 0 {
		c.Height = 360
	}
	if c.FPS <= 0 {
		c.FPS = 30
	}
	if c.Duration <= 0 {
		c.Duration = 10
	}
	if c.Label == "" {
		c.Label = "signage test card"
	}
	return c
}

// The classic 75% bar colors, left to right.
var barColors = []color.RGBA{
	{R: 0xc0, G: 0xc0, B: 0xc0, A: 0xff}, // white
	{R: 0xc0, G: 0xc0, B: 0x00, A: 0xff}, // yellow
	{R: 0x00, G: 0xc0, B: 0xc0, A: 0xff}, // cyan
	{R: 0x00, G: 0xc0, B: 0x00, A: 0xff}, // green
	{R: 0xc0, G: 0x00, B: 0xc0, A: 0xff}, // magenta
	{R: 0xc0, G: 0x00, B: 0x00, A: 0xff}, // red
	{R: 0x00, G: 0x00, B: 0xc0, A: 0xff}, // blue
}

// Decoder implements ports.MediaDecoder with rendered frames.
type Decoder struct {
	cfg   Config
	info  ports.MediaInfo
	next  int
	total int
}

// New creates a test card decoder.
func New(cfg Config) *Decoder {
	cfg = cfg.Defaults()
	total := int(cfg.Duration * cfg.FPS)
	return &Decoder{
		cfg:   cfg,
		total: total,
		info: ports.MediaInfo{
			ContainerType: "testcard",
			CodecName:     "testcard",
			PixelFormat:   "rgba",
			Width:         cfg.Width,
			Height:        cfg.Height,
			Duration:      cfg.Duration,
			FrameRate:     cfg.FPS,
		},
	}
}

// Open adapts New to the decoder construction seam; the filename is used
// as the card label.
func Open(filename string) (ports.MediaDecoder, error) {
	return New(Config{Label: filename}), nil
}

// Info returns the synthetic stream metadata.
func (d *Decoder) Info() ports.MediaInfo {
	return d.info
}

// ReachedEOF reports whether all frames were emitted.
func (d *Decoder) ReachedEOF() bool {
	return d.next >= d.total
}

// GetFrameIfReady renders and returns the next frame. It is always ready
// until EOF.
func (d *Decoder) GetFrameIfReady() (*ports.MediaFrame, error) {
	if d.next >= d.total {
		return nil, nil
	}
	t := timeline.Seconds(d.next) / timeline.Seconds(d.cfg.FPS)
	img := d.render(t)
	d.next++
	return &ports.MediaFrame{
		Time:       t,
		Image:      img,
		FrameType:  "I",
		IsKeyFrame: true,
	}, nil
}

// Close is a no-op; the decoder holds no resources.
func (d *Decoder) Close() {}

func (d *Decoder) render(t timeline.Seconds) image.Image {
	w, h := float64(d.cfg.Width), float64(d.cfg.Height)
	dc := gg.NewContext(d.cfg.Width, d.cfg.Height)

	// Bars over the top two thirds, a black strip below.
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	barWidth := w / float64(len(barColors))
	barHeight := h * 2 / 3
	for i, c := range barColors {
		dc.SetColor(c)
		dc.DrawRectangle(float64(i)*barWidth, 0, barWidth, barHeight)
		dc.Fill()
	}

	// A moving marker makes frozen output obvious at a glance.
	markerX := (t * 60.0) // pixels per second
	for markerX >= w {
		markerX -= w
	}
	dc.SetRGB(1, 1, 1)
	dc.DrawRectangle(markerX, barHeight, 4, h/12)
	dc.Fill()

	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(d.cfg.Label, w/2, barHeight+h/6, 0.5, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("%08.3fs", t), w/2, barHeight+h/4, 0.5, 0.5)
	return dc.Image()
}

var _ ports.MediaDecoder = (*Decoder)(nil)
