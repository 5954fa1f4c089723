package ports

import (
	"image"

	"github.com/user/signage/pkg/timeline"
)

// MediaInfo describes static stream metadata. It is fixed for the lifetime
// of the stream it was read from.
type MediaInfo struct {
	ContainerType string
	CodecName     string
	PixelFormat   string
	Width         int
	Height        int
	Duration      float64 // Total duration in seconds (0 = unknown)
	FrameRate     float64 // Nominal frames per second (0 = unknown)
	BitRate       int64   // Bits per second (0 = unknown)
}

// FrameDuration returns the nominal duration of one frame.
func (mi MediaInfo) FrameDuration() timeline.Seconds {
	if mi.FrameRate > 0 {
		return timeline.Seconds(1.0 / mi.FrameRate)
	}
	// Assume a common display rate when the container doesn't say.
	return timeline.Seconds(1.0 / 30.0)
}

// MediaFrame is one decoded video frame.
type MediaFrame struct {
	Time       timeline.Seconds
	Image      image.Image
	FrameType  string
	IsKeyFrame bool
	IsCorrupt  bool // Decoder flagged the frame damaged; Image may be nil
}

// MediaDecoder abstracts a forward-only video decoder.
//
// Frames are emitted strictly increasing in time. GetFrameIfReady is
// non-blocking: a nil frame with a nil error means "try again later".
// A non-nil error means the decoder is permanently broken.
type MediaDecoder interface {
	// Info returns the stream metadata.
	Info() MediaInfo

	// ReachedEOF reports whether the decoder has consumed the whole stream.
	ReachedEOF() bool

	// GetFrameIfReady returns the next frame if one is available.
	GetFrameIfReady() (*MediaFrame, error)

	// Close releases decoder resources.
	Close()
}

// OpenDecoderFunc constructs a decoder for a media file. It is the
// construction seam that lets tests substitute a fake decoder.
type OpenDecoderFunc func(filename string) (MediaDecoder, error)
