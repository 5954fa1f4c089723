package ports

import (
	"image"

	"github.com/user/signage/pkg/timeline"
)

// DebugSink abstracts debug output for intermediate results.
// It allows saving decoded frames and stream metadata for diagnosis.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveInfoJSON saves the stream metadata as JSON.
	SaveInfoJSON(data []byte) error

	// SaveDecodedFrame saves a decoded frame image keyed by its timestamp.
	SaveDecodedFrame(t timeline.Seconds, img image.Image) error
}
