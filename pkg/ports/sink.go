package ports

import (
	"image"
)

// DebugSink receives intermediate codec results for inspection.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveMetadataJSON saves the stream metadata as indented JSON.
	SaveMetadataJSON(data []byte) error

	// SaveReconstructedFrame saves the frame the decoder will see for a frame number.
	SaveReconstructedFrame(number int, img image.Image) error

	// SaveMotionField saves a motion vector overlay for an inter frame.
	SaveMotionField(number int, img image.Image) error
}
