// Package nullsink provides a debug sink that discards everything.
package nullsink

import (
	"image"

	"github.com/user/gopcodec/pkg/ports"
)

// Sink is a no-op implementation of ports.DebugSink.
type Sink struct{}

var _ ports.DebugSink = (*Sink)(nil)

// New creates a new Sink.
func New() *Sink {
	return &Sink{}
}

// Enabled returns false so callers skip building debug output.
func (s *Sink) Enabled() bool { return false }

func (s *Sink) SaveMetadataJSON(data []byte) error { return nil }

func (s *Sink) SaveReconstructedFrame(number int, img image.Image) error { return nil }

func (s *Sink) SaveMotionField(number int, img image.Image) error { return nil }
