package codec

import (
	"context"
	"io"

	"github.com/user/gopcodec/pkg/frame"
	"github.com/user/gopcodec/pkg/ports"
)

// SliceSource serves frames from memory.
type SliceSource struct {
	frames []frame.Frame
	next   int
}

var _ ports.FrameSource = (*SliceSource)(nil)

// NewSliceSource creates a source over frames.
func NewSliceSource(frames []frame.Frame) *SliceSource {
	return &SliceSource{frames: frames}
}

// Next returns the next frame or io.EOF.
func (s *SliceSource) Next(ctx context.Context) (frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return frame.Frame{}, err
	}
	if s.next >= len(s.frames) {
		return frame.Frame{}, io.EOF
	}
	f := s.frames[s.next]
	s.next++
	return f, nil
}

// Reset rewinds to the first frame.
func (s *SliceSource) Reset() error {
	s.next = 0
	return nil
}
