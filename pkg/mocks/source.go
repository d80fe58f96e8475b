package mocks

import (
	"context"
	"io"

	"github.com/user/gopcodec/pkg/frame"
	"github.com/user/gopcodec/pkg/ports"
)

// FrameSource serves a fixed list of frames and can fail on demand.
type FrameSource struct {
	Frames []frame.Frame
	// FailAt makes Next return Err instead of the frame at this index.
	FailAt int
	Err    error

	next       int
	ResetCalls int
}

var _ ports.FrameSource = (*FrameSource)(nil)

// NewFrameSource creates a source over frames.
func NewFrameSource(frames ...frame.Frame) *FrameSource {
	return &FrameSource{Frames: frames, FailAt: -1}
}

func (m *FrameSource) Next(ctx context.Context) (frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return frame.Frame{}, err
	}
	if m.next == m.FailAt {
		return frame.Frame{}, m.Err
	}
	if m.next >= len(m.Frames) {
		return frame.Frame{}, io.EOF
	}
	f := m.Frames[m.next]
	m.next++
	return f, nil
}

func (m *FrameSource) Reset() error {
	m.ResetCalls++
	m.next = 0
	return nil
}
