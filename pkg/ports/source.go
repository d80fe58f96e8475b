package ports

import (
	"context"

	"github.com/user/gopcodec/pkg/frame"
)

// FrameSource supplies an ordered, finite sequence of frames.
//
// Next returns io.EOF after the last frame. Reset rewinds the source so the
// same frames can be read again from the start.
type FrameSource interface {
	Next(ctx context.Context) (frame.Frame, error)
	Reset() error
}
