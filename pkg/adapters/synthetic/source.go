// Package synthetic generates test sequences of moving shapes.
package synthetic

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/user/gopcodec/pkg/frame"
	"github.com/user/gopcodec/pkg/ports"
)

// Options configures the generated sequence.
type Options struct {
	Width    int
	Height   int
	Channels int
	Frames   int
	// Speed is the displacement in pixels per frame of the moving shapes.
	Speed int
}

// Source implements ports.FrameSource. Each frame shows a square moving
// right and a disc moving down over a striped background.
type Source struct {
	renderer ports.Renderer
	opts     Options
	next     int
}

var _ ports.FrameSource = (*Source)(nil)

// New creates a Source.
func New(renderer ports.Renderer, opts Options) (*Source, error) {
	if opts.Width < 1 || opts.Height < 1 {
		return nil, fmt.Errorf("invalid resolution %dx%d", opts.Width, opts.Height)
	}
	if opts.Frames < 0 {
		return nil, fmt.Errorf("invalid frame count %d", opts.Frames)
	}
	if opts.Channels == 0 {
		opts.Channels = 3
	}
	if opts.Speed == 0 {
		opts.Speed = 2
	}
	return &Source{renderer: renderer, opts: opts}, nil
}

// Next renders the next frame.
func (s *Source) Next(ctx context.Context) (frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return frame.Frame{}, err
	}
	if s.next >= s.opts.Frames {
		return frame.Frame{}, io.EOF
	}
	i := s.next
	s.next++
	return frame.FromImage(s.render(i), s.opts.Channels)
}

// Reset restarts the sequence.
func (s *Source) Reset() error {
	s.next = 0
	return nil
}

func (s *Source) render(i int) image.Image {
	w, h := s.opts.Width, s.opts.Height
	canvas := s.renderer.CreateCanvas(w, h, color.RGBA{R: 40, G: 44, B: 52, A: 255})

	stripe := max(h/8, 1)
	for y := 0; y < h; y += 2 * stripe {
		canvas.DrawRect(0, y, w, stripe, color.RGBA{R: 60, G: 66, B: 78, A: 255})
	}

	side := max(min(w, h)/4, 1)
	x := (i * s.opts.Speed) % max(w-side, 1)
	canvas.DrawRect(x, (h-side)/2, side, side, color.RGBA{R: 220, G: 80, B: 60, A: 255})
	canvas.DrawRectStroke(x, (h-side)/2, side, side, color.White, 1)

	radius := float64(side) / 2
	cy := int(radius) + (i*s.opts.Speed)%max(h-side, 1)
	canvas.DrawCircle(w/4, cy, radius, color.RGBA{R: 70, G: 170, B: 230, A: 255})

	return canvas.ToImage()
}
