// Package imagesource reads frames from a directory of PNG or JPEG files.
package imagesource

import (
	"context"
	"fmt"
	"io"

	"github.com/user/gopcodec/pkg/frame"
	"github.com/user/gopcodec/pkg/ports"
)

// Options configures a Source.
type Options struct {
	Dir string
	// Width and Height resize every image. Both zero takes the size of
	// the first image; setting only one is an error.
	Width  int
	Height int
	// Channels is 1 for grayscale or 3 for RGB.
	Channels int
}

// Source implements ports.FrameSource over image files sorted by name.
type Source struct {
	fs       ports.FileSystem
	renderer ports.Renderer
	opts     Options
	files    []string
	next     int
}

var _ ports.FrameSource = (*Source)(nil)

// New lists the images in opts.Dir. Files with other extensions are ignored.
func New(fs ports.FileSystem, renderer ports.Renderer, opts Options) (*Source, error) {
	if opts.Channels == 0 {
		opts.Channels = 3
	}
	if opts.Width < 0 || opts.Height < 0 {
		return nil, fmt.Errorf("invalid resolution %dx%d", opts.Width, opts.Height)
	}
	if (opts.Width == 0) != (opts.Height == 0) {
		return nil, fmt.Errorf("resolution %dx%d sets only one side; give both or neither", opts.Width, opts.Height)
	}
	paths, err := fs.ListFiles(opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", opts.Dir, err)
	}
	var files []string
	for _, p := range paths {
		if _, ok := ports.FormatFromPath(p); ok {
			files = append(files, p)
		}
	}
	return &Source{fs: fs, renderer: renderer, opts: opts, files: files}, nil
}

// Len returns the number of frames the source will produce.
func (s *Source) Len() int {
	return len(s.files)
}

// Next decodes the next image, resizing it when needed.
func (s *Source) Next(ctx context.Context) (frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return frame.Frame{}, err
	}
	if s.next >= len(s.files) {
		return frame.Frame{}, io.EOF
	}
	path := s.files[s.next]
	s.next++

	data, err := s.fs.ReadFile(path)
	if err != nil {
		return frame.Frame{}, fmt.Errorf("read %s: %w", path, err)
	}
	format, _ := ports.FormatFromPath(path)
	img, err := s.renderer.DecodeImage(data, format)
	if err != nil {
		return frame.Frame{}, fmt.Errorf("decode %s: %w", path, err)
	}

	if s.opts.Width == 0 {
		b := img.Bounds()
		s.opts.Width, s.opts.Height = b.Dx(), b.Dy()
	}
	if b := img.Bounds(); b.Dx() != s.opts.Width || b.Dy() != s.opts.Height {
		img = s.renderer.ResizeImage(img, s.opts.Width, s.opts.Height)
	}

	f, err := frame.FromImage(img, s.opts.Channels)
	if err != nil {
		return frame.Frame{}, fmt.Errorf("convert %s: %w", path, err)
	}
	return f, nil
}

// Reset rewinds to the first file.
func (s *Source) Reset() error {
	s.next = 0
	return nil
}
