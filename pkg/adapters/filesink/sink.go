// Package filesink writes codec debug output under a base directory.
//
// Layout:
//
//	<base>/metadata.json
//	<base>/frames/recon/frame-0001.png
//	<base>/frames/motion/frame-0002.png
package filesink

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/user/gopcodec/pkg/ports"
)

// Sink saves debug output to files.
type Sink struct {
	baseDir  string
	fs       ports.FileSystem
	renderer ports.Renderer
}

var _ ports.DebugSink = (*Sink)(nil)

// New creates a new Sink.
func New(baseDir string, fs ports.FileSystem, renderer ports.Renderer) *Sink {
	return &Sink{
		baseDir:  baseDir,
		fs:       fs,
		renderer: renderer,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveMetadataJSON saves the stream metadata.
func (s *Sink) SaveMetadataJSON(data []byte) error {
	return s.fs.WriteFile(filepath.Join(s.baseDir, "metadata.json"), data)
}

// SaveReconstructedFrame saves the decoder's view of a frame as PNG.
func (s *Sink) SaveReconstructedFrame(number int, img image.Image) error {
	return s.savePNG("recon", number, img)
}

// SaveMotionField saves a motion vector overlay as PNG.
func (s *Sink) SaveMotionField(number int, img image.Image) error {
	return s.savePNG("motion", number, img)
}

func (s *Sink) savePNG(kind string, number int, img image.Image) error {
	dir := filepath.Join(s.baseDir, "frames", kind)
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	data, err := s.renderer.EncodeImage(img, ports.FormatPNG, 0)
	if err != nil {
		return fmt.Errorf("encode %s frame %d: %w", kind, number, err)
	}
	return s.fs.WriteFile(filepath.Join(dir, fmt.Sprintf("frame-%04d.png", number)), data)
}
