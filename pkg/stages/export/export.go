// Package export implements the stage that writes decoded frames as images.
package export

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/user/gopcodec/pkg/pipeline"
	"github.com/user/gopcodec/pkg/ports"
)

// Stage writes frames as numbered image files.
type Stage struct {
	fs       ports.FileSystem
	renderer ports.Renderer
}

// NewStage creates a new export stage.
func NewStage(fs ports.FileSystem, renderer ports.Renderer) *Stage {
	return &Stage{fs: fs, renderer: renderer}
}

// Execute writes input.Frames to input.OutputDir. Files are numbered by
// position so that sorting them by name gives the playback order.
func (s *Stage) Execute(ctx context.Context, input pipeline.ExportInput) (pipeline.ExportResult, error) {
	result := pipeline.ExportResult{}
	if err := s.fs.MkdirAll(input.OutputDir); err != nil {
		return result, fmt.Errorf("create %s: %w", input.OutputDir, err)
	}

	ext := ".png"
	if input.Format == ports.FormatJPEG {
		ext = ".jpg"
	}

	for i, df := range input.Frames {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		data, err := s.renderer.EncodeImage(df.Frame.ToImage(), input.Format, input.Quality)
		if err != nil {
			return result, fmt.Errorf("encode frame %d: %w", df.Number, err)
		}
		path := filepath.Join(input.OutputDir, fmt.Sprintf("frame-%04d%s", i+1, ext))
		if err := s.fs.WriteFile(path, data); err != nil {
			return result, fmt.Errorf("write frame %d: %w", df.Number, err)
		}
		result.Files = append(result.Files, path)
	}
	return result, nil
}
