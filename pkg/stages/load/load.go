// Package load implements the stage that reads a stored stream.
package load

import (
	"context"
	"fmt"

	"github.com/user/gopcodec/pkg/pipeline"
	"github.com/user/gopcodec/pkg/ports"
)

// Stage reads the metadata sidecar and the bit buffer, either raw or from
// an MP4 file.
type Stage struct {
	fs        ports.FileSystem
	container ports.Container
	meta      ports.MetadataStore
}

// NewStage creates a new load stage.
func NewStage(fs ports.FileSystem, container ports.Container, meta ports.MetadataStore) *Stage {
	return &Stage{fs: fs, container: container, meta: meta}
}

// Execute loads the stream named by input.
func (s *Stage) Execute(ctx context.Context, input pipeline.LoadInput) (pipeline.LoadResult, error) {
	if input.MetadataPath == "" {
		return pipeline.LoadResult{}, fmt.Errorf("metadata path is required")
	}
	md, err := s.meta.Load(input.MetadataPath)
	if err != nil {
		return pipeline.LoadResult{}, err
	}

	var buf []byte
	switch {
	case input.MP4Path != "":
		data, err := s.fs.ReadFile(input.MP4Path)
		if err != nil {
			return pipeline.LoadResult{}, fmt.Errorf("read mp4: %w", err)
		}
		if buf, err = s.container.Demux(data, md); err != nil {
			return pipeline.LoadResult{}, fmt.Errorf("demux %s: %w", input.MP4Path, err)
		}
	case input.BitstreamPath != "":
		if buf, err = s.fs.ReadFile(input.BitstreamPath); err != nil {
			return pipeline.LoadResult{}, fmt.Errorf("read bitstream: %w", err)
		}
	default:
		return pipeline.LoadResult{}, fmt.Errorf("a bitstream or mp4 path is required")
	}

	return pipeline.LoadResult{Buffer: buf, Metadata: md}, nil
}
