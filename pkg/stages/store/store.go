// Package store implements the stage that writes a stream to disk.
package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/user/gopcodec/pkg/pipeline"
	"github.com/user/gopcodec/pkg/ports"
)

// Stage writes the bit buffer, the metadata sidecar and optionally an MP4
// file.
type Stage struct {
	fs        ports.FileSystem
	container ports.Container
	meta      ports.MetadataStore
	logger    ports.Logger
}

// NewStage creates a new store stage.
func NewStage(fs ports.FileSystem, container ports.Container, meta ports.MetadataStore, logger ports.Logger) *Stage {
	return &Stage{
		fs:        fs,
		container: container,
		meta:      meta,
		logger:    logger.WithComponent("store"),
	}
}

// Execute writes the artifacts. A stream without an id gets a new UUID.
func (s *Stage) Execute(ctx context.Context, input pipeline.StoreInput) (pipeline.StoreResult, error) {
	result := pipeline.StoreResult{}
	if input.BitstreamPath == "" || input.MetadataPath == "" {
		return result, fmt.Errorf("bitstream and metadata paths are required")
	}

	md := input.Metadata
	if md.StreamID == "" {
		md.StreamID = uuid.NewString()
	}
	result.StreamID = md.StreamID

	if err := s.fs.WriteFile(input.BitstreamPath, input.Buffer); err != nil {
		return result, fmt.Errorf("write bitstream: %w", err)
	}
	result.Files = append(result.Files, input.BitstreamPath)
	result.BitstreamBytes = int64(len(input.Buffer))
	s.logger.Debug("Wrote %s (%d bytes)", input.BitstreamPath, len(input.Buffer))

	if err := s.meta.Save(input.MetadataPath, md); err != nil {
		return result, err
	}
	result.Files = append(result.Files, input.MetadataPath)

	if input.MP4Path != "" {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		data, err := s.container.Mux(input.Buffer, md)
		if err != nil {
			return result, fmt.Errorf("mux mp4: %w", err)
		}
		if err := s.fs.WriteFile(input.MP4Path, data); err != nil {
			return result, fmt.Errorf("write mp4: %w", err)
		}
		result.Files = append(result.Files, input.MP4Path)
		result.MP4Bytes = int64(len(data))
		s.logger.Debug("Wrote %s (%d bytes)", input.MP4Path, len(data))
	}

	return result, nil
}
