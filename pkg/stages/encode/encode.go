// Package encode implements the encoding stage.
package encode

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/user/gopcodec/pkg/codec"
	"github.com/user/gopcodec/pkg/gop"
	"github.com/user/gopcodec/pkg/overlay"
	"github.com/user/gopcodec/pkg/pipeline"
	"github.com/user/gopcodec/pkg/ports"
)

// Stage encodes a frame source into a packed bitstream.
type Stage struct {
	sink     ports.DebugSink
	renderer ports.Renderer
	logger   ports.Logger
}

// NewStage creates a new encode stage.
func NewStage(sink ports.DebugSink, renderer ports.Renderer, logger ports.Logger) *Stage {
	return &Stage{
		sink:     sink,
		renderer: renderer,
		logger:   logger.WithComponent("encode"),
	}
}

// Execute encodes every frame of input.Source. When ctx is cancelled the
// result holds the GOPs committed before cancellation, returned together
// with the error.
func (s *Stage) Execute(ctx context.Context, input pipeline.EncodeInput) (pipeline.EncodeResult, error) {
	enc, err := codec.NewEncoder(input.Codec, s.logger)
	if err != nil {
		return pipeline.EncodeResult{}, fmt.Errorf("create encoder: %w", err)
	}
	if s.sink.Enabled() {
		enc.SetFrameHook(s.saveDebugFrame(input.Codec.BlockSize))
	}

	res, err := enc.EncodeStream(ctx, input.Source)
	result := pipeline.EncodeResult{Buffer: res.Buffer, Metadata: res.Metadata, Stats: res.Stats}

	if s.sink.Enabled() {
		if data, mErr := json.MarshalIndent(res.Metadata, "", "  "); mErr == nil {
			if sErr := s.sink.SaveMetadataJSON(data); sErr != nil {
				s.logger.Warn("Failed to save debug output: %v", sErr)
			}
		}
	}
	return result, err
}

func (s *Stage) saveDebugFrame(blockSize int) codec.FrameHook {
	return func(ef codec.EncodedFrame) {
		cf := ef.Compressed
		img := ef.Reconstructed.ToImage()
		if err := s.sink.SaveReconstructedFrame(cf.Number, img); err != nil {
			s.logger.Warn("Failed to save debug output: %v", err)
			return
		}
		if cf.Type == gop.Intra {
			return
		}
		field, err := overlay.MotionField(s.renderer, img, cf.Vectors, blockSize)
		if err == nil {
			err = s.sink.SaveMotionField(cf.Number, field)
		}
		if err != nil {
			s.logger.Warn("Failed to save debug output: %v", err)
		}
	}
}
