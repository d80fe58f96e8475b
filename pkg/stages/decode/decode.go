// Package decode implements the decoding stage.
package decode

import (
	"context"

	"github.com/user/gopcodec/pkg/codec"
	"github.com/user/gopcodec/pkg/pipeline"
	"github.com/user/gopcodec/pkg/ports"
)

// Stage decodes a stream in playback order.
type Stage struct {
	logger ports.Logger
}

// NewStage creates a new decode stage.
func NewStage(logger ports.Logger) *Stage {
	return &Stage{logger: logger}
}

// Execute decodes the frames selected by input.Frames or, when that is
// empty, by input.Mode.
func (s *Stage) Execute(ctx context.Context, input pipeline.DecodeInput) (pipeline.DecodeResult, error) {
	dec := codec.NewDecoder(codec.DecodeOptions{SkipCorrupt: input.SkipCorrupt}, s.logger)

	order := input.Frames
	if len(order) == 0 {
		order = codec.PlaybackOrder(input.Metadata, input.Mode)
	}

	var (
		frames []codec.DecodedFrame
		err    error
	)
	if len(input.Frames) == 0 && input.Mode == codec.PlaybackNormal {
		frames, err = dec.DecodeNumbered(ctx, input.Buffer, input.Metadata)
	} else {
		frames, err = dec.DecodeFrames(ctx, input.Buffer, input.Metadata, order)
	}
	if err != nil {
		return pipeline.DecodeResult{}, err
	}

	return pipeline.DecodeResult{Frames: frames, Skipped: missing(order, frames)}, nil
}

// missing returns the requested numbers absent from frames, in request order.
func missing(order []int, frames []codec.DecodedFrame) []int {
	got := make(map[int]bool, len(frames))
	for _, f := range frames {
		got[f.Number] = true
	}
	var out []int
	for _, n := range order {
		if !got[n] {
			out = append(out, n)
			got[n] = true
		}
	}
	return out
}
