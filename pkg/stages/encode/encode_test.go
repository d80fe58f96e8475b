package encode

import (
	"context"
	"errors"
	"testing"

	"github.com/user/gopcodec/pkg/adapters/logger"
	"github.com/user/gopcodec/pkg/codec"
	"github.com/user/gopcodec/pkg/codecerr"
	"github.com/user/gopcodec/pkg/frame"
	"github.com/user/gopcodec/pkg/mocks"
	"github.com/user/gopcodec/pkg/pipeline"
)

func testFrames(n int) []frame.Frame {
	frames := make([]frame.Frame, n)
	for i := range frames {
		f := frame.Solid(12, 10, 20, 40, 60)
		f.Set(i%12, 3, 0, 250)
		frames[i] = f
	}
	return frames
}

func testConfig() codec.Config {
	cfg := codec.DefaultConfig()
	cfg.BlockSize = 8
	cfg.SearchRange = 2
	cfg.GOPSize = 3
	cfg.Workers = 2
	return cfg
}

func TestStage_Execute(t *testing.T) {
	sink := mocks.NewDebugSink(false)
	stage := NewStage(sink, &mocks.Renderer{}, logger.NewNoop())

	result, err := stage.Execute(context.Background(), pipeline.EncodeInput{
		Source: mocks.NewFrameSource(testFrames(5)...),
		Codec:  testConfig(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := len(result.Metadata.Frames); got != 5 {
		t.Errorf("expected 5 frame records, got %d", got)
	}
	if result.Stats.IntraFrames != 2 {
		t.Errorf("expected 2 I-frames, got %d", result.Stats.IntraFrames)
	}
	if len(result.Buffer) == 0 {
		t.Error("expected a non-empty buffer")
	}
	if sink.MetadataJSON != nil || len(sink.ReconstructedFrames) != 0 {
		t.Error("expected disabled sink to receive nothing")
	}
}

func TestStage_Execute_DebugOutput(t *testing.T) {
	sink := mocks.NewDebugSink(true)
	renderer := &mocks.Renderer{}
	stage := NewStage(sink, renderer, logger.NewNoop())

	_, err := stage.Execute(context.Background(), pipeline.EncodeInput{
		Source: mocks.NewFrameSource(testFrames(4)...),
		Codec:  testConfig(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sink.MetadataJSON) == 0 {
		t.Error("expected metadata JSON to be saved")
	}
	if len(sink.ReconstructedFrames) != 4 {
		t.Errorf("expected 4 reconstructed frames, got %d", len(sink.ReconstructedFrames))
	}
	// Frames 1 and 4 are I-frames and have no motion field.
	for _, n := range []int{2, 3} {
		if _, ok := sink.MotionFields[n]; !ok {
			t.Errorf("expected motion field for frame %d", n)
		}
	}
	for _, n := range []int{1, 4} {
		if _, ok := sink.MotionFields[n]; ok {
			t.Errorf("unexpected motion field for I-frame %d", n)
		}
	}
}

func TestStage_Execute_InvalidConfig(t *testing.T) {
	stage := NewStage(mocks.NewDebugSink(false), &mocks.Renderer{}, logger.NewNoop())
	cfg := testConfig()
	cfg.Quality = 101

	_, err := stage.Execute(context.Background(), pipeline.EncodeInput{
		Source: mocks.NewFrameSource(testFrames(1)...),
		Codec:  cfg,
	})
	var ce *codecerr.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestStage_Execute_SourceFailureKeepsWholeGOPs(t *testing.T) {
	src := mocks.NewFrameSource(testFrames(6)...)
	src.FailAt = 4
	src.Err = errors.New("disk gone")
	stage := NewStage(mocks.NewDebugSink(false), &mocks.Renderer{}, logger.NewNoop())

	result, err := stage.Execute(context.Background(), pipeline.EncodeInput{Source: src, Codec: testConfig()})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := len(result.Metadata.Frames); got != 3 {
		t.Errorf("expected the first GOP (3 frames) to be kept, got %d", got)
	}
	if err := result.Metadata.Validate(); err != nil {
		t.Errorf("partial metadata is inconsistent: %v", err)
	}
}
