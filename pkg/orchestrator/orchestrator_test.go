package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/user/gopcodec/pkg/adapters/logger"
	"github.com/user/gopcodec/pkg/bitstream"
	"github.com/user/gopcodec/pkg/codec"
	"github.com/user/gopcodec/pkg/frame"
	"github.com/user/gopcodec/pkg/gop"
	"github.com/user/gopcodec/pkg/mocks"
	"github.com/user/gopcodec/pkg/pipeline"
)

// mockEncodeStage is a mock for the encode stage.
type mockEncodeStage struct {
	result pipeline.EncodeResult
	err    error
	input  pipeline.EncodeInput
}

func (m *mockEncodeStage) Execute(ctx context.Context, input pipeline.EncodeInput) (pipeline.EncodeResult, error) {
	m.input = input
	return m.result, m.err
}

// mockStoreStage is a mock for the store stage.
type mockStoreStage struct {
	err    error
	called bool
	input  pipeline.StoreInput
	ctxErr error
}

func (m *mockStoreStage) Execute(ctx context.Context, input pipeline.StoreInput) (pipeline.StoreResult, error) {
	m.called = true
	m.input = input
	m.ctxErr = ctx.Err()
	if m.err != nil {
		return pipeline.StoreResult{}, m.err
	}
	return pipeline.StoreResult{
		StreamID:       "id-1",
		Files:          []string{input.BitstreamPath, input.MetadataPath},
		BitstreamBytes: int64(len(input.Buffer)),
	}, nil
}

// mockLoadStage is a mock for the load stage.
type mockLoadStage struct {
	result pipeline.LoadResult
	err    error
}

func (m *mockLoadStage) Execute(ctx context.Context, input pipeline.LoadInput) (pipeline.LoadResult, error) {
	return m.result, m.err
}

// mockDecodeStage is a mock for the decode stage.
type mockDecodeStage struct {
	result pipeline.DecodeResult
	err    error
	input  pipeline.DecodeInput
}

func (m *mockDecodeStage) Execute(ctx context.Context, input pipeline.DecodeInput) (pipeline.DecodeResult, error) {
	m.input = input
	return m.result, m.err
}

// mockExportStage is a mock for the export stage.
type mockExportStage struct {
	err    error
	called bool
}

func (m *mockExportStage) Execute(ctx context.Context, input pipeline.ExportInput) (pipeline.ExportResult, error) {
	m.called = true
	if m.err != nil {
		return pipeline.ExportResult{}, m.err
	}
	files := make([]string, len(input.Frames))
	for i := range files {
		files[i] = "f"
	}
	return pipeline.ExportResult{Files: files}, nil
}

func encodedStream() pipeline.EncodeResult {
	return pipeline.EncodeResult{
		Buffer: []byte{1, 2, 3},
		Metadata: bitstream.Metadata{
			Version: bitstream.FormatVersion,
			Frames: []bitstream.FrameRecord{
				&bitstream.IntraRecord{RecordHeader: bitstream.RecordHeader{Number: 1, Type: gop.Intra}},
			},
		},
		Stats: codec.Stats{Frames: 1, IntraFrames: 1},
	}
}

func newOrchestrator(enc *mockEncodeStage, store *mockStoreStage, load *mockLoadStage, dec *mockDecodeStage, exp *mockExportStage) *Orchestrator {
	return New(enc, store, load, dec, exp, logger.NewNoop())
}

func TestOrchestrator_RunEncode(t *testing.T) {
	enc := &mockEncodeStage{result: encodedStream()}
	store := &mockStoreStage{}
	o := newOrchestrator(enc, store, &mockLoadStage{}, &mockDecodeStage{}, &mockExportStage{})

	config := DefaultConfig()
	src := mocks.NewFrameSource(frame.Solid(4, 4, 0))
	result, err := o.RunEncode(context.Background(), src, config)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if enc.input.Source != src {
		t.Error("expected the source to be passed to the encode stage")
	}
	if enc.input.Codec != config.Codec {
		t.Errorf("codec config = %+v, want %+v", enc.input.Codec, config.Codec)
	}
	if store.input.BitstreamPath != "stream.bin" || len(store.input.Buffer) != 3 {
		t.Errorf("unexpected store input: %+v", store.input)
	}
	if result.Metadata.StreamID != "id-1" {
		t.Errorf("stream id = %q, want id-1", result.Metadata.StreamID)
	}
	if len(result.Files) != 2 {
		t.Errorf("files = %v", result.Files)
	}
}

func TestOrchestrator_RunEncode_Failure(t *testing.T) {
	enc := &mockEncodeStage{err: errors.New("bad frame")}
	store := &mockStoreStage{}
	o := newOrchestrator(enc, store, &mockLoadStage{}, &mockDecodeStage{}, &mockExportStage{})

	if _, err := o.RunEncode(context.Background(), mocks.NewFrameSource(), DefaultConfig()); err == nil {
		t.Fatal("expected error")
	}
	if store.called {
		t.Error("expected nothing to be stored")
	}
}

func TestOrchestrator_RunEncode_InterruptedStoresPartial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	enc := &mockEncodeStage{result: encodedStream(), err: context.Canceled}
	store := &mockStoreStage{}
	o := newOrchestrator(enc, store, &mockLoadStage{}, &mockDecodeStage{}, &mockExportStage{})

	result, err := o.RunEncode(ctx, mocks.NewFrameSource(), DefaultConfig())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !store.called {
		t.Fatal("expected the partial stream to be stored")
	}
	if store.ctxErr != nil {
		t.Errorf("store ran with a done context: %v", store.ctxErr)
	}
	if len(result.Metadata.Frames) != 1 {
		t.Errorf("expected partial result, got %d frames", len(result.Metadata.Frames))
	}
}

func TestOrchestrator_RunEncode_StoreFailure(t *testing.T) {
	enc := &mockEncodeStage{result: encodedStream()}
	store := &mockStoreStage{err: errors.New("disk full")}
	o := newOrchestrator(enc, store, &mockLoadStage{}, &mockDecodeStage{}, &mockExportStage{})

	if _, err := o.RunEncode(context.Background(), mocks.NewFrameSource(), DefaultConfig()); err == nil {
		t.Fatal("expected error")
	}
}

func TestOrchestrator_RunDecode(t *testing.T) {
	dec := &mockDecodeStage{result: pipeline.DecodeResult{
		Frames:  []codec.DecodedFrame{{Number: 2}, {Number: 1}},
		Skipped: []int{3},
	}}
	exp := &mockExportStage{}
	o := newOrchestrator(&mockEncodeStage{}, &mockStoreStage{}, &mockLoadStage{result: pipeline.LoadResult{Buffer: []byte{1}}}, dec, exp)

	config := DefaultConfig()
	config.Mode = codec.PlaybackReverse
	config.SkipCorrupt = true
	config.ExportDir = "frames"

	result, err := o.RunDecode(context.Background(), config)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dec.input.Mode != codec.PlaybackReverse || !dec.input.SkipCorrupt {
		t.Errorf("unexpected decode input: %+v", dec.input)
	}
	if len(dec.input.Buffer) != 1 {
		t.Error("expected the loaded buffer to be decoded")
	}
	if !exp.called || len(result.Files) != 2 {
		t.Errorf("expected 2 exported files, got %v", result.Files)
	}
	if len(result.Skipped) != 1 || result.Skipped[0] != 3 {
		t.Errorf("skipped = %v", result.Skipped)
	}
}

func TestOrchestrator_RunDecode_NoExport(t *testing.T) {
	exp := &mockExportStage{}
	o := newOrchestrator(&mockEncodeStage{}, &mockStoreStage{}, &mockLoadStage{}, &mockDecodeStage{}, exp)

	if _, err := o.RunDecode(context.Background(), DefaultConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exp.called {
		t.Error("expected export to be skipped")
	}
}

func TestOrchestrator_RunDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		load *mockLoadStage
		dec  *mockDecodeStage
		exp  *mockExportStage
	}{
		{"load", &mockLoadStage{err: errors.New("missing")}, &mockDecodeStage{}, &mockExportStage{}},
		{"decode", &mockLoadStage{}, &mockDecodeStage{err: errors.New("corrupt")}, &mockExportStage{}},
		{"export", &mockLoadStage{}, &mockDecodeStage{}, &mockExportStage{err: errors.New("disk full")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newOrchestrator(&mockEncodeStage{}, &mockStoreStage{}, tt.load, tt.dec, tt.exp)
			config := DefaultConfig()
			config.ExportDir = "frames"
			if _, err := o.RunDecode(context.Background(), config); err == nil {
				t.Error("expected error")
			}
		})
	}
}
