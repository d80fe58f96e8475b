// Package orchestrator coordinates the encode and decode pipelines.
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/user/gopcodec/pkg/bitstream"
	"github.com/user/gopcodec/pkg/codec"
	"github.com/user/gopcodec/pkg/pipeline"
	"github.com/user/gopcodec/pkg/ports"
)

// Config contains all configuration for the orchestrator.
type Config struct {
	// Encoding
	Codec  codec.Config
	Output pipeline.Artifacts

	// Decoding
	Input       pipeline.Artifacts
	Mode        codec.PlaybackMode
	Frames      []int
	SkipCorrupt bool

	// Export (decode only, skipped when ExportDir is empty)
	ExportDir     string
	ExportFormat  ports.ImageFormat
	ExportQuality int
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Codec: codec.DefaultConfig(),
		Output: pipeline.Artifacts{
			BitstreamPath: "stream.bin",
			MetadataPath:  "stream.json",
		},
		Input: pipeline.Artifacts{
			BitstreamPath: "stream.bin",
			MetadataPath:  "stream.json",
		},
		Mode:          codec.PlaybackNormal,
		ExportFormat:  ports.FormatPNG,
		ExportQuality: 90,
	}
}

// Orchestrator coordinates the execution of all pipeline stages.
type Orchestrator struct {
	encodeStage pipeline.Stage[pipeline.EncodeInput, pipeline.EncodeResult]
	storeStage  pipeline.Stage[pipeline.StoreInput, pipeline.StoreResult]
	loadStage   pipeline.Stage[pipeline.LoadInput, pipeline.LoadResult]
	decodeStage pipeline.Stage[pipeline.DecodeInput, pipeline.DecodeResult]
	exportStage pipeline.Stage[pipeline.ExportInput, pipeline.ExportResult]
	logger      ports.Logger
}

// New creates a new Orchestrator.
func New(
	encodeStage pipeline.Stage[pipeline.EncodeInput, pipeline.EncodeResult],
	storeStage pipeline.Stage[pipeline.StoreInput, pipeline.StoreResult],
	loadStage pipeline.Stage[pipeline.LoadInput, pipeline.LoadResult],
	decodeStage pipeline.Stage[pipeline.DecodeInput, pipeline.DecodeResult],
	exportStage pipeline.Stage[pipeline.ExportInput, pipeline.ExportResult],
	logger ports.Logger,
) *Orchestrator {
	return &Orchestrator{
		encodeStage: encodeStage,
		storeStage:  storeStage,
		loadStage:   loadStage,
		decodeStage: decodeStage,
		exportStage: exportStage,
		logger:      logger,
	}
}

// RunEncode encodes src and stores the result. If ctx is cancelled during
// encoding, the GOPs committed so far are still stored and the
// cancellation error is returned with the partial result.
func (o *Orchestrator) RunEncode(ctx context.Context, src ports.FrameSource, config Config) (RunResult, error) {
	o.logger.Info("Starting encode")

	encoded, encErr := o.encodeStage.Execute(ctx, pipeline.EncodeInput{Source: src, Codec: config.Codec})
	if encErr != nil {
		if !interrupted(encErr) || len(encoded.Metadata.Frames) == 0 {
			o.logger.Error("Failed to encode: %s", encErr)
			return RunResult{}, fmt.Errorf("encode stage: %w", encErr)
		}
		o.logger.Warn("Interrupted, keeping %d frames from complete GOPs", len(encoded.Metadata.Frames))
	}
	s := encoded.Stats
	o.logger.Info("Encoded %d frames (%d I, %d P, %d B) into %d bytes",
		s.Frames, s.IntraFrames, s.PFrames, s.BFrames, len(encoded.Buffer))

	// The partial stream is stored even though ctx is done.
	storeCtx := ctx
	if encErr != nil {
		storeCtx = context.WithoutCancel(ctx)
	}
	stored, err := o.storeStage.Execute(storeCtx, pipeline.StoreInput{
		Artifacts: config.Output,
		Buffer:    encoded.Buffer,
		Metadata:  encoded.Metadata,
	})
	if err != nil {
		o.logger.Error("Failed to write output: %s", err)
		return RunResult{}, fmt.Errorf("store stage: %w", err)
	}
	for _, f := range stored.Files {
		o.logger.Info("Output saved to %s", f)
	}

	md := encoded.Metadata
	md.StreamID = stored.StreamID
	result := RunResult{
		Metadata: md,
		Stats:    s,
		Files:    stored.Files,
		MP4Bytes: stored.MP4Bytes,
	}
	if encErr != nil {
		return result, fmt.Errorf("encode stage: %w", encErr)
	}
	o.logger.Info("Encode completed successfully")
	return result, nil
}

// RunDecode loads a stored stream, decodes it and optionally exports the
// frames as images.
func (o *Orchestrator) RunDecode(ctx context.Context, config Config) (DecodeRunResult, error) {
	o.logger.Info("Starting decode")

	loaded, err := o.loadStage.Execute(ctx, pipeline.LoadInput{Artifacts: config.Input})
	if err != nil {
		o.logger.Error("Failed to load stream: %s", err)
		return DecodeRunResult{}, fmt.Errorf("load stage: %w", err)
	}
	o.logger.Info("Loaded %d frame records (%d bytes)", len(loaded.Metadata.Frames), len(loaded.Buffer))

	decoded, err := o.decodeStage.Execute(ctx, pipeline.DecodeInput{
		Buffer:      loaded.Buffer,
		Metadata:    loaded.Metadata,
		Mode:        config.Mode,
		Frames:      config.Frames,
		SkipCorrupt: config.SkipCorrupt,
	})
	if err != nil {
		o.logger.Error("Failed to decode: %s", err)
		return DecodeRunResult{}, fmt.Errorf("decode stage: %w", err)
	}
	o.logger.Info("Decoded %d frames (%s playback, %d skipped)", len(decoded.Frames), config.Mode, len(decoded.Skipped))

	result := DecodeRunResult{
		Metadata: loaded.Metadata,
		Frames:   decoded.Frames,
		Skipped:  decoded.Skipped,
	}

	if config.ExportDir != "" {
		exported, err := o.exportStage.Execute(ctx, pipeline.ExportInput{
			Frames:    decoded.Frames,
			OutputDir: config.ExportDir,
			Format:    config.ExportFormat,
			Quality:   config.ExportQuality,
		})
		if err != nil {
			o.logger.Error("Failed to export frames: %s", err)
			return DecodeRunResult{}, fmt.Errorf("export stage: %w", err)
		}
		result.Files = exported.Files
		o.logger.Info("Exported %d frames to %s", len(exported.Files), config.ExportDir)
	}

	o.logger.Info("Decode completed successfully")
	return result, nil
}

func interrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// RunResult contains the results of an encode run for summary generation.
type RunResult struct {
	Metadata bitstream.Metadata
	Stats    codec.Stats
	Files    []string
	MP4Bytes int64
}

// DecodeRunResult contains the results of a decode run.
type DecodeRunResult struct {
	Metadata bitstream.Metadata
	Frames   []codec.DecodedFrame
	Skipped  []int
	Files    []string
}
