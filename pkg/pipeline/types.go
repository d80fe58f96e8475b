package pipeline

import (
	"github.com/user/gopcodec/pkg/bitstream"
	"github.com/user/gopcodec/pkg/codec"
	"github.com/user/gopcodec/pkg/ports"
)

// =============================================================================
// Encode Stage Types
// =============================================================================

// EncodeInput contains the frames and settings for one encode run.
type EncodeInput struct {
	Source ports.FrameSource
	Codec  codec.Config
}

// EncodeResult is the packed stream. After cancellation it holds the GOPs
// committed so far.
type EncodeResult struct {
	Buffer   []byte
	Metadata bitstream.Metadata
	Stats    codec.Stats
}

// =============================================================================
// Store / Load Stage Types
// =============================================================================

// Artifacts names the files of a stored stream. MP4Path is optional.
type Artifacts struct {
	BitstreamPath string
	MetadataPath  string
	MP4Path       string
}

// StoreInput contains a stream to write.
type StoreInput struct {
	Artifacts
	Buffer   []byte
	Metadata bitstream.Metadata
}

// StoreResult describes what was written.
type StoreResult struct {
	StreamID       string
	Files          []string
	BitstreamBytes int64
	MP4Bytes       int64
}

// LoadInput names the files to read. When MP4Path is set the bit buffer is
// taken from the MP4 file and BitstreamPath is ignored.
type LoadInput struct {
	Artifacts
}

// LoadResult is a stream read back from disk.
type LoadResult struct {
	Buffer   []byte
	Metadata bitstream.Metadata
}

// =============================================================================
// Decode Stage Types
// =============================================================================

// DecodeInput selects what to decode.
type DecodeInput struct {
	Buffer   []byte
	Metadata bitstream.Metadata
	Mode     codec.PlaybackMode
	// Frames, when set, overrides Mode with an explicit list of frame numbers.
	Frames      []int
	SkipCorrupt bool
}

// DecodeResult holds decoded frames in presentation order.
type DecodeResult struct {
	Frames []codec.DecodedFrame
	// Skipped lists requested frame numbers that were dropped as corrupt.
	Skipped []int
}

// =============================================================================
// Export Stage Types
// =============================================================================

// ExportInput contains frames to write as images.
type ExportInput struct {
	Frames    []codec.DecodedFrame
	OutputDir string
	Format    ports.ImageFormat
	// Quality applies to JPEG only.
	Quality int
}

// ExportResult lists the written files in presentation order.
type ExportResult struct {
	Files []string
}
