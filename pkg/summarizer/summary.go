// Package summarizer builds human-readable summaries of encoded streams.
package summarizer

import (
	"time"

	"github.com/user/gopcodec/pkg/bitstream"
	"github.com/user/gopcodec/pkg/gop"
)

// Summary contains everything reported about one stream.
type Summary struct {
	// Metadata
	GeneratedAt time.Time

	Stream   StreamInfo
	Settings Settings
	Frames   FrameInfo
	Size     SizeInfo
	Quality  QualityInfo

	// Files written by the run, if any.
	Files []string
}

// StreamInfo describes the stream geometry.
type StreamInfo struct {
	ID        string
	Width     int
	Height    int
	Channels  int
	FrameRate float64
}

// Settings contains the encoder parameters.
type Settings struct {
	BlockSize      int
	SearchRange    int
	Quality        int
	GOPSize        int
	BFrameInterval int
}

// FrameInfo counts frames by type.
type FrameInfo struct {
	Total         int
	Intra         int
	Predicted     int
	Bidirectional int
}

// SizeInfo contains byte and bit counts. RawBytes is zero when the input
// size is unknown, as for a stream read back from disk.
type SizeInfo struct {
	RawBytes    int64
	PackedBytes int64
	PayloadBits int64
	MP4Bytes    int64
}

// CompressionRatio returns RawBytes / PackedBytes, or 0 when unknown.
func (s SizeInfo) CompressionRatio() float64 {
	if s.RawBytes == 0 || s.PackedBytes == 0 {
		return 0
	}
	return float64(s.RawBytes) / float64(s.PackedBytes)
}

// QualityInfo holds the reconstruction quality, when it was measured.
type QualityInfo struct {
	Measured bool
	PSNR     float64
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// FromMetadata fills stream, settings, frame counts and packed sizes from
// stream metadata.
func (b *Builder) FromMetadata(md bitstream.Metadata) *Builder {
	b.summary.Stream = StreamInfo{
		ID:        md.StreamID,
		Width:     md.Resolution.Width,
		Height:    md.Resolution.Height,
		Channels:  md.Channels,
		FrameRate: md.FrameRate,
	}
	b.summary.Settings = Settings{
		BlockSize:      md.BlockSize,
		SearchRange:    md.SearchRange,
		Quality:        md.Quality,
		GOPSize:        md.GOPSize,
		BFrameInterval: md.BFrameInterval,
	}

	var frames FrameInfo
	var packed, bits int64
	for _, rec := range md.Frames {
		h := rec.Header()
		frames.Total++
		switch h.Type {
		case gop.Intra:
			frames.Intra++
		case gop.Predicted:
			frames.Predicted++
		case gop.Bidirectional:
			frames.Bidirectional++
		}
		bits += int64(h.BitLength)
		packed += int64((h.BitLength + 7) / 8)
	}
	b.summary.Frames = frames
	b.summary.Size.PackedBytes = packed
	b.summary.Size.PayloadBits = bits
	return b
}

// WithRawBytes sets the size of the unencoded input.
func (b *Builder) WithRawBytes(n int64) *Builder {
	b.summary.Size.RawBytes = n
	return b
}

// WithMP4Bytes sets the size of the MP4 file.
func (b *Builder) WithMP4Bytes(n int64) *Builder {
	b.summary.Size.MP4Bytes = n
	return b
}

// WithPSNR sets the measured reconstruction quality in dB.
func (b *Builder) WithPSNR(psnr float64) *Builder {
	b.summary.Quality = QualityInfo{Measured: true, PSNR: psnr}
	return b
}

// WithFiles sets the list of written files.
func (b *Builder) WithFiles(files []string) *Builder {
	b.summary.Files = files
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
