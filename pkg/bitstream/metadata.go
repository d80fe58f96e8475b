// Package bitstream packs per-frame bit payloads into one byte buffer and
// describes them with a JSON metadata sidecar.
package bitstream

import (
	"encoding/json"
	"fmt"

	"github.com/user/gopcodec/pkg/codecerr"
	"github.com/user/gopcodec/pkg/entropy"
	"github.com/user/gopcodec/pkg/gop"
	"github.com/user/gopcodec/pkg/macroblock"
	"github.com/user/gopcodec/pkg/motion"
)

// FormatVersion is written into every metadata record.
const FormatVersion = "1.0"

// Resolution is the unpadded frame size. It encodes to JSON as [width, height].
type Resolution struct {
	Width  int
	Height int
}

func (r Resolution) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{r.Width, r.Height})
}

func (r *Resolution) UnmarshalJSON(data []byte) error {
	var pair [2]int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("resolution: %w", err)
	}
	r.Width, r.Height = pair[0], pair[1]
	return nil
}

// StreamInfo holds the stream-wide coding parameters.
type StreamInfo struct {
	Resolution     Resolution `json:"resolution"`
	Channels       int        `json:"channels"`
	BlockSize      int        `json:"block_size"`
	SearchRange    int        `json:"search_range"`
	FrameRate      float64    `json:"frame_rate"`
	Quality        int        `json:"compression_quality"`
	GOPSize        int        `json:"gop_size"`
	BFrameInterval int        `json:"b_frame_interval"`
}

// FrameRecord describes one packed frame. It is either an *IntraRecord or
// an *InterRecord.
type FrameRecord interface {
	Header() RecordHeader
}

// RecordHeader holds the fields shared by every frame record.
type RecordHeader struct {
	Number    int               `json:"frame_number"`
	Type      gop.FrameType     `json:"frame_type"`
	Codes     entropy.CodeTable `json:"entropy_code_table"`
	BitLength int               `json:"bit_length"`
}

// IntraRecord describes an I-frame.
type IntraRecord struct {
	RecordHeader
}

// Header implements FrameRecord.
func (r *IntraRecord) Header() RecordHeader { return r.RecordHeader }

// InterRecord describes a P- or B-frame and the prediction it depends on.
type InterRecord struct {
	RecordHeader
	Reference int             `json:"reference_frame"`
	Vectors   []motion.Vector `json:"motion_vectors"`
}

// Header implements FrameRecord.
func (r *InterRecord) Header() RecordHeader { return r.RecordHeader }

// Metadata is the sidecar record that accompanies a packed buffer.
type Metadata struct {
	Version  string `json:"version"`
	StreamID string `json:"stream_id,omitempty"`
	StreamInfo
	Frames []FrameRecord `json:"frames"`
}

type metadataWire struct {
	Version  string `json:"version"`
	StreamID string `json:"stream_id,omitempty"`
	StreamInfo
	Frames []json.RawMessage `json:"frames"`
}

// UnmarshalJSON decodes the frame list by dispatching on frame_type.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var w metadataWire
	if err := json.Unmarshal(data, &w); err != nil {
		return codecerr.Format("metadata", "%v", err)
	}
	frames := make([]FrameRecord, 0, len(w.Frames))
	for i, raw := range w.Frames {
		rec, err := decodeRecord(raw)
		if err != nil {
			return codecerr.WithFrame(err, i+1)
		}
		frames = append(frames, rec)
	}
	*m = Metadata{Version: w.Version, StreamID: w.StreamID, StreamInfo: w.StreamInfo, Frames: frames}
	return nil
}

func decodeRecord(raw json.RawMessage) (FrameRecord, error) {
	var probe struct {
		Type string `json:"frame_type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, codecerr.Format("frame record", "%v", err)
	}
	ft, err := gop.ParseFrameType(probe.Type)
	if err != nil {
		return nil, err
	}
	if ft == gop.Intra {
		rec := &IntraRecord{}
		if err := json.Unmarshal(raw, rec); err != nil {
			return nil, codecerr.Format("frame record", "%v", err)
		}
		return rec, nil
	}
	rec := &InterRecord{}
	if err := json.Unmarshal(raw, rec); err != nil {
		return nil, codecerr.Format("frame record", "%v", err)
	}
	if rec.Vectors == nil {
		return nil, codecerr.Format("frame record", "%s-frame %d has no motion_vectors", ft, rec.Number)
	}
	return rec, nil
}

// Validate checks the metadata for internal consistency: supported
// version, positive geometry, consecutive 1-based frame numbers, non-empty
// code tables for non-empty payloads, one motion vector per macroblock and
// references that point at an earlier I-frame.
func (m Metadata) Validate() error {
	if m.Version != FormatVersion {
		return codecerr.Format("metadata", "unsupported version %q", m.Version)
	}
	if m.Resolution.Width <= 0 || m.Resolution.Height <= 0 {
		return codecerr.Format("metadata", "non-positive resolution %dx%d", m.Resolution.Width, m.Resolution.Height)
	}
	if m.Channels < 1 || m.BlockSize < 1 || m.BlockSize > macroblock.MaxSize {
		return codecerr.Format("metadata", "invalid channels %d or block_size %d", m.Channels, m.BlockSize)
	}
	if m.Quality < 0 || m.Quality > 100 {
		return codecerr.Format("metadata", "compression_quality %d outside [0,100]", m.Quality)
	}
	rows, cols := macroblock.GridSize(m.Resolution.Width, m.Resolution.Height, m.BlockSize)
	maxBits := 0
	for _, rec := range m.Frames {
		maxBits = max(maxBits, rec.Header().BitLength)
	}
	// Every coefficient costs at least one bit, so a frame can never be
	// shorter than its padded sample count.
	coeffs, fits := mulWithin(maxBits, rows, cols, m.BlockSize, m.BlockSize, m.Channels)
	intra := make(map[int]bool)
	for i, rec := range m.Frames {
		h := rec.Header()
		if h.Number != i+1 {
			return codecerr.Format("metadata", "record %d has frame_number %d", i+1, h.Number)
		}
		if h.BitLength < 0 {
			return codecerr.Format("metadata", "frame %d has negative bit_length %d", h.Number, h.BitLength)
		}
		if !fits || h.BitLength < coeffs {
			return codecerr.Format("metadata", "frame %d has %d bits, too few for %dx%d with block_size %d and %d channels",
				h.Number, h.BitLength, m.Resolution.Width, m.Resolution.Height, m.BlockSize, m.Channels)
		}
		if h.BitLength > 0 && len(h.Codes) == 0 {
			return codecerr.Format("metadata", "frame %d has %d bits but no code table", h.Number, h.BitLength)
		}
		switch r := rec.(type) {
		case *IntraRecord:
			if r.Type != gop.Intra {
				return codecerr.Format("metadata", "intra record %d has frame_type %s", h.Number, r.Type)
			}
			intra[h.Number] = true
		case *InterRecord:
			if r.Type == gop.Intra {
				return codecerr.Format("metadata", "inter record %d has frame_type I", h.Number)
			}
			if len(r.Vectors) != rows*cols {
				return codecerr.Format("metadata", "frame %d has %d motion vectors, want %d", h.Number, len(r.Vectors), rows*cols)
			}
			if !intra[r.Reference] {
				return codecerr.Decode("metadata", "frame %d references %d which is not an earlier I-frame", h.Number, r.Reference)
			}
		}
	}
	return nil
}

// mulWithin multiplies positive factors and reports false once the
// product exceeds limit.
func mulWithin(limit int, factors ...int) (int, bool) {
	p := 1
	for _, f := range factors {
		if p > limit/f {
			return 0, false
		}
		p *= f
	}
	return p, true
}

// TotalBits sums the exact payload lengths of all frames.
func (m Metadata) TotalBits() int {
	total := 0
	for _, rec := range m.Frames {
		total += rec.Header().BitLength
	}
	return total
}
