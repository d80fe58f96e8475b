package bitstream

import (
	"bytes"

	"github.com/user/gopcodec/pkg/bitseq"
	"github.com/user/gopcodec/pkg/codecerr"
	"github.com/user/gopcodec/pkg/entropy"
	"github.com/user/gopcodec/pkg/gop"
	"github.com/user/gopcodec/pkg/motion"
)

// CompressedFrame is one coded frame together with what is needed to
// decode it.
type CompressedFrame struct {
	Number  int
	Type    gop.FrameType
	Codes   entropy.CodeTable
	Payload bitseq.Sequence
	// Reference and Vectors are set for P- and B-frames only.
	Reference int
	Vectors   []motion.Vector
}

// Record builds the metadata record describing f.
func (f CompressedFrame) Record() FrameRecord {
	h := RecordHeader{Number: f.Number, Type: f.Type, Codes: f.Codes, BitLength: f.Payload.Len()}
	if f.Type == gop.Intra {
		return &IntraRecord{RecordHeader: h}
	}
	return &InterRecord{RecordHeader: h, Reference: f.Reference, Vectors: f.Vectors}
}

// Packer accumulates frames into a byte-aligned buffer. Each payload is
// padded with zero bits to the next byte boundary.
type Packer struct {
	info    StreamInfo
	buf     bytes.Buffer
	records []FrameRecord
}

// NewPacker creates an empty packer for a stream.
func NewPacker(info StreamInfo) *Packer {
	return &Packer{info: info}
}

// Add appends frames in order. Frame numbers must continue the sequence.
func (p *Packer) Add(frames ...CompressedFrame) error {
	for _, f := range frames {
		if want := len(p.records) + 1; f.Number != want {
			return codecerr.Format("pack", "got frame %d, want %d", f.Number, want)
		}
		if _, err := gop.ParseFrameType(string(f.Type)); err != nil {
			return codecerr.WithFrame(err, f.Number)
		}
		p.buf.Write(f.Payload.Bytes())
		p.records = append(p.records, f.Record())
	}
	return nil
}

// Len returns the number of frames added.
func (p *Packer) Len() int {
	return len(p.records)
}

// Bytes returns a copy of the packed buffer.
func (p *Packer) Bytes() []byte {
	return append([]byte(nil), p.buf.Bytes()...)
}

// Metadata returns the record describing the frames added so far.
func (p *Packer) Metadata() Metadata {
	return Metadata{
		Version:    FormatVersion,
		StreamInfo: p.info,
		Frames:     append([]FrameRecord{}, p.records...),
	}
}

// Pack packs frames into a buffer and its metadata.
func Pack(info StreamInfo, frames []CompressedFrame) ([]byte, Metadata, error) {
	p := NewPacker(info)
	if err := p.Add(frames...); err != nil {
		return nil, Metadata{}, err
	}
	return p.Bytes(), p.Metadata(), nil
}

// Unpack recovers the frames described by md from buf. Every payload
// starts at the byte boundary following the previous one and is cut to its
// recorded bit length. It fails with a FormatError when a length runs past
// the buffer or whole bytes remain after the last frame.
func Unpack(buf []byte, md Metadata) ([]CompressedFrame, error) {
	all, err := bitseq.FromBytes(buf, len(buf)*8)
	if err != nil {
		return nil, codecerr.Format("unpack", "%v", err)
	}
	frames := make([]CompressedFrame, 0, len(md.Frames))
	off := 0
	for _, rec := range md.Frames {
		h := rec.Header()
		if h.BitLength < 0 || off+h.BitLength > all.Len() {
			return nil, &codecerr.FormatError{Op: "unpack", Frame: h.Number,
				Reason: "bit length exceeds the remaining buffer"}
		}
		payload, err := all.Slice(off, off+h.BitLength)
		if err != nil {
			return nil, codecerr.WithFrame(codecerr.Format("unpack", "%v", err), h.Number)
		}
		off += (h.BitLength + 7) / 8 * 8

		f := CompressedFrame{Number: h.Number, Type: h.Type, Codes: h.Codes, Payload: payload}
		if inter, ok := rec.(*InterRecord); ok {
			f.Reference = inter.Reference
			f.Vectors = inter.Vectors
		}
		frames = append(frames, f)
	}
	if off != all.Len() {
		return nil, codecerr.Format("unpack", "%d unused bytes after %d frames", len(buf)-off/8, len(md.Frames))
	}
	return frames, nil
}
