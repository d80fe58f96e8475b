// Package mp4container stores a packed bitstream as a fragmented MP4 track.
//
// Every frame becomes one sample whose data is the frame's byte-aligned
// payload. Each GOP is written as its own fragment and I-frames are flagged
// as sync samples, so ordinary MP4 tooling can seek the stream by GOP.
// Concatenating the samples in order yields the packed buffer again.
package mp4container

import (
	"bytes"
	"fmt"
	"math"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/gopcodec/pkg/bitstream"
	"github.com/user/gopcodec/pkg/codecerr"
	"github.com/user/gopcodec/pkg/gop"
	"github.com/user/gopcodec/pkg/ports"
)

// SampleEntry is the four-character code of the track's sample entry.
const SampleEntry = "gopc"

const (
	trackID = 1
	// ticksPerFrame is the duration of one frame in track timescale units.
	ticksPerFrame = 1000
)

// Container implements ports.Container with mp4ff.
type Container struct{}

var _ ports.Container = (*Container)(nil)

// New creates a new Container.
func New() *Container {
	return &Container{}
}

// Mux wraps buf in an MP4 file.
func (c *Container) Mux(buf []byte, md bitstream.Metadata) ([]byte, error) {
	w, h := md.Resolution.Width, md.Resolution.Height
	if w < 0 || h < 0 || w > math.MaxUint16 || h > math.MaxUint16 {
		return nil, codecerr.Format("mux", "resolution %dx%d does not fit MP4 16-bit dimensions", w, h)
	}
	sizes, err := sampleSizes(buf, md)
	if err != nil {
		return nil, err
	}

	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(timescale(md.FrameRate), "video", "und")
	trak := init.Moov.Trak

	entry := mp4.CreateVisualSampleEntryBox(SampleEntry, uint16(w), uint16(h), &mp4.PaspBox{HSpacing: 1, VSpacing: 1})
	trak.Mdia.Minf.Stbl.Stsd.AddChild(entry)
	trak.Tkhd.Width = mp4.Fixed32(w << 16)
	trak.Tkhd.Height = mp4.Fixed32(h << 16)

	var out bytes.Buffer
	ftyp := mp4.NewFtyp("isom", 0x200, []string{"isom", "iso6", "mp41"})
	if err := ftyp.Encode(&out); err != nil {
		return nil, fmt.Errorf("encode ftyp: %w", err)
	}
	if err := init.Moov.Encode(&out); err != nil {
		return nil, fmt.Errorf("encode moov: %w", err)
	}

	var (
		frag   *mp4.Fragment
		seqNum uint32
		offset int
	)
	flush := func() error {
		if frag == nil {
			return nil
		}
		if err := frag.Encode(&out); err != nil {
			return fmt.Errorf("encode fragment %d: %w", seqNum, err)
		}
		return nil
	}

	for i, rec := range md.Frames {
		h := rec.Header()
		if h.Type == gop.Intra {
			if err := flush(); err != nil {
				return nil, err
			}
			seqNum++
			frag, err = mp4.CreateFragment(seqNum, trackID)
			if err != nil {
				return nil, fmt.Errorf("create fragment: %w", err)
			}
		}
		if frag == nil {
			return nil, codecerr.Format("mux", "frame %d precedes the first I-frame", h.Number)
		}

		flags := mp4.NonSyncSampleFlags
		if h.Type == gop.Intra {
			flags = mp4.SyncSampleFlags
		}
		data := buf[offset : offset+sizes[i]]
		offset += sizes[i]
		frag.AddFullSample(mp4.FullSample{
			Sample: mp4.Sample{
				Flags: flags,
				Size:  uint32(len(data)),
				Dur:   ticksPerFrame,
			},
			DecodeTime: uint64(h.Number-1) * ticksPerFrame,
			Data:       data,
		})
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Demux extracts the packed buffer from an MP4 file written by Mux. The
// sample count, sizes and sync flags must agree with md.
func (c *Container) Demux(data []byte, md bitstream.Metadata) ([]byte, error) {
	file, err := mp4.DecodeFile(bytes.NewReader(data))
	if err != nil {
		return nil, codecerr.Format("demux", "decode mp4: %v", err)
	}
	if file.Init == nil || file.Init.Moov == nil {
		return nil, codecerr.Format("demux", "missing moov box")
	}

	var trex *mp4.TrexBox
	if mvex := file.Init.Moov.Mvex; mvex != nil {
		for _, t := range mvex.Trexs {
			if t.TrackID == trackID {
				trex = t
				break
			}
		}
	}

	var samples []mp4.FullSample
	for _, seg := range file.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			fs, err := frag.GetFullSamples(trex)
			if err != nil {
				return nil, codecerr.Format("demux", "get samples: %v", err)
			}
			samples = append(samples, fs...)
		}
	}

	if len(samples) != len(md.Frames) {
		return nil, codecerr.Format("demux", "%d samples for %d frame records", len(samples), len(md.Frames))
	}

	var buf bytes.Buffer
	for i, s := range samples {
		h := md.Frames[i].Header()
		if want := (h.BitLength + 7) / 8; len(s.Data) != want {
			return nil, codecerr.Format("demux", "frame %d: sample has %d bytes, want %d", h.Number, len(s.Data), want)
		}
		if sync := s.Flags == mp4.SyncSampleFlags; sync != (h.Type == gop.Intra) {
			return nil, codecerr.Format("demux", "frame %d: sync flag does not match frame type %s", h.Number, h.Type)
		}
		buf.Write(s.Data)
	}
	return buf.Bytes(), nil
}

// sampleSizes returns the byte size of every frame's payload and checks
// that they add up to len(buf).
func sampleSizes(buf []byte, md bitstream.Metadata) ([]int, error) {
	sizes := make([]int, len(md.Frames))
	total := 0
	for i, rec := range md.Frames {
		sizes[i] = (rec.Header().BitLength + 7) / 8
		total += sizes[i]
	}
	if total != len(buf) {
		return nil, codecerr.Format("mux", "metadata describes %d bytes, buffer has %d", total, len(buf))
	}
	return sizes, nil
}

func timescale(fps float64) uint32 {
	if fps <= 0 {
		return ticksPerFrame
	}
	return uint32(fps * ticksPerFrame)
}
