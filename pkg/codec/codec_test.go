package codec

import (
	"context"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/user/gopcodec/pkg/adapters/logger"
	"github.com/user/gopcodec/pkg/bitstream"
	"github.com/user/gopcodec/pkg/codecerr"
	"github.com/user/gopcodec/pkg/frame"
	"github.com/user/gopcodec/pkg/gop"
	"github.com/user/gopcodec/pkg/transform"
)

// movingSquare renders a gray background with a bright square that moves
// two pixels right per frame.
func movingSquare(w, h, n int) []frame.Frame {
	frames := make([]frame.Frame, n)
	for i := range frames {
		f := frame.Solid(w, h, 40, 60, 80)
		for y := 8; y < 16 && y < h; y++ {
			for x := 4 + 2*i; x < 12+2*i && x < w; x++ {
				f.Set(x, y, 0, 220)
				f.Set(x, y, 1, 200)
				f.Set(x, y, 2, 30)
			}
		}
		frames[i] = f
	}
	return frames
}

func newEncoder(t *testing.T, cfg Config) *Encoder {
	t.Helper()
	enc, err := NewEncoder(cfg, logger.NewNoop())
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	return enc
}

func TestRoundTrip_SolidFrames(t *testing.T) {
	frames := make([]frame.Frame, 12)
	for i := range frames {
		frames[i] = frame.Solid(37, 21, 100, 150, 200)
	}
	cfg := DefaultConfig()
	cfg.BlockSize = 8

	res, err := newEncoder(t, cfg).Encode(context.Background(), frames)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(res.Metadata.Frames) != 12 {
		t.Fatalf("metadata has %d frames, want 12", len(res.Metadata.Frames))
	}

	got, err := NewDecoder(DecodeOptions{}, logger.NewNoop()).Decode(context.Background(), res.Buffer, res.Metadata)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got) != len(frames) {
		t.Fatalf("decoded %d frames, want %d", len(got), len(frames))
	}
	bound := transform.ErrorBound(cfg.Quality, cfg.BlockSize)
	for i := range frames {
		if d := got[i].MaxAbsDiff(frames[i]); d < 0 || float64(d) > bound {
			t.Errorf("frame %d: max error %d exceeds %v", i+1, d, bound)
		}
	}
}

func TestRoundTrip_MatchesEncoderReconstruction(t *testing.T) {
	frames := movingSquare(40, 24, 7)
	cfg := DefaultConfig()
	cfg.BlockSize = 8
	cfg.SearchRange = 4
	cfg.GOPSize = 4
	cfg.BFrameInterval = 1
	cfg.Quality = 70
	cfg.Workers = 3

	enc := newEncoder(t, cfg)
	var recon []frame.Frame
	var numbers []int
	enc.SetFrameHook(func(ef EncodedFrame) {
		recon = append(recon, ef.Reconstructed)
		numbers = append(numbers, ef.Compressed.Number)
	})
	res, err := enc.Encode(context.Background(), frames)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if diff := cmp.Diff([]int{1, 2, 3, 4, 5, 6, 7}, numbers); diff != "" {
		t.Errorf("hook order mismatch (-want +got):\n%s", diff)
	}

	var types string
	for _, rec := range res.Metadata.Frames {
		types += string(rec.Header().Type)
	}
	if types != "IBPBIBP" {
		t.Errorf("frame types = %s, want IBPBIBP", types)
	}
	if res.Stats.Frames != 7 || res.Stats.IntraFrames != 2 || res.Stats.PFrames != 2 || res.Stats.BFrames != 3 {
		t.Errorf("unexpected stats %+v", res.Stats)
	}
	if int64(len(res.Buffer)) != res.Stats.PackedBytes {
		t.Errorf("buffer %d bytes, stats say %d", len(res.Buffer), res.Stats.PackedBytes)
	}

	got, err := NewDecoder(DecodeOptions{}, logger.NewNoop()).Decode(context.Background(), res.Buffer, res.Metadata)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	for i := range got {
		if !got[i].Equal(recon[i]) {
			t.Errorf("frame %d differs from encoder reconstruction", i+1)
		}
	}
}

func TestEncode_DeterministicAcrossWorkerCounts(t *testing.T) {
	frames := movingSquare(32, 32, 10)
	var buffers [][]byte
	for _, workers := range []int{1, 4} {
		cfg := DefaultConfig()
		cfg.BlockSize = 8
		cfg.Workers = workers
		res, err := newEncoder(t, cfg).Encode(context.Background(), frames)
		if err != nil {
			t.Fatalf("Encode with %d workers: %v", workers, err)
		}
		buffers = append(buffers, res.Buffer)
	}
	if diff := cmp.Diff(buffers[0], buffers[1]); diff != "" {
		t.Errorf("output depends on worker count (-1 worker +4 workers):\n%s", diff)
	}
}

func TestEncode_IdenticalFramesHaveZeroMotion(t *testing.T) {
	frames := make([]frame.Frame, 3)
	for i := range frames {
		frames[i] = frame.Solid(16, 16, 10, 20, 30)
	}
	res, err := newEncoder(t, DefaultConfig()).Encode(context.Background(), frames)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	for _, rec := range res.Metadata.Frames[1:] {
		inter := rec.(*bitstream.InterRecord)
		if inter.Reference != 1 {
			t.Errorf("frame %d references %d, want 1", inter.Number, inter.Reference)
		}
		for _, v := range inter.Vectors {
			if v.DX != 0 || v.DY != 0 {
				t.Errorf("frame %d has non-zero vector %v", inter.Number, v)
			}
		}
	}
}

func TestEncode_Empty(t *testing.T) {
	res, err := newEncoder(t, DefaultConfig()).Encode(context.Background(), nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(res.Buffer) != 0 || len(res.Metadata.Frames) != 0 {
		t.Fatalf("expected empty result, got %d bytes / %d frames", len(res.Buffer), len(res.Metadata.Frames))
	}
	got, err := NewDecoder(DecodeOptions{}, logger.NewNoop()).Decode(context.Background(), res.Buffer, res.Metadata)
	if err != nil || len(got) != 0 {
		t.Errorf("Decode empty: %v, %d frames", err, len(got))
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"block size", func(c *Config) { c.BlockSize = 0 }},
		{"oversized block", func(c *Config) { c.BlockSize = 512 }},
		{"search range", func(c *Config) { c.SearchRange = -1 }},
		{"quality", func(c *Config) { c.Quality = 101 }},
		{"gop size", func(c *Config) { c.GOPSize = 0 }},
		{"b-frame interval", func(c *Config) { c.BFrameInterval = -1 }},
		{"frame rate", func(c *Config) { c.FrameRate = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := NewEncoder(cfg, logger.NewNoop())
			var cfgErr *codecerr.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("expected ConfigError, got %v", err)
			}
		})
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestEncode_GeometryErrorsBeforeProcessing(t *testing.T) {
	enc := newEncoder(t, DefaultConfig())
	calls := 0
	enc.SetFrameHook(func(EncodedFrame) { calls++ })

	frames := []frame.Frame{frame.Solid(16, 16, 1, 2, 3), frame.Solid(16, 8, 1, 2, 3)}
	_, err := enc.Encode(context.Background(), frames)
	var cfgErr *codecerr.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("inconsistent resolution: expected ConfigError, got %v", err)
	}
	_, err = enc.Encode(context.Background(), []frame.Frame{{Width: 0, Height: 4, Channels: 3}})
	if !errors.As(err, &cfgErr) {
		t.Fatalf("zero width: expected ConfigError, got %v", err)
	}
	if calls != 0 {
		t.Errorf("%d frames coded before validation failed", calls)
	}
}

// cancelSource cancels the context after serving limit frames.
type cancelSource struct {
	frames []frame.Frame
	limit  int
	cancel context.CancelFunc
	next   int
}

func (s *cancelSource) Next(ctx context.Context) (frame.Frame, error) {
	if s.next == s.limit {
		s.cancel()
	}
	if err := ctx.Err(); err != nil {
		return frame.Frame{}, err
	}
	if s.next >= len(s.frames) {
		return frame.Frame{}, io.EOF
	}
	f := s.frames[s.next]
	s.next++
	return f, nil
}

func (s *cancelSource) Reset() error { s.next = 0; return nil }

func TestEncodeStream_CancelKeepsWholeGOPs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BlockSize = 8
	cfg.GOPSize = 3
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	src := &cancelSource{frames: movingSquare(16, 16, 10), limit: 7, cancel: cancel}

	res, err := newEncoder(t, cfg).EncodeStream(ctx, src)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(res.Metadata.Frames) != 6 {
		t.Fatalf("committed %d frames, want 6 (two whole GOPs)", len(res.Metadata.Frames))
	}
	got, err := NewDecoder(DecodeOptions{}, logger.NewNoop()).Decode(context.Background(), res.Buffer, res.Metadata)
	if err != nil {
		t.Fatalf("partial stream does not decode: %v", err)
	}
	if len(got) != 6 {
		t.Errorf("decoded %d frames, want 6", len(got))
	}
}

func TestDecodeFrames_RandomAccess(t *testing.T) {
	frames := movingSquare(24, 24, 9)
	cfg := DefaultConfig()
	cfg.BlockSize = 8
	cfg.GOPSize = 4
	res, err := newEncoder(t, cfg).Encode(context.Background(), frames)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	dec := NewDecoder(DecodeOptions{}, logger.NewNoop())
	all, err := dec.Decode(context.Background(), res.Buffer, res.Metadata)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	got, err := dec.DecodeFrames(context.Background(), res.Buffer, res.Metadata, []int{7, 2, 7})
	if err != nil {
		t.Fatalf("DecodeFrames: %v", err)
	}
	if len(got) != 3 || got[0].Number != 7 || got[1].Number != 2 || got[2].Number != 7 {
		t.Fatalf("unexpected frames %+v", got)
	}
	for _, df := range got {
		if !df.Frame.Equal(all[df.Number-1]) {
			t.Errorf("frame %d differs from sequential decode", df.Number)
		}
	}

	_, err = dec.DecodeFrames(context.Background(), res.Buffer, res.Metadata, []int{10})
	var cfgErr *codecerr.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("out of range: expected ConfigError, got %v", err)
	}
}

func corruptFrame(t *testing.T, md bitstream.Metadata, number int) bitstream.Metadata {
	t.Helper()
	out := md
	out.Frames = append([]bitstream.FrameRecord{}, md.Frames...)
	switch r := out.Frames[number-1].(type) {
	case *bitstream.IntraRecord:
		c := *r
		c.Codes = map[byte]string{0: "0", 1: "01"}
		out.Frames[number-1] = &c
	case *bitstream.InterRecord:
		c := *r
		c.Codes = map[byte]string{0: "0", 1: "01"}
		out.Frames[number-1] = &c
	}
	return out
}

func TestDecode_CorruptFrame(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BlockSize = 8
	cfg.GOPSize = 3
	res, err := newEncoder(t, cfg).Encode(context.Background(), movingSquare(16, 16, 6))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// Corrupting the first I-frame's code table poisons its whole GOP.
	md := corruptFrame(t, res.Metadata, 1)

	_, err = NewDecoder(DecodeOptions{}, logger.NewNoop()).Decode(context.Background(), res.Buffer, md)
	var decErr *codecerr.DecodeError
	if !errors.As(err, &decErr) {
		t.Fatalf("default mode: expected DecodeError, got %v", err)
	}
	if decErr.Frame != 1 {
		t.Errorf("error reported for frame %d, want 1", decErr.Frame)
	}

	got, err := NewDecoder(DecodeOptions{SkipCorrupt: true}, logger.NewNoop()).DecodeNumbered(context.Background(), res.Buffer, md)
	if err != nil {
		t.Fatalf("skip mode: %v", err)
	}
	var numbers []int
	for _, df := range got {
		numbers = append(numbers, df.Number)
	}
	if diff := cmp.Diff([]int{4, 5, 6}, numbers); diff != "" {
		t.Errorf("surviving frames mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_FormatErrors(t *testing.T) {
	res, err := newEncoder(t, DefaultConfig()).Encode(context.Background(), movingSquare(16, 16, 3))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	dec := NewDecoder(DecodeOptions{SkipCorrupt: true}, logger.NewNoop())
	var fmtErr *codecerr.FormatError

	if _, err := dec.Decode(context.Background(), res.Buffer[:len(res.Buffer)-1], res.Metadata); !errors.As(err, &fmtErr) {
		t.Errorf("truncated buffer: expected FormatError, got %v", err)
	}
	if _, err := dec.Decode(context.Background(), []byte{1}, bitstream.Metadata{}); !errors.As(err, &fmtErr) {
		t.Errorf("bytes without records: expected FormatError, got %v", err)
	}

	// Inflated geometry is rejected before any frame buffers are sized.
	bigBlocks := res.Metadata
	bigBlocks.BlockSize = 256
	if _, err := dec.Decode(context.Background(), res.Buffer, bigBlocks); !errors.As(err, &fmtErr) {
		t.Errorf("inflated block_size: expected FormatError, got %v", err)
	}
	bigFrame := res.Metadata
	bigFrame.Resolution = bitstream.Resolution{Width: 1 << 20, Height: 1 << 20}
	if _, err := dec.Decode(context.Background(), res.Buffer, bigFrame); !errors.As(err, &fmtErr) {
		t.Errorf("inflated resolution: expected FormatError, got %v", err)
	}
}

func TestPlaybackOrder(t *testing.T) {
	res, err := newEncoder(t, DefaultConfig()).Encode(context.Background(), movingSquare(16, 16, 6))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// Types: I P B P B P
	tests := []struct {
		mode PlaybackMode
		want []int
	}{
		{PlaybackNormal, []int{1, 2, 3, 4, 5, 6}},
		{PlaybackFastForward, []int{1, 2, 4, 6}},
		{PlaybackReverse, []int{6, 5, 4, 3, 2, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			if diff := cmp.Diff(tt.want, PlaybackOrder(res.Metadata, tt.mode)); diff != "" {
				t.Errorf("order mismatch (-want +got):\n%s", diff)
			}
			m, err := ParsePlaybackMode(tt.mode.String())
			if err != nil || m != tt.mode {
				t.Errorf("ParsePlaybackMode(%q) = %v, %v", tt.mode.String(), m, err)
			}
		})
	}
	if res.Metadata.Frames[2].Header().Type != gop.Bidirectional {
		t.Errorf("frame 3 is %s, want B", res.Metadata.Frames[2].Header().Type)
	}
}

func TestStats_PSNR(t *testing.T) {
	a := frame.Solid(4, 4, 100)
	if !math.IsInf(PSNR(a, a), 1) {
		t.Error("identical frames should have infinite PSNR")
	}
	b := frame.Solid(4, 4, 110)
	want := 10 * math.Log10(255*255/100.0)
	if got := PSNR(a, b); math.Abs(got-want) > 1e-9 {
		t.Errorf("PSNR = %v, want %v", got, want)
	}
	if !math.IsNaN(PSNR(a, frame.Solid(2, 2, 1))) {
		t.Error("geometry mismatch should give NaN")
	}
}
