package codec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sort"
	"sync"

	"github.com/user/gopcodec/pkg/bitstream"
	"github.com/user/gopcodec/pkg/codecerr"
	"github.com/user/gopcodec/pkg/frame"
	"github.com/user/gopcodec/pkg/gop"
	"github.com/user/gopcodec/pkg/macroblock"
	"github.com/user/gopcodec/pkg/motion"
	"github.com/user/gopcodec/pkg/ports"
	"github.com/user/gopcodec/pkg/predictor"
)

// Result is the output of an encode run. Buffer and Metadata always
// describe the same whole GOPs, even when the run was cancelled.
type Result struct {
	Buffer   []byte
	Metadata bitstream.Metadata
	Stats    Stats
}

// EncodedFrame is passed to a FrameHook once its GOP has been committed.
type EncodedFrame struct {
	Compressed bitstream.CompressedFrame
	// Reconstructed is the unpadded frame a decoder will produce.
	Reconstructed frame.Frame
}

// FrameHook observes committed frames in frame order.
type FrameHook func(EncodedFrame)

// Encoder turns frame sequences into a packed bitstream.
type Encoder struct {
	cfg        Config
	sched      gop.Scheduler
	pred       predictor.Predictor
	logger     ports.Logger
	numWorkers int
	hook       FrameHook
}

// NewEncoder validates cfg and creates an encoder.
func NewEncoder(cfg Config, logger ports.Logger) (*Encoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sched, err := gop.NewScheduler(cfg.GOPSize, cfg.BFrameInterval)
	if err != nil {
		return nil, err
	}
	pred, err := predictor.New(cfg.BlockSize, cfg.Quality)
	if err != nil {
		return nil, err
	}
	numWorkers := cfg.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &Encoder{
		cfg:        cfg,
		sched:      sched,
		pred:       pred,
		logger:     logger.WithComponent("encoder"),
		numWorkers: numWorkers,
	}, nil
}

// SetFrameHook registers a hook called for every committed frame.
func (e *Encoder) SetFrameHook(h FrameHook) {
	e.hook = h
}

// Encode encodes an in-memory frame sequence. All frames are validated
// before any is coded.
func (e *Encoder) Encode(ctx context.Context, frames []frame.Frame) (Result, error) {
	for i, f := range frames {
		if err := checkGeometry(f, frames[0], i+1); err != nil {
			return e.emptyResult(), err
		}
	}
	return e.EncodeStream(ctx, NewSliceSource(frames))
}

// EncodeStream reads frames from src and encodes them one GOP at a time.
// Only complete GOPs (or the final short GOP) are committed to the output,
// so when ctx is cancelled or src fails the returned Result is still a
// consistent stream, returned together with the error.
func (e *Encoder) EncodeStream(ctx context.Context, src ports.FrameSource) (Result, error) {
	s := &encodeSession{enc: e}
	var pending []frame.Frame
	var first frame.Frame

	for {
		if err := ctx.Err(); err != nil {
			return s.result(), err
		}
		f, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		n := s.nextNumber() + len(pending)
		if err != nil {
			return s.result(), fmt.Errorf("read frame %d: %w", n, err)
		}
		if s.packer == nil {
			first = f
			if err := checkGeometry(f, f, n); err != nil {
				return e.emptyResult(), err
			}
			s.start(f)
		} else if err := checkGeometry(f, first, n); err != nil {
			return s.result(), err
		}

		pending = append(pending, f)
		if len(pending) == e.cfg.GOPSize {
			if err := s.commit(ctx, pending); err != nil {
				return s.result(), err
			}
			pending = nil
		}
	}
	if len(pending) > 0 {
		if err := s.commit(ctx, pending); err != nil {
			return s.result(), err
		}
	}
	if s.packer == nil {
		return e.emptyResult(), nil
	}
	e.logger.Debug("Encoded %d frames into %d bytes", s.stats.Frames, s.stats.PackedBytes)
	return s.result(), nil
}

func (e *Encoder) emptyResult() Result {
	return Result{
		Buffer: []byte{},
		Metadata: bitstream.Metadata{
			Version:    bitstream.FormatVersion,
			StreamInfo: e.cfg.streamInfo(0, 0, 0),
			Frames:     []bitstream.FrameRecord{},
		},
	}
}

func checkGeometry(f, first frame.Frame, number int) error {
	if err := f.Validate(); err != nil {
		return &codecerr.ConfigError{Field: "resolution", Reason: fmt.Sprintf("frame %d: %v", number, err)}
	}
	if !f.SameGeometry(first) {
		return codecerr.Config("resolution", "frame %d is %dx%dx%d, want %dx%dx%d", number,
			f.Width, f.Height, f.Channels, first.Width, first.Height, first.Channels)
	}
	return nil
}

// encodeSession holds the state of one EncodeStream call.
type encodeSession struct {
	enc    *Encoder
	packer *bitstream.Packer
	stats  Stats
	gopIdx int
}

func (s *encodeSession) start(f frame.Frame) {
	s.packer = bitstream.NewPacker(s.enc.cfg.streamInfo(f.Width, f.Height, f.Channels))
}

func (s *encodeSession) nextNumber() int {
	if s.packer == nil {
		return 1
	}
	return s.packer.Len() + 1
}

func (s *encodeSession) result() Result {
	if s.packer == nil {
		return s.enc.emptyResult()
	}
	return Result{Buffer: s.packer.Bytes(), Metadata: s.packer.Metadata(), Stats: s.stats}
}

// commit codes one GOP and appends it to the packer. Nothing is appended
// unless every frame of the GOP was coded.
func (s *encodeSession) commit(ctx context.Context, frames []frame.Frame) error {
	coded, err := s.enc.encodeGOP(ctx, s.gopIdx, frames)
	if err != nil {
		return err
	}
	compressed := make([]bitstream.CompressedFrame, len(coded))
	for i, c := range coded {
		compressed[i] = c.Compressed
	}
	if err := s.packer.Add(compressed...); err != nil {
		return err
	}
	for i, c := range coded {
		s.stats.add(c.Compressed.Type, c.Compressed.Payload.Len(), c.sse, len(frames[i].Pix))
		if s.enc.hook != nil {
			s.enc.hook(c.EncodedFrame)
		}
	}
	s.enc.logger.Debug("Committed GOP %d (%d frames)", s.gopIdx, len(frames))
	s.gopIdx++
	return nil
}

// codedFrame is one frame coded within a GOP.
type codedFrame struct {
	EncodedFrame
	sse float64
}

// indexedFrame holds a coded frame with its position in the GOP for sorting.
type indexedFrame struct {
	index int
	frame codedFrame
}

// encodeGOP codes the I-frame first and then every P/B-frame against its
// reconstruction on the worker pool. Results are ordered by position.
func (e *Encoder) encodeGOP(ctx context.Context, gopIdx int, frames []frame.Frame) ([]codedFrame, error) {
	base := gopIdx * e.cfg.GOPSize

	intraPadded, err := macroblock.Pad(frames[0], e.cfg.BlockSize)
	if err != nil {
		return nil, codecerr.WithFrame(err, base+1)
	}
	enc, ref, err := e.pred.EncodeIntra(intraPadded)
	if err != nil {
		return nil, fmt.Errorf("encode frame %d: %w", base+1, codecerr.WithFrame(err, base+1))
	}
	intra, err := e.finishFrame(frames[0], ref, bitstream.CompressedFrame{
		Number:  base + 1,
		Type:    gop.Intra,
		Codes:   enc.Codes,
		Payload: enc.Payload,
	})
	if err != nil {
		return nil, err
	}

	coded := []codedFrame{intra}
	if len(frames) > 1 {
		inter, err := e.encodeInterParallel(ctx, base, frames, ref)
		if err != nil {
			return nil, err
		}
		coded = append(coded, inter...)
	}
	return coded, nil
}

func (e *Encoder) encodeInterParallel(ctx context.Context, base int, frames []frame.Frame, ref frame.Frame) ([]codedFrame, error) {
	numJobs := len(frames) - 1
	numWorkers := min(e.numWorkers, numJobs)
	jobs := make(chan int, numJobs)
	results := make(chan indexedFrame, numJobs)
	errChan := make(chan error, numWorkers)

	// Start workers
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go e.worker(ctx, &wg, base, frames, ref, jobs, results, errChan)
	}

	// Send jobs
	for j := 1; j < len(frames); j++ {
		jobs <- j
	}
	close(jobs)

	// Wait for workers to finish
	go func() {
		wg.Wait()
		close(results)
		close(errChan)
	}()

	collected := make([]indexedFrame, 0, numJobs)
	for r := range results {
		collected = append(collected, r)
	}

	if err := <-errChan; err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(collected, func(i, j int) bool {
		return collected[i].index < collected[j].index
	})
	out := make([]codedFrame, len(collected))
	for i, c := range collected {
		out[i] = c.frame
	}
	return out, nil
}

func (e *Encoder) worker(
	ctx context.Context,
	wg *sync.WaitGroup,
	base int,
	frames []frame.Frame,
	ref frame.Frame,
	jobs <-chan int,
	results chan<- indexedFrame,
	errChan chan<- error,
) {
	defer wg.Done()

	for j := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		coded, err := e.encodeInter(base, j, frames[j], ref)
		if err != nil {
			select {
			case errChan <- err:
			default:
			}
			return
		}
		results <- indexedFrame{index: j, frame: coded}
	}
}

func (e *Encoder) encodeInter(base, pos int, f, ref frame.Frame) (codedFrame, error) {
	number := base + pos + 1
	padded, err := macroblock.Pad(f, e.cfg.BlockSize)
	if err != nil {
		return codedFrame{}, codecerr.WithFrame(err, number)
	}
	vectors, err := motion.Estimate(ref, padded, e.cfg.BlockSize, e.cfg.SearchRange)
	if err != nil {
		return codedFrame{}, fmt.Errorf("estimate motion for frame %d: %w", number, codecerr.WithFrame(err, number))
	}
	enc, recon, err := e.pred.EncodeInter(padded, ref, vectors)
	if err != nil {
		return codedFrame{}, fmt.Errorf("encode frame %d: %w", number, codecerr.WithFrame(err, number))
	}
	return e.finishFrame(f, recon, bitstream.CompressedFrame{
		Number:    number,
		Type:      e.sched.TypeAt(pos),
		Codes:     enc.Codes,
		Payload:   enc.Payload,
		Reference: base + 1,
		Vectors:   vectors,
	})
}

func (e *Encoder) finishFrame(orig, reconPadded frame.Frame, cf bitstream.CompressedFrame) (codedFrame, error) {
	recon, err := macroblock.Unpad(reconPadded, orig.Width, orig.Height)
	if err != nil {
		return codedFrame{}, codecerr.WithFrame(err, cf.Number)
	}
	return codedFrame{
		EncodedFrame: EncodedFrame{Compressed: cf, Reconstructed: recon},
		sse:          squaredError(orig, recon),
	}, nil
}
