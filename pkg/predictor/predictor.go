// Package predictor codes whole frames, either on their own (intra) or as a
// motion-compensated residual against a reference frame (inter).
package predictor

import (
	"github.com/user/gopcodec/pkg/bitseq"
	"github.com/user/gopcodec/pkg/codecerr"
	"github.com/user/gopcodec/pkg/entropy"
	"github.com/user/gopcodec/pkg/frame"
	"github.com/user/gopcodec/pkg/macroblock"
	"github.com/user/gopcodec/pkg/motion"
	"github.com/user/gopcodec/pkg/transform"
)

// Predictor transform-codes padded frames at a fixed block size and quality.
type Predictor struct {
	BlockSize int
	Quality   int
}

// Encoded is the entropy-coded form of one frame.
type Encoded struct {
	Payload bitseq.Sequence
	Codes   entropy.CodeTable
}

// New validates the parameters.
func New(blockSize, quality int) (Predictor, error) {
	if blockSize < 1 {
		return Predictor{}, codecerr.Config("block_size", "must be >= 1, got %d", blockSize)
	}
	if quality < 0 || quality > 100 {
		return Predictor{}, codecerr.Config("quality", "must be in [0,100], got %d", quality)
	}
	return Predictor{BlockSize: blockSize, Quality: quality}, nil
}

// EncodeIntra codes a padded frame on its own. It also returns the frame
// the decoder will reconstruct, for use as a reference.
func (p Predictor) EncodeIntra(padded frame.Frame) (Encoded, frame.Frame, error) {
	blocks, err := macroblock.Split(padded, p.BlockSize)
	if err != nil {
		return Encoded{}, frame.Frame{}, err
	}
	var coeffBytes []byte
	for i := range blocks {
		mb := blocks[i]
		for c := 0; c < mb.Channels; c++ {
			q := transform.Forward(mb.Plane(c), p.BlockSize, p.Quality)
			coeffBytes = transform.AppendCoefficients(coeffBytes, q)
			mb.SetPlane(c, transform.Inverse(q, p.BlockSize, p.Quality, transform.SampleMin, transform.SampleMax))
		}
	}
	return p.finish(coeffBytes, blocks, padded)
}

// EncodeInter codes a padded frame as the residual against ref displaced by
// one vector per macroblock.
func (p Predictor) EncodeInter(padded, ref frame.Frame, vectors []motion.Vector) (Encoded, frame.Frame, error) {
	blocks, err := macroblock.Split(padded, p.BlockSize)
	if err != nil {
		return Encoded{}, frame.Frame{}, err
	}
	if err := p.checkInter(len(blocks), padded, ref, vectors); err != nil {
		return Encoded{}, frame.Frame{}, err
	}

	var coeffBytes []byte
	for i := range blocks {
		mb := blocks[i]
		pred := motion.Compensate(ref, mb.Row, mb.Col, p.BlockSize, vectors[i])
		for c := 0; c < mb.Channels; c++ {
			cur, base := mb.Plane(c), pred.Plane(c)
			residual := make([]int, len(cur))
			for k := range cur {
				residual[k] = cur[k] - base[k]
			}
			q := transform.Forward(residual, p.BlockSize, p.Quality)
			coeffBytes = transform.AppendCoefficients(coeffBytes, q)
			mb.SetPlane(c, addResidual(base, transform.Inverse(q, p.BlockSize, p.Quality, transform.ResidualMin, transform.ResidualMax)))
		}
	}
	return p.finish(coeffBytes, blocks, padded)
}

func (p Predictor) finish(coeffBytes []byte, blocks []macroblock.Macroblock, padded frame.Frame) (Encoded, frame.Frame, error) {
	payload, codes, err := entropy.Compress(coeffBytes)
	if err != nil {
		return Encoded{}, frame.Frame{}, err
	}
	recon, err := macroblock.Reconstruct(blocks, padded.Width, padded.Height, p.BlockSize)
	if err != nil {
		return Encoded{}, frame.Frame{}, err
	}
	return Encoded{Payload: payload, Codes: codes}, recon, nil
}

// DecodeIntra reconstructs a padded width×height frame.
func (p Predictor) DecodeIntra(enc Encoded, width, height, channels int) (frame.Frame, error) {
	if width%p.BlockSize != 0 || height%p.BlockSize != 0 || channels < 1 {
		return frame.Frame{}, codecerr.Shape("decode intra", "invalid padded geometry %dx%dx%d for block size %d",
			width, height, channels, p.BlockSize)
	}
	coeffBytes, err := entropy.Decode(enc.Payload, enc.Codes)
	if err != nil {
		return frame.Frame{}, err
	}
	rows, cols := macroblock.GridSize(width, height, p.BlockSize)
	blocks := make([]macroblock.Macroblock, 0, rows*cols)
	off := 0
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			mb := p.emptyBlock(r, c, channels)
			for ch := 0; ch < channels; ch++ {
				q, n, err := p.readPlane(coeffBytes[off:])
				if err != nil {
					return frame.Frame{}, err
				}
				off += n
				mb.SetPlane(ch, transform.Inverse(q, p.BlockSize, p.Quality, transform.SampleMin, transform.SampleMax))
			}
			blocks = append(blocks, mb)
		}
	}
	if off != len(coeffBytes) {
		return frame.Frame{}, codecerr.Decode("decode intra", "%d unused coefficient bytes", len(coeffBytes)-off)
	}
	return macroblock.Reconstruct(blocks, width, height, p.BlockSize)
}

// DecodeInter reconstructs a padded frame from its residual and the
// reference it was predicted from.
func (p Predictor) DecodeInter(enc Encoded, ref frame.Frame, vectors []motion.Vector) (frame.Frame, error) {
	rows, cols := macroblock.GridSize(ref.Width, ref.Height, p.BlockSize)
	if err := p.checkInter(rows*cols, ref, ref, vectors); err != nil {
		return frame.Frame{}, err
	}
	coeffBytes, err := entropy.Decode(enc.Payload, enc.Codes)
	if err != nil {
		return frame.Frame{}, err
	}
	blocks := make([]macroblock.Macroblock, 0, rows*cols)
	off := 0
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			mb := p.emptyBlock(r, c, ref.Channels)
			pred := motion.Compensate(ref, r, c, p.BlockSize, vectors[r*cols+c])
			for ch := 0; ch < ref.Channels; ch++ {
				q, n, err := p.readPlane(coeffBytes[off:])
				if err != nil {
					return frame.Frame{}, err
				}
				off += n
				residual := transform.Inverse(q, p.BlockSize, p.Quality, transform.ResidualMin, transform.ResidualMax)
				mb.SetPlane(ch, addResidual(pred.Plane(ch), residual))
			}
			blocks = append(blocks, mb)
		}
	}
	if off != len(coeffBytes) {
		return frame.Frame{}, codecerr.Decode("decode inter", "%d unused coefficient bytes", len(coeffBytes)-off)
	}
	return macroblock.Reconstruct(blocks, ref.Width, ref.Height, p.BlockSize)
}

func (p Predictor) checkInter(blockCount int, cur, ref frame.Frame, vectors []motion.Vector) error {
	if ref.Width%p.BlockSize != 0 || ref.Height%p.BlockSize != 0 || ref.Validate() != nil {
		return codecerr.Shape("inter", "reference %dx%dx%d is not a padded frame for block size %d",
			ref.Width, ref.Height, ref.Channels, p.BlockSize)
	}
	if !cur.SameGeometry(ref) {
		return codecerr.Shape("inter", "frame %dx%dx%d does not match reference %dx%dx%d",
			cur.Width, cur.Height, cur.Channels, ref.Width, ref.Height, ref.Channels)
	}
	if len(vectors) != blockCount {
		return codecerr.Shape("inter", "got %d motion vectors, want %d", len(vectors), blockCount)
	}
	return nil
}

func (p Predictor) emptyBlock(row, col, channels int) macroblock.Macroblock {
	return macroblock.Macroblock{
		Row:      row,
		Col:      col,
		Size:     p.BlockSize,
		Channels: channels,
		Pix:      make([]uint8, p.BlockSize*p.BlockSize*channels),
	}
}

func (p Predictor) readPlane(src []byte) ([]int, int, error) {
	return transform.ReadCoefficients(src, p.BlockSize*p.BlockSize)
}

func addResidual(base, residual []int) []int {
	out := make([]int, len(base))
	for i := range base {
		out[i] = min(transform.SampleMax, max(transform.SampleMin, base[i]+residual[i]))
	}
	return out
}
