// Package macroblock partitions frames into fixed-size blocks and reassembles them.
package macroblock

import (
	"github.com/user/gopcodec/pkg/codecerr"
	"github.com/user/gopcodec/pkg/frame"
)

// Macroblock is a Size×Size×Channels view of a padded frame at grid
// position (Row, Col). Pix is row-major with interleaved channels.
type Macroblock struct {
	Row      int
	Col      int
	Size     int
	Channels int
	Pix      []uint8
}

// X returns the left pixel coordinate of the block.
func (m Macroblock) X() int { return m.Col * m.Size }

// Y returns the top pixel coordinate of the block.
func (m Macroblock) Y() int { return m.Row * m.Size }

// Plane extracts channel c as a Size×Size row-major plane.
func (m Macroblock) Plane(c int) []int {
	plane := make([]int, m.Size*m.Size)
	for i := range plane {
		plane[i] = int(m.Pix[i*m.Channels+c])
	}
	return plane
}

// SetPlane stores a plane of samples, already in [0,255], into channel c.
func (m Macroblock) SetPlane(c int, plane []int) {
	for i, v := range plane {
		m.Pix[i*m.Channels+c] = uint8(v)
	}
}

// MaxSize is the largest block edge accepted by encoders and stream metadata.
const MaxSize = 256

// GridSize returns the number of block rows and columns covering width×height.
func GridSize(width, height, blockSize int) (rows, cols int) {
	return ceilDiv(height, blockSize), ceilDiv(width, blockSize)
}

// PaddedSize returns width and height rounded up to multiples of blockSize.
func PaddedSize(width, height, blockSize int) (int, int) {
	rows, cols := GridSize(width, height, blockSize)
	return cols * blockSize, rows * blockSize
}

// Pad extends the frame to the next multiple of blockSize in both
// directions by replicating the last row and column.
func Pad(f frame.Frame, blockSize int) (frame.Frame, error) {
	if blockSize < 1 {
		return frame.Frame{}, codecerr.Config("block_size", "must be >= 1, got %d", blockSize)
	}
	if err := f.Validate(); err != nil {
		return frame.Frame{}, codecerr.Shape("pad", "%v", err)
	}
	pw, ph := PaddedSize(f.Width, f.Height, blockSize)
	if pw == f.Width && ph == f.Height {
		return f.Clone(), nil
	}

	out := frame.New(pw, ph, f.Channels)
	rowBytes := f.Width * f.Channels
	for y := 0; y < ph; y++ {
		sy := min(y, f.Height-1)
		dst := out.Pix[y*pw*f.Channels:]
		copy(dst, f.Pix[sy*rowBytes:(sy+1)*rowBytes])
		last := f.Pix[(sy*f.Width+f.Width-1)*f.Channels : (sy+1)*rowBytes]
		for x := f.Width; x < pw; x++ {
			copy(dst[x*f.Channels:], last)
		}
	}
	return out, nil
}

// Unpad crops a padded frame back to width×height.
func Unpad(padded frame.Frame, width, height int) (frame.Frame, error) {
	if width <= 0 || height <= 0 || width > padded.Width || height > padded.Height {
		return frame.Frame{}, codecerr.Shape("unpad", "cannot crop %dx%d frame to %dx%d",
			padded.Width, padded.Height, width, height)
	}
	if width == padded.Width && height == padded.Height {
		return padded.Clone(), nil
	}
	out := frame.New(width, height, padded.Channels)
	rowBytes := width * padded.Channels
	for y := 0; y < height; y++ {
		src := padded.Pix[y*padded.Width*padded.Channels:]
		copy(out.Pix[y*rowBytes:(y+1)*rowBytes], src[:rowBytes])
	}
	return out, nil
}

// Split cuts a padded frame into macroblocks in row-major grid order.
func Split(padded frame.Frame, blockSize int) ([]Macroblock, error) {
	if blockSize < 1 {
		return nil, codecerr.Config("block_size", "must be >= 1, got %d", blockSize)
	}
	if padded.Width%blockSize != 0 || padded.Height%blockSize != 0 {
		return nil, codecerr.Shape("split", "frame %dx%d is not padded to block size %d",
			padded.Width, padded.Height, blockSize)
	}
	rows, cols := padded.Height/blockSize, padded.Width/blockSize
	blocks := make([]Macroblock, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			blocks = append(blocks, Extract(padded, r*blockSize, c*blockSize, blockSize, r, c))
		}
	}
	return blocks, nil
}

// Extract copies the blockSize×blockSize window whose top-left pixel is
// (x, y) out of f. The caller guarantees the window lies inside f.
func Extract(f frame.Frame, y, x, blockSize, row, col int) Macroblock {
	mb := Macroblock{
		Row:      row,
		Col:      col,
		Size:     blockSize,
		Channels: f.Channels,
		Pix:      make([]uint8, blockSize*blockSize*f.Channels),
	}
	rowBytes := blockSize * f.Channels
	for dy := 0; dy < blockSize; dy++ {
		src := f.Pix[f.Offset(x, y+dy, 0):]
		copy(mb.Pix[dy*rowBytes:(dy+1)*rowBytes], src[:rowBytes])
	}
	return mb
}

// Reconstruct reassembles row-major macroblocks into a padded frame that
// covers width×height. It fails with a ShapeError when the block count or
// any block's geometry does not match.
func Reconstruct(blocks []Macroblock, width, height, blockSize int) (frame.Frame, error) {
	if blockSize < 1 {
		return frame.Frame{}, codecerr.Config("block_size", "must be >= 1, got %d", blockSize)
	}
	if width <= 0 || height <= 0 {
		return frame.Frame{}, codecerr.Shape("reconstruct", "non-positive resolution %dx%d", width, height)
	}
	rows, cols := GridSize(width, height, blockSize)
	if len(blocks) != rows*cols {
		return frame.Frame{}, codecerr.Shape("reconstruct", "got %d macroblocks, want %d (%dx%d grid)",
			len(blocks), rows*cols, cols, rows)
	}

	channels := blocks[0].Channels
	out := frame.New(cols*blockSize, rows*blockSize, channels)
	rowBytes := blockSize * channels
	for i, mb := range blocks {
		if mb.Size != blockSize || mb.Channels != channels || len(mb.Pix) != blockSize*blockSize*channels {
			return frame.Frame{}, codecerr.Shape("reconstruct", "macroblock %d has geometry %dx%dx%d, want %dx%dx%d",
				i, mb.Size, mb.Size, mb.Channels, blockSize, blockSize, channels)
		}
		r, c := i/cols, i%cols
		x, y := c*blockSize, r*blockSize
		for dy := 0; dy < blockSize; dy++ {
			copy(out.Pix[out.Offset(x, y+dy, 0):], mb.Pix[dy*rowBytes:(dy+1)*rowBytes])
		}
	}
	return out, nil
}

func ceilDiv(a, b int) int {
	q := a / b
	if a%b != 0 {
		q++
	}
	return q
}
