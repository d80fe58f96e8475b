// Package motion implements exhaustive block-matching motion estimation
// and bounds-clamped motion compensation.
package motion

import (
	"encoding/json"
	"fmt"

	"github.com/user/gopcodec/pkg/codecerr"
	"github.com/user/gopcodec/pkg/frame"
	"github.com/user/gopcodec/pkg/macroblock"
)

// Vector is a macroblock displacement into the reference frame, in pixels.
// It is only meaningful for the macroblock position and reference frame it
// was estimated against.
type Vector struct {
	DX int
	DY int
}

// Zero is the zero displacement.
var Zero = Vector{}

// MarshalJSON encodes the vector as [dx, dy].
func (v Vector) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{v.DX, v.DY})
}

// UnmarshalJSON decodes a [dx, dy] pair.
func (v *Vector) UnmarshalJSON(data []byte) error {
	var pair [2]int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("motion vector: %w", err)
	}
	v.DX, v.DY = pair[0], pair[1]
	return nil
}

func (v Vector) String() string {
	return fmt.Sprintf("(%d,%d)", v.DX, v.DY)
}

// Estimate searches, for every macroblock of target in row-major order, the
// displacement within ±searchRange that minimizes the sum of squared
// differences against ref. Candidate positions are clamped so the whole
// block stays inside the frame and the effective (clamped) displacement is
// returned.
//
// The zero vector is evaluated first. The remaining candidates are scanned
// with (dy, dx) in ascending lexicographic order and only a strictly
// smaller SSD replaces the current best, so ties resolve to the zero
// vector or else to the earliest candidate scanned.
func Estimate(ref, target frame.Frame, blockSize, searchRange int) ([]Vector, error) {
	if blockSize < 1 {
		return nil, codecerr.Config("block_size", "must be >= 1, got %d", blockSize)
	}
	if searchRange < 0 {
		return nil, codecerr.Config("search_range", "must be >= 0, got %d", searchRange)
	}
	if !ref.SameGeometry(target) {
		return nil, codecerr.Shape("estimate", "reference %dx%dx%d and target %dx%dx%d differ",
			ref.Width, ref.Height, ref.Channels, target.Width, target.Height, target.Channels)
	}
	if target.Width%blockSize != 0 || target.Height%blockSize != 0 {
		return nil, codecerr.Shape("estimate", "frame %dx%d is not padded to block size %d",
			target.Width, target.Height, blockSize)
	}

	rows, cols := target.Height/blockSize, target.Width/blockSize
	vectors := make([]Vector, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			vectors = append(vectors, searchBlock(ref, target, r*blockSize, c*blockSize, blockSize, searchRange))
		}
	}
	return vectors, nil
}

func searchBlock(ref, target frame.Frame, y, x, blockSize, searchRange int) Vector {
	maxY, maxX := ref.Height-blockSize, ref.Width-blockSize

	best := Zero
	bestSSD := ssd(ref, target, y, x, y, x, blockSize, -1)
	if bestSSD == 0 {
		return best
	}
	for dy := -searchRange; dy <= searchRange; dy++ {
		ry := clamp(y+dy, 0, maxY)
		for dx := -searchRange; dx <= searchRange; dx++ {
			rx := clamp(x+dx, 0, maxX)
			s := ssd(ref, target, ry, rx, y, x, blockSize, bestSSD)
			if s < bestSSD {
				bestSSD = s
				best = Vector{DX: rx - x, DY: ry - y}
				if s == 0 {
					return best
				}
			}
		}
	}
	return best
}

// ssd sums squared differences between the reference block at (ry, rx) and
// the target block at (ty, tx). When limit is non-negative the sum stops
// early once it reaches limit, since such a candidate cannot win.
func ssd(ref, target frame.Frame, ry, rx, ty, tx, blockSize int, limit int64) int64 {
	var sum int64
	rowLen := blockSize * ref.Channels
	for dy := 0; dy < blockSize; dy++ {
		a := ref.Pix[ref.Offset(rx, ry+dy, 0):]
		b := target.Pix[target.Offset(tx, ty+dy, 0):]
		for i := 0; i < rowLen; i++ {
			d := int64(a[i]) - int64(b[i])
			sum += d * d
		}
		if limit >= 0 && sum >= limit {
			return sum
		}
	}
	return sum
}

// Compensate returns the reference macroblock displaced by v from grid
// position (row, col). The source window is clamped to the frame, so the
// copy never wraps around an edge.
func Compensate(ref frame.Frame, row, col, blockSize int, v Vector) macroblock.Macroblock {
	y := clamp(row*blockSize+v.DY, 0, ref.Height-blockSize)
	x := clamp(col*blockSize+v.DX, 0, ref.Width-blockSize)
	return macroblock.Extract(ref, y, x, blockSize, row, col)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
