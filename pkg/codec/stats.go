package codec

import (
	"math"

	"github.com/user/gopcodec/pkg/frame"
	"github.com/user/gopcodec/pkg/gop"
)

// Stats summarizes an encode run.
type Stats struct {
	Frames      int
	IntraFrames int
	PFrames     int
	BFrames     int
	// RawBytes is the size of the unpadded input samples.
	RawBytes int64
	// PackedBytes is the size of the packed bit buffer.
	PackedBytes int64
	// PayloadBits is the sum of the exact payload lengths.
	PayloadBits int64

	sse     float64
	samples int64
}

func (s *Stats) add(ft gop.FrameType, payloadBits int, sse float64, samples int) {
	s.Frames++
	switch ft {
	case gop.Intra:
		s.IntraFrames++
	case gop.Predicted:
		s.PFrames++
	case gop.Bidirectional:
		s.BFrames++
	}
	s.PayloadBits += int64(payloadBits)
	s.PackedBytes += int64((payloadBits + 7) / 8)
	s.RawBytes += int64(samples)
	s.sse += sse
	s.samples += int64(samples)
}

// CompressionRatio returns RawBytes / PackedBytes, or 0 when nothing was packed.
func (s Stats) CompressionRatio() float64 {
	if s.PackedBytes == 0 {
		return 0
	}
	return float64(s.RawBytes) / float64(s.PackedBytes)
}

// MSE returns the mean squared reconstruction error per sample.
func (s Stats) MSE() float64 {
	if s.samples == 0 {
		return 0
	}
	return s.sse / float64(s.samples)
}

// PSNR returns the peak signal-to-noise ratio of all reconstructed frames
// in dB. A lossless encode reports +Inf.
func (s Stats) PSNR() float64 {
	return psnr(s.MSE())
}

func psnr(mse float64) float64 {
	if mse == 0 {
		return math.Inf(1)
	}
	return 10 * math.Log10(255*255/mse)
}

// squaredError returns the sum of squared sample differences of two frames
// with the same geometry.
func squaredError(a, b frame.Frame) float64 {
	var sum float64
	for i := range a.Pix {
		d := float64(a.Pix[i]) - float64(b.Pix[i])
		sum += d * d
	}
	return sum
}

// PSNR compares two frames of the same geometry. It returns NaN when the
// geometry differs.
func PSNR(a, b frame.Frame) float64 {
	if !a.SameGeometry(b) || len(a.Pix) != len(b.Pix) {
		return math.NaN()
	}
	if len(a.Pix) == 0 {
		return math.Inf(1)
	}
	return psnr(squaredError(a, b) / float64(len(a.Pix)))
}
