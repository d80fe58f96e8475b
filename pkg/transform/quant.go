package transform

import (
	"encoding/binary"
	"math"

	"github.com/user/gopcodec/pkg/codecerr"
)

const (
	// SampleMin and SampleMax bound pixel samples.
	SampleMin = 0
	SampleMax = 255

	// ResidualMin and ResidualMax bound prediction residuals.
	ResidualMin = -255
	ResidualMax = 255

	// sampleScale maps samples into the normalized [0,1] range.
	sampleScale = 255.0
)

// Factor returns the quantization divisor for a quality in [0,100]:
//
//	Factor(q) = 2^((100-q)/12.5) / 4096
//
// It spans 1/4096 at q=100 to 1/16 at q=0 and is strictly decreasing in q.
func Factor(quality int) float64 {
	q := math.Max(0, math.Min(100, float64(quality)))
	return math.Exp2((100-q)/12.5) / 4096
}

// Step returns one quantization step expressed in sample units.
func Step(quality int) float64 {
	return sampleScale * Factor(quality)
}

// ErrorBound returns the maximum per-sample reconstruction error for an
// n×n block at the given quality:
//
//	ErrorBound(q, n) = n*Step(q)/2 + 0.5
//
// Each coefficient is off by at most Factor/2 after rounding; the
// orthonormal inverse preserves the L2 norm of that error, which bounds
// every single sample by n*Factor/2 (normalized). The final rounding to
// integers adds at most 0.5. Clipping to the valid range never increases
// the error of an in-range original.
func ErrorBound(quality, n int) float64 {
	return float64(n)*Step(quality)/2 + 0.5
}

// Forward transforms an n×n plane of integer samples (or residuals) and
// quantizes the coefficients at the given quality.
func Forward(plane []int, n, quality int) []int {
	in := make([]float64, n*n)
	for i, v := range plane {
		in[i] = float64(v) / sampleScale
	}
	coeffs := DCT2(in, n)
	f := Factor(quality)
	out := make([]int, n*n)
	for i, c := range coeffs {
		out[i] = int(math.Round(c / f))
	}
	return out
}

// Inverse dequantizes an n×n coefficient block, applies the inverse
// transform and returns integer samples clipped to [lo, hi].
func Inverse(quantized []int, n, quality, lo, hi int) []int {
	f := Factor(quality)
	in := make([]float64, n*n)
	for i, q := range quantized {
		in[i] = float64(q) * f
	}
	samples := IDCT2(in, n)
	out := make([]int, n*n)
	for i, s := range samples {
		v := s * sampleScale
		v = math.Max(float64(lo), math.Min(float64(hi), v))
		out[i] = int(math.Round(v))
	}
	return out
}

// AppendCoefficients appends each coefficient as a zig-zag signed varint.
func AppendCoefficients(dst []byte, coeffs []int) []byte {
	for _, c := range coeffs {
		dst = binary.AppendVarint(dst, int64(c))
	}
	return dst
}

// ReadCoefficients decodes count varint coefficients from src and returns
// them with the number of bytes consumed.
func ReadCoefficients(src []byte, count int) ([]int, int, error) {
	out := make([]int, count)
	off := 0
	for i := 0; i < count; i++ {
		v, k := binary.Varint(src[off:])
		if k <= 0 {
			return nil, 0, codecerr.Decode("coefficients", "truncated or malformed coefficient %d of %d", i, count)
		}
		out[i] = int(v)
		off += k
	}
	return out, off, nil
}
