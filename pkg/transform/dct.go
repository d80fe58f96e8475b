// Package transform implements block DCT coding with uniform quantization.
package transform

import (
	"math"
	"sync"
)

// basisCache holds the orthonormal DCT-II matrix for each block size.
var basisCache sync.Map // map[int][]float64

// basis returns the n×n matrix C with C[k*n+i] = a(k) cos((2i+1)kπ / 2n),
// a(0) = sqrt(1/n), a(k>0) = sqrt(2/n). C is orthonormal, so C⁻¹ = Cᵀ.
func basis(n int) []float64 {
	if v, ok := basisCache.Load(n); ok {
		return v.([]float64)
	}
	c := make([]float64, n*n)
	for k := 0; k < n; k++ {
		a := math.Sqrt(2 / float64(n))
		if k == 0 {
			a = math.Sqrt(1 / float64(n))
		}
		for i := 0; i < n; i++ {
			c[k*n+i] = a * math.Cos(float64(2*i+1)*float64(k)*math.Pi/float64(2*n))
		}
	}
	v, _ := basisCache.LoadOrStore(n, c)
	return v.([]float64)
}

// DCT2 computes the separable 2-D DCT-II of an n×n row-major block: C·X·Cᵀ.
func DCT2(in []float64, n int) []float64 {
	c := basis(n)
	tmp := make([]float64, n*n)
	// rows: tmp = X·Cᵀ
	for y := 0; y < n; y++ {
		for k := 0; k < n; k++ {
			var s float64
			for i := 0; i < n; i++ {
				s += in[y*n+i] * c[k*n+i]
			}
			tmp[y*n+k] = s
		}
	}
	out := make([]float64, n*n)
	// columns: out = C·tmp
	for k := 0; k < n; k++ {
		for x := 0; x < n; x++ {
			var s float64
			for i := 0; i < n; i++ {
				s += c[k*n+i] * tmp[i*n+x]
			}
			out[k*n+x] = s
		}
	}
	return out
}

// IDCT2 inverts DCT2: Cᵀ·Y·C.
func IDCT2(in []float64, n int) []float64 {
	c := basis(n)
	tmp := make([]float64, n*n)
	for y := 0; y < n; y++ {
		for i := 0; i < n; i++ {
			var s float64
			for k := 0; k < n; k++ {
				s += in[y*n+k] * c[k*n+i]
			}
			tmp[y*n+i] = s
		}
	}
	out := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for x := 0; x < n; x++ {
			var s float64
			for k := 0; k < n; k++ {
				s += c[k*n+i] * tmp[k*n+x]
			}
			out[i*n+x] = s
		}
	}
	return out
}
