package transform

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/user/gopcodec/pkg/codecerr"
)

func testPlane(n int) []int {
	plane := make([]int, n*n)
	for i := range plane {
		x, y := i%n, i/n
		plane[i] = (x*37 + y*53 + (x*y)%7*11) % 256
	}
	return plane
}

func maxAbsErr(a, b []int) int {
	m := 0
	for i := range a {
		d := a[i] - b[i]
		if d < 0 {
			d = -d
		}
		if d > m {
			m = d
		}
	}
	return m
}

func TestDCT_Orthonormal(t *testing.T) {
	for _, n := range []int{1, 2, 4, 8, 16} {
		in := make([]float64, n*n)
		for i := range in {
			in[i] = float64((i*13)%17) / 17
		}
		out := IDCT2(DCT2(in, n), n)
		for i := range in {
			if math.Abs(in[i]-out[i]) > 1e-9 {
				t.Fatalf("n=%d: sample %d = %f, want %f", n, i, out[i], in[i])
			}
		}
	}
}

func TestDCT_ConstantBlockHasOnlyDC(t *testing.T) {
	n := 8
	in := make([]float64, n*n)
	for i := range in {
		in[i] = 0.5
	}
	out := DCT2(in, n)
	if math.Abs(out[0]-0.5*float64(n)) > 1e-9 {
		t.Errorf("DC = %f, want %f", out[0], 0.5*float64(n))
	}
	for i := 1; i < len(out); i++ {
		if math.Abs(out[i]) > 1e-9 {
			t.Errorf("AC coefficient %d = %g, want 0", i, out[i])
		}
	}
}

func TestFactor_MonotonicDecreasing(t *testing.T) {
	prev := math.Inf(1)
	for q := 0; q <= 100; q++ {
		f := Factor(q)
		if f <= 0 {
			t.Fatalf("Factor(%d) = %g, want > 0", q, f)
		}
		if f >= prev {
			t.Fatalf("Factor(%d) = %g is not smaller than Factor(%d) = %g", q, f, q-1, prev)
		}
		prev = f
	}
	if Factor(150) != Factor(100) || Factor(-3) != Factor(0) {
		t.Error("quality outside [0,100] must be clamped")
	}
}

func TestRoundTrip_Quality100WithinOneStep(t *testing.T) {
	for _, n := range []int{4, 8, 16} {
		plane := testPlane(n)
		got := Inverse(Forward(plane, n, 100), n, 100, SampleMin, SampleMax)
		if e := float64(maxAbsErr(plane, got)); e > Step(100) {
			t.Errorf("n=%d: max error %v exceeds one step %v", n, e, Step(100))
		}
	}
}

func TestRoundTrip_ErrorWithinBound(t *testing.T) {
	n := 8
	plane := testPlane(n)
	prevBound := 0.0
	for _, q := range []int{100, 90, 75, 50, 25, 10, 0} {
		got := Inverse(Forward(plane, n, q), n, q, SampleMin, SampleMax)
		bound := ErrorBound(q, n)
		if e := float64(maxAbsErr(plane, got)); e > bound {
			t.Errorf("q=%d: max error %v exceeds bound %v", q, e, bound)
		}
		if bound < prevBound {
			t.Errorf("q=%d: bound %v decreased from %v", q, bound, prevBound)
		}
		prevBound = bound
	}
}

func TestQualitySweep_StepAndBoundNeverShrinkAsQualityDrops(t *testing.T) {
	plane := testPlane(8)
	for _, n := range []int{1, 4, 8, 16} {
		prevStep, prevBound := 0.0, 0.0
		for q := 100; q >= 0; q-- {
			step, bound := Step(q), ErrorBound(q, n)
			if step < prevStep {
				t.Errorf("n=%d q=%d: step %v is below %v at q=%d", n, q, step, prevStep, q+1)
			}
			if bound < prevBound {
				t.Errorf("n=%d q=%d: bound %v is below %v at q=%d", n, q, bound, prevBound, q+1)
			}
			prevStep, prevBound = step, bound
		}
	}
	for q := 0; q <= 100; q++ {
		got := Inverse(Forward(plane, 8, q), 8, q, SampleMin, SampleMax)
		if e := float64(maxAbsErr(plane, got)); e > ErrorBound(q, 8) {
			t.Errorf("q=%d: max error %v exceeds bound %v", q, e, ErrorBound(q, 8))
		}
	}
}

// Observed error is only bounded per quality, not monotone step by step,
// since rounding can favor a coarser step on a given plane. The extremes
// are far enough apart to compare directly.
func TestRoundTrip_ErrorGrowsAsQualityDrops(t *testing.T) {
	n := 8
	plane := testPlane(n)
	high := maxAbsErr(plane, Inverse(Forward(plane, n, 100), n, 100, SampleMin, SampleMax))
	low := maxAbsErr(plane, Inverse(Forward(plane, n, 0), n, 0, SampleMin, SampleMax))
	if low < high {
		t.Errorf("error at q=0 (%d) is smaller than at q=100 (%d)", low, high)
	}
}

func TestRoundTrip_Residual(t *testing.T) {
	n := 4
	plane := []int{
		-255, -100, 0, 100,
		255, 12, -12, 7,
		-1, 1, -2, 2,
		50, -50, 60, -60,
	}
	got := Inverse(Forward(plane, n, 100), n, 100, ResidualMin, ResidualMax)
	if e := float64(maxAbsErr(plane, got)); e > Step(100) {
		t.Errorf("residual max error %v exceeds one step %v", e, Step(100))
	}
}

func TestInverse_Clips(t *testing.T) {
	n := 2
	coeffs := []int{1 << 20, 0, 0, 0}
	got := Inverse(coeffs, n, 50, SampleMin, SampleMax)
	for _, v := range got {
		if v != SampleMax {
			t.Errorf("sample %d not clipped to %d", v, SampleMax)
		}
	}
}

func TestCoefficients_RoundTrip(t *testing.T) {
	coeffs := []int{0, 1, -1, 63, -64, 64, 65536, -65536, 0, 0}
	buf := AppendCoefficients(nil, coeffs)
	buf = AppendCoefficients(buf, []int{42})

	got, k, err := ReadCoefficients(buf, len(coeffs))
	if err != nil {
		t.Fatalf("ReadCoefficients: %v", err)
	}
	if diff := cmp.Diff(coeffs, got); diff != "" {
		t.Errorf("coefficients mismatch (-want +got):\n%s", diff)
	}
	rest, _, err := ReadCoefficients(buf[k:], 1)
	if err != nil || rest[0] != 42 {
		t.Errorf("expected trailing coefficient 42, got %v (%v)", rest, err)
	}
}

func TestCoefficients_Truncated(t *testing.T) {
	buf := AppendCoefficients(nil, []int{1, 2})
	_, _, err := ReadCoefficients(buf, 3)
	var decErr *codecerr.DecodeError
	if !errors.As(err, &decErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
}
