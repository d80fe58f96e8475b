package motion

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/user/gopcodec/pkg/codecerr"
	"github.com/user/gopcodec/pkg/frame"
)

// pattern draws a frame whose content is unique per position so that a
// shifted copy has exactly one zero-SSD match.
func pattern(w, h int) frame.Frame {
	f := frame.New(w, h, 3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			f.Set(x, y, 0, uint8((x*7+y*13)%256))
			f.Set(x, y, 1, uint8((x*x+y*3)%256))
			f.Set(x, y, 2, uint8((x*y+11)%256))
		}
	}
	return f
}

// shift returns f moved by (dx, dy): out(x, y) = f(x-dx, y-dy), with edge clamping.
func shift(f frame.Frame, dx, dy int) frame.Frame {
	out := frame.New(f.Width, f.Height, f.Channels)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			sx := clamp(x-dx, 0, f.Width-1)
			sy := clamp(y-dy, 0, f.Height-1)
			for c := 0; c < f.Channels; c++ {
				out.Set(x, y, c, f.At(sx, sy, c))
			}
		}
	}
	return out
}

func TestEstimate_IdenticalFramesAreZero(t *testing.T) {
	ref := frame.Solid(32, 32, 40, 80, 120)
	vectors, err := Estimate(ref, ref.Clone(), 8, 4)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if len(vectors) != 16 {
		t.Fatalf("expected 16 vectors, got %d", len(vectors))
	}
	for i, v := range vectors {
		if v != Zero {
			t.Errorf("vector %d = %v, want (0,0)", i, v)
		}
	}
}

func TestEstimate_TiesKeepEarliestCandidate(t *testing.T) {
	// One dark reference pixel at x=15 spoils every window that covers it.
	ref := frame.Solid(24, 8, 100)
	ref.Set(15, 0, 0, 0)
	target := frame.Solid(24, 8, 100)
	target.Set(8, 0, 0, 50)
	target.Set(23, 0, 0, 50)

	vectors, err := Estimate(ref, target, 8, 3)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	// Block 1: windows starting at x=5, 6 and 7 all cost 50², so the first
	// one scanned (dy=-3, dx=-3, clamped vertically) is kept. Block 2: the
	// clamped candidates equal the zero vector's cost and do not replace it.
	want := []Vector{Zero, {DX: -3, DY: 0}, Zero}
	if diff := cmp.Diff(want, vectors); diff != "" {
		t.Errorf("vectors mismatch (-want +got):\n%s", diff)
	}
}

func TestEstimate_FindsKnownShift(t *testing.T) {
	ref := pattern(32, 32)
	target := shift(ref, 2, -1)

	vectors, err := Estimate(ref, target, 8, 3)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	// Interior block (1,1) sees the content that came from (x-2, y+1).
	got := vectors[1*4+1]
	if got != (Vector{DX: -2, DY: 1}) {
		t.Errorf("interior vector = %v, want (-2,1)", got)
	}
	for i, v := range vectors {
		row, col := i/4, i%4
		if mb := Compensate(ref, row, col, 8, v); mb.X() != col*8 || mb.Y() != row*8 {
			t.Errorf("compensated block %d placed at (%d,%d)", i, mb.X(), mb.Y())
		}
	}
}

func TestEstimate_VectorsStayInBounds(t *testing.T) {
	ref := pattern(24, 16)
	target := shift(ref, 5, 5)
	vectors, err := Estimate(ref, target, 8, 7)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	cols := 3
	for i, v := range vectors {
		x := (i%cols)*8 + v.DX
		y := (i/cols)*8 + v.DY
		if x < 0 || y < 0 || x+8 > ref.Width || y+8 > ref.Height {
			t.Errorf("vector %d = %v points outside the frame", i, v)
		}
		if v.DX < -7 || v.DX > 7 || v.DY < -7 || v.DY > 7 {
			t.Errorf("vector %d = %v exceeds search range", i, v)
		}
	}
}

func TestEstimate_ZeroSearchRange(t *testing.T) {
	ref := pattern(16, 16)
	vectors, err := Estimate(ref, shift(ref, 1, 1), 8, 0)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	for i, v := range vectors {
		if v != Zero {
			t.Errorf("vector %d = %v, want (0,0) with zero search range", i, v)
		}
	}
}

func TestEstimate_Errors(t *testing.T) {
	ref := pattern(16, 16)

	_, err := Estimate(ref, pattern(16, 8), 8, 2)
	var shapeErr *codecerr.ShapeError
	if !errors.As(err, &shapeErr) {
		t.Errorf("geometry mismatch: expected ShapeError, got %v", err)
	}

	_, err = Estimate(ref, ref, 8, -1)
	var cfgErr *codecerr.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("negative search range: expected ConfigError, got %v", err)
	}

	_, err = Estimate(ref, ref, 0, 1)
	if !errors.As(err, &cfgErr) {
		t.Errorf("zero block size: expected ConfigError, got %v", err)
	}
}

func TestCompensate_ClampsWindow(t *testing.T) {
	ref := pattern(16, 16)
	mb := Compensate(ref, 1, 1, 8, Vector{DX: 100, DY: -100})
	want := Compensate(ref, 1, 1, 8, Vector{DX: 0, DY: -8})
	if diff := cmp.Diff(want.Pix, mb.Pix); diff != "" {
		t.Errorf("clamped window mismatch (-want +got):\n%s", diff)
	}
	if mb.Row != 1 || mb.Col != 1 {
		t.Errorf("block position = (%d,%d), want (1,1)", mb.Row, mb.Col)
	}
}

func TestVector_JSON(t *testing.T) {
	data, err := json.Marshal([]Vector{{DX: -3, DY: 2}, Zero})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != "[[-3,2],[0,0]]" {
		t.Errorf("json = %s", data)
	}
	var back []Vector
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff([]Vector{{DX: -3, DY: 2}, Zero}, back); diff != "" {
		t.Errorf("vectors mismatch (-want +got):\n%s", diff)
	}
	if err := json.Unmarshal([]byte(`"x"`), &back[0]); err == nil {
		t.Error("expected error for non-array vector")
	}
}
