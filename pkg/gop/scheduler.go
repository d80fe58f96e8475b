// Package gop assigns frame types and references within groups of pictures.
package gop

import (
	"encoding/json"
	"fmt"

	"github.com/user/gopcodec/pkg/codecerr"
)

// FrameType is the coding type of a frame.
type FrameType string

const (
	// Intra frames are coded on their own.
	Intra FrameType = "I"
	// Predicted frames are coded as a residual against the GOP's I-frame.
	Predicted FrameType = "P"
	// Bidirectional frames are coded like P-frames against the same single reference.
	Bidirectional FrameType = "B"
)

// ParseFrameType validates a frame type string.
func ParseFrameType(s string) (FrameType, error) {
	switch t := FrameType(s); t {
	case Intra, Predicted, Bidirectional:
		return t, nil
	default:
		return "", codecerr.Decode("frame type", "unknown frame type %q", s)
	}
}

// UnmarshalJSON rejects unknown frame types.
func (t *FrameType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("frame type: %w", err)
	}
	ft, err := ParseFrameType(s)
	if err != nil {
		return err
	}
	*t = ft
	return nil
}

// Scheduler decides frame types from the GOP size and B-frame interval.
type Scheduler struct {
	GOPSize        int
	BFrameInterval int
}

// Assignment describes how one frame is coded.
type Assignment struct {
	// Number is the 1-based frame number.
	Number int
	Type   FrameType
	// Reference is the number of the GOP's I-frame, or 0 for I-frames.
	Reference int
	GOPIndex  int
	// Position is the 0-based index within the GOP.
	Position int
}

// NewScheduler validates the parameters.
func NewScheduler(gopSize, bFrameInterval int) (Scheduler, error) {
	if gopSize < 1 {
		return Scheduler{}, codecerr.Config("gop_size", "must be >= 1, got %d", gopSize)
	}
	if bFrameInterval < 0 {
		return Scheduler{}, codecerr.Config("b_frame_interval", "must be >= 0, got %d", bFrameInterval)
	}
	return Scheduler{GOPSize: gopSize, BFrameInterval: bFrameInterval}, nil
}

// TypeAt returns the type of the frame at 0-based position j within a GOP.
func (s Scheduler) TypeAt(j int) FrameType {
	switch {
	case j == 0:
		return Intra
	case j%(s.BFrameInterval+1) == 0:
		return Predicted
	default:
		return Bidirectional
	}
}

// Assign returns the assignment for the frame at 0-based sequence index i.
func (s Scheduler) Assign(i int) Assignment {
	g, j := i/s.GOPSize, i%s.GOPSize
	a := Assignment{
		Number:   i + 1,
		Type:     s.TypeAt(j),
		GOPIndex: g,
		Position: j,
	}
	if a.Type != Intra {
		a.Reference = g*s.GOPSize + 1
	}
	return a
}

// Types returns the frame types of an n-frame sequence.
func (s Scheduler) Types(n int) []FrameType {
	types := make([]FrameType, n)
	for i := range types {
		types[i] = s.TypeAt(i % s.GOPSize)
	}
	return types
}

// GOPs returns the [start, end) 0-based index ranges of the GOPs covering
// an n-frame sequence. The last GOP may be short.
func (s Scheduler) GOPs(n int) [][2]int {
	var out [][2]int
	for start := 0; start < n; start += s.GOPSize {
		out = append(out, [2]int{start, min(start+s.GOPSize, n)})
	}
	return out
}

// IntraNumber returns the number of the I-frame that starts the GOP
// containing frame number.
func (s Scheduler) IntraNumber(number int) int {
	return (number-1)/s.GOPSize*s.GOPSize + 1
}
