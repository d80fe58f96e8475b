package codec

import (
	"fmt"

	"github.com/user/gopcodec/pkg/bitstream"
	"github.com/user/gopcodec/pkg/gop"
)

// PlaybackMode selects which frames are shown and in what order.
type PlaybackMode int

const (
	// PlaybackNormal shows every frame in order.
	PlaybackNormal PlaybackMode = iota
	// PlaybackFastForward shows every frame except B-frames, in order.
	PlaybackFastForward
	// PlaybackReverse shows every frame from last to first.
	PlaybackReverse
)

func (m PlaybackMode) String() string {
	switch m {
	case PlaybackNormal:
		return "normal"
	case PlaybackFastForward:
		return "fast-forward"
	case PlaybackReverse:
		return "reverse"
	default:
		return "unknown"
	}
}

// ParsePlaybackMode parses a mode name as printed by String.
func ParsePlaybackMode(s string) (PlaybackMode, error) {
	for _, m := range []PlaybackMode{PlaybackNormal, PlaybackFastForward, PlaybackReverse} {
		if m.String() == s {
			return m, nil
		}
	}
	return PlaybackNormal, fmt.Errorf("unknown playback mode %q", s)
}

// PlaybackOrder returns the frame numbers to show for mode.
func PlaybackOrder(md bitstream.Metadata, mode PlaybackMode) []int {
	numbers := make([]int, 0, len(md.Frames))
	for _, rec := range md.Frames {
		h := rec.Header()
		if mode == PlaybackFastForward && h.Type == gop.Bidirectional {
			continue
		}
		numbers = append(numbers, h.Number)
	}
	if mode == PlaybackReverse {
		for i, j := 0, len(numbers)-1; i < j; i, j = i+1, j-1 {
			numbers[i], numbers[j] = numbers[j], numbers[i]
		}
	}
	return numbers
}
