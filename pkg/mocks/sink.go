package mocks

import (
	"image"
	"sync"

	"github.com/user/gopcodec/pkg/ports"
)

// DebugSink records everything it is given.
type DebugSink struct {
	mu sync.Mutex

	enabled bool

	MetadataJSON        []byte
	ReconstructedFrames map[int]image.Image
	MotionFields        map[int]image.Image
}

var _ ports.DebugSink = (*DebugSink)(nil)

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled:             enabled,
		ReconstructedFrames: make(map[int]image.Image),
		MotionFields:        make(map[int]image.Image),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SaveMetadataJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MetadataJSON = data
	return nil
}

func (m *DebugSink) SaveReconstructedFrame(number int, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReconstructedFrames[number] = img
	return nil
}

func (m *DebugSink) SaveMotionField(number int, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MotionFields[number] = img
	return nil
}
