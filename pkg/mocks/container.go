package mocks

import (
	"github.com/user/gopcodec/pkg/bitstream"
	"github.com/user/gopcodec/pkg/ports"
)

// Container passes buffers through unchanged and records calls.
type Container struct {
	MuxCalls   int
	DemuxCalls int
	MuxErr     error
	DemuxErr   error
}

var _ ports.Container = (*Container)(nil)

func (m *Container) Mux(buf []byte, md bitstream.Metadata) ([]byte, error) {
	m.MuxCalls++
	if m.MuxErr != nil {
		return nil, m.MuxErr
	}
	return append([]byte(nil), buf...), nil
}

func (m *Container) Demux(data []byte, md bitstream.Metadata) ([]byte, error) {
	m.DemuxCalls++
	if m.DemuxErr != nil {
		return nil, m.DemuxErr
	}
	return append([]byte(nil), data...), nil
}

// MetadataStore keeps metadata in memory, keyed by path.
type MetadataStore struct {
	Saved map[string]bitstream.Metadata
}

var _ ports.MetadataStore = (*MetadataStore)(nil)

// NewMetadataStore creates an empty store.
func NewMetadataStore() *MetadataStore {
	return &MetadataStore{Saved: make(map[string]bitstream.Metadata)}
}

func (m *MetadataStore) Save(path string, md bitstream.Metadata) error {
	m.Saved[path] = md
	return nil
}

func (m *MetadataStore) Load(path string) (bitstream.Metadata, error) {
	md, ok := m.Saved[path]
	if !ok {
		return bitstream.Metadata{}, errNotFound(path)
	}
	return md, nil
}

type errNotFound string

func (e errNotFound) Error() string { return "metadata not found: " + string(e) }
