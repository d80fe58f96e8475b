package ports

import (
	"github.com/user/gopcodec/pkg/bitstream"
)

// Container wraps a packed bit buffer in a file format and unwraps it.
type Container interface {
	// Mux stores every frame payload of buf as one sample described by md.
	Mux(buf []byte, md bitstream.Metadata) ([]byte, error)

	// Demux recovers the packed bit buffer. The sample count must match md.
	Demux(data []byte, md bitstream.Metadata) ([]byte, error)
}

// MetadataStore persists the metadata sidecar.
type MetadataStore interface {
	Save(path string, md bitstream.Metadata) error
	Load(path string) (bitstream.Metadata, error)
}
