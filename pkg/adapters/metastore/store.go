// Package metastore reads and writes the metadata sidecar of a stream.
//
// The sidecar is indented JSON. Paths ending in ".zst" are zstd-compressed.
package metastore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/user/gopcodec/pkg/bitstream"
	"github.com/user/gopcodec/pkg/codecerr"
	"github.com/user/gopcodec/pkg/ports"
)

// CompressedSuffix marks a zstd-compressed sidecar.
const CompressedSuffix = ".zst"

// Store implements ports.MetadataStore on a FileSystem.
type Store struct {
	fs ports.FileSystem
}

var _ ports.MetadataStore = (*Store)(nil)

// New creates a new Store.
func New(fs ports.FileSystem) *Store {
	return &Store{fs: fs}
}

// Save writes md to path.
func (s *Store) Save(path string, md bitstream.Metadata) error {
	data, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if compressed(path) {
		if data, err = compress(data); err != nil {
			return fmt.Errorf("compress metadata: %w", err)
		}
	}
	if err := s.fs.WriteFile(path, data); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// Load reads and validates the sidecar at path. Malformed content is
// reported as a FormatError.
func (s *Store) Load(path string) (bitstream.Metadata, error) {
	data, err := s.fs.ReadFile(path)
	if err != nil {
		return bitstream.Metadata{}, fmt.Errorf("read metadata: %w", err)
	}
	if compressed(path) {
		if data, err = decompress(data); err != nil {
			return bitstream.Metadata{}, codecerr.Format("load metadata", "decompress %s: %v", path, err)
		}
	}

	var md bitstream.Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		var fe *codecerr.FormatError
		var de *codecerr.DecodeError
		if errors.As(err, &fe) || errors.As(err, &de) {
			return bitstream.Metadata{}, err
		}
		return bitstream.Metadata{}, codecerr.Format("load metadata", "parse %s: %v", path, err)
	}
	return md, nil
}

func compressed(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), CompressedSuffix)
}

func compress(raw []byte) ([]byte, error) {
	var b bytes.Buffer
	enc, err := zstd.NewWriter(&b, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return nil, err
	}
	if _, err := enc.Write(raw); err != nil {
		enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return io.ReadAll(dec)
}
