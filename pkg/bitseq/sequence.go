// Package bitseq provides exact-length bit strings.
//
// A Sequence remembers its precise bit length even though it is stored
// as MSB-first packed bytes; the unused low bits of the last byte are zero.
package bitseq

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/Eyevinn/mp4ff/bits"
)

// Sequence is an immutable bit string.
type Sequence struct {
	data []byte
	n    int
}

// FromBytes returns the first n bits of data as a Sequence.
func FromBytes(data []byte, n int) (Sequence, error) {
	if n < 0 || n > len(data)*8 {
		return Sequence{}, fmt.Errorf("bit length %d out of range for %d bytes", n, len(data))
	}
	nb := (n + 7) / 8
	buf := make([]byte, nb)
	copy(buf, data[:nb])
	if rem := n % 8; rem != 0 {
		buf[nb-1] &= byte(0xFF << (8 - rem))
	}
	return Sequence{data: buf, n: n}, nil
}

// FromString parses a string of '0' and '1' characters.
func FromString(s string) (Sequence, error) {
	b := NewBuilder()
	if err := b.WriteCode(s); err != nil {
		return Sequence{}, err
	}
	return b.Sequence()
}

// MustFromString is like FromString but panics on malformed input.
func MustFromString(s string) Sequence {
	seq, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return seq
}

// Len returns the exact number of bits.
func (s Sequence) Len() int {
	return s.n
}

// Bit returns bit i (0 or 1).
func (s Sequence) Bit(i int) uint {
	return uint(s.data[i/8]>>(7-uint(i%8))) & 1
}

// PaddedLen returns the length rounded up to a whole number of bytes.
func (s Sequence) PaddedLen() int {
	return (s.n + 7) / 8 * 8
}

// Bytes returns the bits packed MSB-first, zero-padded to a byte boundary.
func (s Sequence) Bytes() []byte {
	return append([]byte(nil), s.data...)
}

// Slice returns bits [start, end).
func (s Sequence) Slice(start, end int) (Sequence, error) {
	if start < 0 || end < start || end > s.n {
		return Sequence{}, fmt.Errorf("slice [%d:%d] out of range for %d bits", start, end, s.n)
	}
	if start%8 == 0 {
		return FromBytes(s.data[start/8:], end-start)
	}

	r := bits.NewReader(bytes.NewReader(s.data))
	skip := start
	for skip > 0 {
		k := min(skip, 32)
		r.Read(k)
		skip -= k
	}
	b := NewBuilder()
	left := end - start
	for left > 0 {
		k := min(left, 32)
		b.Write(r.Read(k), k)
		left -= k
	}
	if err := r.AccError(); err != nil {
		return Sequence{}, fmt.Errorf("read bits: %w", err)
	}
	return b.Sequence()
}

// Equal reports whether both sequences hold the same bits.
func (s Sequence) Equal(o Sequence) bool {
	return s.n == o.n && bytes.Equal(s.data, o.data)
}

// String renders the sequence as '0'/'1' characters.
func (s Sequence) String() string {
	var sb strings.Builder
	sb.Grow(s.n)
	for i := 0; i < s.n; i++ {
		if s.Bit(i) == 1 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
