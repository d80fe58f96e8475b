package bitseq

import (
	"bytes"
	"fmt"

	"github.com/Eyevinn/mp4ff/bits"
)

// maxChunk bounds a single write so the accumulator never overflows.
const maxChunk = 32

// Builder appends bits and produces a Sequence.
// A Builder must not be used after Sequence has been called.
type Builder struct {
	buf  bytes.Buffer
	w    *bits.Writer
	n    int
	done bool
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	b := &Builder{}
	b.w = bits.NewWriter(&b.buf)
	return b
}

// Len returns the number of bits written so far.
func (b *Builder) Len() int {
	return b.n
}

// Write appends the n low bits of v, most significant first.
func (b *Builder) Write(v uint, n int) {
	for n > maxChunk {
		n -= maxChunk
		b.w.Write((v>>uint(n))&(1<<maxChunk-1), maxChunk)
		b.n += maxChunk
	}
	if n <= 0 {
		return
	}
	b.w.Write(v&(1<<uint(n)-1), n)
	b.n += n
}

// WriteCode appends a code given as '0'/'1' characters.
func (b *Builder) WriteCode(code string) error {
	var acc uint
	k := 0
	for i := 0; i < len(code); i++ {
		acc <<= 1
		switch code[i] {
		case '0':
		case '1':
			acc |= 1
		default:
			return fmt.Errorf("invalid bit character %q at %d", code[i], i)
		}
		k++
		if k == maxChunk {
			b.Write(acc, k)
			acc, k = 0, 0
		}
	}
	b.Write(acc, k)
	return nil
}

// WriteSequence appends all bits of s.
func (b *Builder) WriteSequence(s Sequence) {
	full := s.n / 8
	for _, c := range s.data[:full] {
		b.Write(uint(c), 8)
	}
	if rem := s.n % 8; rem != 0 {
		b.Write(uint(s.data[full]>>(8-uint(rem))), rem)
	}
}

// AlignByte appends zero bits up to the next byte boundary.
func (b *Builder) AlignByte() {
	if rem := b.n % 8; rem != 0 {
		b.Write(0, 8-rem)
	}
}

// Sequence flushes pending bits and returns the result.
func (b *Builder) Sequence() (Sequence, error) {
	if b.done {
		return Sequence{}, fmt.Errorf("builder already finalized")
	}
	b.done = true
	b.w.Flush()
	if err := b.w.AccError(); err != nil {
		return Sequence{}, fmt.Errorf("write bits: %w", err)
	}
	return Sequence{data: b.buf.Bytes(), n: b.n}, nil
}
