package zen

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Buffer is a bounded cursor over archive bytes. Slices and duplicates share
// the underlying storage but carry independent cursors; the storage itself is
// never written, so views cannot invalidate one another.
type Buffer struct {
	data []byte
	pos  int
}

// NewBuffer wraps data in a Buffer positioned at the start. The buffer takes
// no ownership; callers must not mutate data while views exist.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{data: data}
}

// Position returns the cursor offset from the start of this view.
func (b *Buffer) Position() int {
	return b.pos
}

// Remaining returns the number of unread bytes in this view.
func (b *Buffer) Remaining() int {
	return len(b.data) - b.pos
}

// Seek moves the cursor to an absolute offset within this view.
func (b *Buffer) Seek(pos int) error {
	if pos < 0 || pos > len(b.data) {
		return fmt.Errorf("seek to %d outside buffer of %d bytes: %w", pos, len(b.data), ErrEOF)
	}
	b.pos = pos
	return nil
}

// Skip advances the cursor by n bytes.
func (b *Buffer) Skip(n int) error {
	if n < 0 || b.pos+n > len(b.data) {
		return fmt.Errorf("skip %d at offset %d of %d: %w", n, b.pos, len(b.data), ErrEOF)
	}
	b.pos += n
	return nil
}

// Slice returns an independent view over the bytes from the current position
// to the end. The parent cursor is unaffected.
func (b *Buffer) Slice() *Buffer {
	return &Buffer{data: b.data[b.pos:]}
}

// Dup returns an independent cursor over the same view, positioned where the
// receiver currently is.
func (b *Buffer) Dup() *Buffer {
	return &Buffer{data: b.data, pos: b.pos}
}

// ReadBytes returns the next n bytes. The returned slice aliases the
// underlying storage.
func (b *Buffer) ReadBytes(n int) ([]byte, error) {
	if n < 0 || b.pos+n > len(b.data) {
		return nil, fmt.Errorf("read %d bytes at offset %d of %d: %w", n, b.pos, len(b.data), ErrEOF)
	}
	out := b.data[b.pos : b.pos+n]
	b.pos += n
	return out, nil
}

func (b *Buffer) ReadU8() (uint8, error) {
	p, err := b.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

func (b *Buffer) ReadU16() (uint16, error) {
	p, err := b.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(p), nil
}

func (b *Buffer) ReadI16() (int16, error) {
	v, err := b.ReadU16()
	return int16(v), err
}

func (b *Buffer) ReadU32() (uint32, error) {
	p, err := b.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(p), nil
}

func (b *Buffer) ReadI32() (int32, error) {
	v, err := b.ReadU32()
	return int32(v), err
}

func (b *Buffer) ReadF32() (float32, error) {
	v, err := b.ReadU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadLine reads bytes up to and including the next '\n' and returns the line
// without its terminator. Archives terminate every line, so running out of
// bytes before a '\n' is an EOF and the cursor is left unmoved.
func (b *Buffer) ReadLine() (string, error) {
	end := b.pos
	for end < len(b.data) && b.data[end] != '\n' {
		end++
	}
	if end == len(b.data) {
		return "", fmt.Errorf("unterminated line at offset %d of %d: %w", b.pos, len(b.data), ErrEOF)
	}
	line := string(b.data[b.pos:end])
	b.pos = end + 1
	return strings.TrimSuffix(line, "\r"), nil
}
