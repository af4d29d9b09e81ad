// Package wire implements the fixed-size, little-endian codec primitives
// the NVMe-MI and NVMe Base wire structures are built from: fixed-length
// strings, raw UUIDs, bounded vectors, and bit-flag sets that reject
// undefined bits on decode. Every multi-byte integer on the wire is
// little-endian; field positions are absolute offsets from the start of
// the enclosing structure.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Reader decodes the little-endian, byte-exact structures used by this
// protocol. Unlike an XDR reader it does not track or enforce alignment
// padding — every field here occupies exactly its declared width.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps buf for sequential little-endian decoding.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return len(r.buf) - r.pos
}

// Remaining returns the unread tail of the buffer without consuming it.
func (r *Reader) Remaining() []byte {
	return r.buf[r.pos:]
}

func (r *Reader) take(n int) ([]byte, error) {
	if r.Len() < n {
		return nil, fmt.Errorf("wire: short read: need %d bytes, have %d: %w", n, r.Len(), io.ErrUnexpectedEOF)
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Skip discards n bytes (used for reserved/gap fields).
func (r *Reader) Skip(n int) error {
	_, err := r.take(n)
	return err
}

// Uint8 reads a single byte.
func (r *Reader) Uint8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, fmt.Errorf("read uint8: %w", err)
	}
	return b[0], nil
}

// Uint16 reads a little-endian uint16.
func (r *Reader) Uint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, fmt.Errorf("read uint16: %w", err)
	}
	return binary.LittleEndian.Uint16(b), nil
}

// Uint32 reads a little-endian uint32.
func (r *Reader) Uint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, fmt.Errorf("read uint32: %w", err)
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Uint64 reads a little-endian uint64.
func (r *Reader) Uint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, fmt.Errorf("read uint64: %w", err)
	}
	return binary.LittleEndian.Uint64(b), nil
}

// Bytes reads exactly n raw bytes.
func (r *Reader) Bytes(n int) ([]byte, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, fmt.Errorf("read %d bytes: %w", n, err)
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// FixedString decodes the S<N> primitive: reads exactly n bytes verbatim
// and trims trailing NUL padding from the returned string.
func (r *Reader) FixedString(n int) (string, error) {
	b, err := r.take(n)
	if err != nil {
		return "", fmt.Errorf("read fixed string[%d]: %w", n, err)
	}
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return string(b[:end]), nil
}

// UUID decodes the raw 16-byte UUID primitive (not hyphenated text).
func (r *Reader) UUID() ([16]byte, error) {
	var u [16]byte
	b, err := r.take(16)
	if err != nil {
		return u, fmt.Errorf("read uuid: %w", err)
	}
	copy(u[:], b)
	return u, nil
}
