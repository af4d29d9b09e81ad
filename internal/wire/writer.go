package wire

import "encoding/binary"

// Writer encodes the little-endian, byte-exact structures used by this
// protocol into a growing byte slice.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer with capacity hint size.
func NewWriter(size int) *Writer {
	return &Writer{buf: make([]byte, 0, size)}
}

// Bytes returns the accumulated encoded bytes.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Pad appends n zero bytes (used for reserved/gap fields).
func (w *Writer) Pad(n int) {
	for i := 0; i < n; i++ {
		w.buf = append(w.buf, 0)
	}
}

// PadTo appends zero bytes until Len() == size. It is a no-op if the
// writer already holds at least size bytes.
func (w *Writer) PadTo(size int) {
	if d := size - w.Len(); d > 0 {
		w.Pad(d)
	}
}

// Uint8 appends a single byte.
func (w *Writer) Uint8(v uint8) {
	w.buf = append(w.buf, v)
}

// Uint16 appends a little-endian uint16.
func (w *Writer) Uint16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// Uint32 appends a little-endian uint32.
func (w *Writer) Uint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// Uint64 appends a little-endian uint64.
func (w *Writer) Uint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// Raw appends bytes verbatim.
func (w *Writer) Raw(b []byte) {
	w.buf = append(w.buf, b...)
}

// FixedString encodes the S<N> primitive: writes the string's bytes,
// zero-padded to exactly n bytes, truncating if the string is longer.
func (w *Writer) FixedString(s string, n int) {
	b := []byte(s)
	if len(b) > n {
		b = b[:n]
	}
	w.buf = append(w.buf, b...)
	w.Pad(n - len(b))
}

// UUID encodes the raw 16-byte UUID primitive.
func (w *Writer) UUID(u [16]byte) {
	w.buf = append(w.buf, u[:]...)
}
