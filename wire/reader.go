package wire

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"unicode/utf8"
)

// Reader is a cursor over a byte buffer. Every read advances the offset by
// the consumed length or fails with an underrun error; a failed read leaves
// the offset unchanged.
//
// A Reader is single-owner and must not be shared across goroutines.
type Reader struct {
	buf []byte
	off int
}

func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// Offset returns the current cursor position.
func (r *Reader) Offset() int { return r.off }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.off }

// ExpectEOF fails if unread bytes remain.
func (r *Reader) ExpectEOF() error {
	if n := r.Remaining(); n != 0 {
		return NewError(KindFormat, "VDXF-FMT-003", fmt.Sprintf("%d trailing bytes after record", n))
	}
	return nil
}

// ReadSlice returns the next n bytes. The result aliases the underlying
// buffer; callers that retain it past the buffer's lifetime must copy.
func (r *Reader) ReadSlice(n int) ([]byte, error) {
	if n < 0 || n > r.Remaining() {
		return nil, underrun("slice", n, r.Remaining())
	}
	b := r.buf[r.off : r.off+n : r.off+n]
	r.off += n
	return b, nil
}

// ReadFixed returns a copy of the next n bytes.
func (r *Reader) ReadFixed(n int) ([]byte, error) {
	b, err := r.ReadSlice(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

func (r *Reader) ReadUint8() (uint8, error) {
	b, err := r.ReadSlice(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) ReadUint16() (uint16, error) {
	b, err := r.ReadSlice(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.ReadSlice(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) ReadUint64() (uint64, error) {
	b, err := r.ReadSlice(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()
	return int64(v), err
}

func (r *Reader) ReadCompactSize() (uint64, error) {
	n, size, err := DecodeCompactSize(r.buf[r.off:])
	if err != nil {
		return 0, err
	}
	r.off += size
	return n, nil
}

// readLength reads a CompactSize used as a length or count and bounds it by
// MaxCompactSize.
func (r *Reader) readLength(what string) (int, error) {
	n, err := r.ReadCompactSize()
	if err != nil {
		return 0, err
	}
	if n > MaxCompactSize {
		return 0, NewError(KindFormat, "VDXF-FMT-004", fmt.Sprintf("%s length %d exceeds maximum", what, n))
	}
	return int(n), nil
}

func (r *Reader) ReadVarInt() (uint64, error) {
	n, size, err := DecodeVarInt(r.buf[r.off:])
	if err != nil {
		return 0, err
	}
	r.off += size
	return n, nil
}

func (r *Reader) ReadBigVarInt() (*big.Int, error) {
	n, size, err := DecodeBigVarInt(r.buf[r.off:], 0)
	if err != nil {
		return nil, err
	}
	r.off += size
	return n, nil
}

// ReadVarSlice reads CompactSize(len) followed by len bytes. The result is
// a copy.
func (r *Reader) ReadVarSlice() ([]byte, error) {
	start := r.off
	n, err := r.readLength("var-slice")
	if err != nil {
		return nil, err
	}
	b, err := r.ReadFixed(n)
	if err != nil {
		r.off = start
		return nil, err
	}
	return b, nil
}

// ReadVarString reads a var-slice and requires it to be valid UTF-8.
func (r *Reader) ReadVarString() (string, error) {
	start := r.off
	b, err := r.ReadVarSlice()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		r.off = start
		return "", NewError(KindFormat, "VDXF-FMT-005", "string is not valid UTF-8")
	}
	return string(b), nil
}

// ReadVector reads a CompactSize count of var-slices.
func (r *Reader) ReadVector() ([][]byte, error) {
	start := r.off
	count, err := r.readLength("vector")
	if err != nil {
		return nil, err
	}
	// Each item needs at least one length byte.
	if count > r.Remaining() {
		r.off = start
		return nil, underrun("vector", count, r.Remaining())
	}
	out := make([][]byte, 0, count)
	for i := 0; i < count; i++ {
		item, err := r.ReadVarSlice()
		if err != nil {
			r.off = start
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// ReadArray reads a CompactSize count of fixed-width items.
func (r *Reader) ReadArray(width int) ([][]byte, error) {
	start := r.off
	count, err := r.readLength("array")
	if err != nil {
		return nil, err
	}
	if width > 0 && count > r.Remaining()/width {
		r.off = start
		return nil, underrun("array", count*width, r.Remaining())
	}
	out := make([][]byte, 0, count)
	for i := 0; i < count; i++ {
		item, err := r.ReadFixed(width)
		if err != nil {
			r.off = start
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}
