// Package wire implements the integer codecs and cursor-based buffer
// primitives shared by every VDXF record.
//
// Serialization is two-pass: each record reports its exact ByteLength,
// the caller allocates once, and the record then writes into a Writer of
// that size. Finish rejects any disagreement between the two passes.
package wire

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"unicode/utf8"
)

// Encodable is implemented by every record that takes part in two-pass
// serialization.
type Encodable interface {
	ByteLength() int
	Encode(w *Writer)
}

// Marshal allocates exactly e.ByteLength() bytes and encodes e into them.
func Marshal(e Encodable) ([]byte, error) {
	w := NewWriter(e.ByteLength())
	e.Encode(w)
	return w.Finish()
}

// Writer fills a buffer of fixed, precomputed size.
//
// Write methods never return errors. An overflow is recorded and reported
// by Finish, which keeps Encode implementations linear.
type Writer struct {
	buf []byte
	off int
	err error
}

// NewWriter allocates a writer for exactly size bytes.
func NewWriter(size int) *Writer {
	return &Writer{buf: make([]byte, size)}
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return w.off }

// Fail records err unless an earlier error is already pending. Encode
// implementations use it to surface invariant violations they detect.
func (w *Writer) Fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

func (w *Writer) next(n int) []byte {
	if w.err != nil {
		return nil
	}
	if n < 0 || w.off+n > len(w.buf) {
		w.err = NewError(KindInvariant, "VDXF-INV-001",
			fmt.Sprintf("write of %d bytes overflows buffer at offset %d of %d", n, w.off, len(w.buf)))
		return nil
	}
	b := w.buf[w.off : w.off+n]
	w.off += n
	return b
}

func (w *Writer) WriteUint8(v uint8) {
	if b := w.next(1); b != nil {
		b[0] = v
	}
}

func (w *Writer) WriteUint16(v uint16) {
	if b := w.next(2); b != nil {
		binary.LittleEndian.PutUint16(b, v)
	}
}

func (w *Writer) WriteUint32(v uint32) {
	if b := w.next(4); b != nil {
		binary.LittleEndian.PutUint32(b, v)
	}
}

func (w *Writer) WriteUint64(v uint64) {
	if b := w.next(8); b != nil {
		binary.LittleEndian.PutUint64(b, v)
	}
}

func (w *Writer) WriteInt64(v int64) { w.WriteUint64(uint64(v)) }

func (w *Writer) WriteCompactSize(n uint64) {
	if b := w.next(CompactSizeLen(n)); b != nil {
		PutCompactSize(b, n)
	}
}

func (w *Writer) WriteVarInt(n uint64) {
	if b := w.next(VarIntLen(n)); b != nil {
		PutVarInt(b, n)
	}
}

func (w *Writer) WriteBigVarInt(n *big.Int) {
	if n.Sign() < 0 {
		w.Fail(NewError(KindInvariant, "VDXF-INV-002", "negative value cannot be varint encoded"))
		return
	}
	if b := w.next(BigVarIntLen(n)); b != nil {
		PutBigVarInt(b, n)
	}
}

// WriteSlice writes p verbatim.
func (w *Writer) WriteSlice(p []byte) {
	if b := w.next(len(p)); b != nil {
		copy(b, p)
	}
}

// WriteVarSlice writes CompactSize(len(p)) followed by p.
func (w *Writer) WriteVarSlice(p []byte) {
	w.WriteCompactSize(uint64(len(p)))
	w.WriteSlice(p)
}

// WriteVarString writes s as a var-slice. Readers reject strings that are
// not valid UTF-8, so such strings fail here too.
func (w *Writer) WriteVarString(s string) {
	if !utf8.ValidString(s) {
		w.Fail(NewError(KindInvariant, "VDXF-INV-005", "string is not valid UTF-8"))
		return
	}
	w.WriteCompactSize(uint64(len(s)))
	if b := w.next(len(s)); b != nil {
		copy(b, s)
	}
}

// WriteVector writes a count-prefixed sequence of var-slices.
func (w *Writer) WriteVector(items [][]byte) {
	w.WriteCompactSize(uint64(len(items)))
	for _, item := range items {
		w.WriteVarSlice(item)
	}
}

// WriteArray writes a count-prefixed sequence of fixed-width items. Every
// item must be exactly width bytes long.
func (w *Writer) WriteArray(items [][]byte, width int) {
	w.WriteCompactSize(uint64(len(items)))
	for i, item := range items {
		if len(item) != width {
			w.Fail(NewError(KindInvariant, "VDXF-INV-003",
				fmt.Sprintf("array item %d is %d bytes, want %d", i, len(item), width)))
			return
		}
		w.WriteSlice(item)
	}
}

// Finish returns the written buffer. It fails if any write overflowed or
// if fewer bytes were written than were allocated.
func (w *Writer) Finish() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	if w.off != len(w.buf) {
		return nil, NewError(KindInvariant, "VDXF-INV-004",
			fmt.Sprintf("wrote %d bytes, precomputed length was %d", w.off, len(w.buf)))
	}
	return w.buf, nil
}
