package wire

import (
	"encoding/binary"
	"math"
)

// CompactSize markers. Values below compactSize16 are stored in a single byte.
const (
	compactSize16 = 0xfd
	compactSize32 = 0xfe
	compactSize64 = 0xff
)

// MaxCompactSize bounds counts and lengths read from the wire. It matches
// the network's MAX_SIZE and keeps a hostile length prefix from requesting
// an absurd allocation before the underrun check fires.
const MaxCompactSize = 0x02000000

// CompactSizeLen returns the number of bytes PutCompactSize writes for n.
func CompactSizeLen(n uint64) int {
	switch {
	case n < compactSize16:
		return 1
	case n <= math.MaxUint16:
		return 3
	case n <= math.MaxUint32:
		return 5
	default:
		return 9
	}
}

// PutCompactSize writes n into dst, which must be at least CompactSizeLen(n)
// bytes long, and returns the number of bytes written.
func PutCompactSize(dst []byte, n uint64) int {
	switch {
	case n < compactSize16:
		dst[0] = byte(n)
		return 1
	case n <= math.MaxUint16:
		dst[0] = compactSize16
		binary.LittleEndian.PutUint16(dst[1:], uint16(n))
		return 3
	case n <= math.MaxUint32:
		dst[0] = compactSize32
		binary.LittleEndian.PutUint32(dst[1:], uint32(n))
		return 5
	default:
		dst[0] = compactSize64
		binary.LittleEndian.PutUint64(dst[1:], n)
		return 9
	}
}

// DecodeCompactSize reads a CompactSize from the front of b and returns the
// value and the number of bytes consumed. Truncated and non-minimal
// encodings are rejected.
func DecodeCompactSize(b []byte) (uint64, int, error) {
	if len(b) < 1 {
		return 0, 0, underrun("compact size", 1, len(b))
	}
	var (
		n    uint64
		size int
		min  uint64
	)
	switch b[0] {
	case compactSize16:
		size, min = 3, compactSize16
		if len(b) < size {
			return 0, 0, underrun("compact size", size, len(b))
		}
		n = uint64(binary.LittleEndian.Uint16(b[1:]))
	case compactSize32:
		size, min = 5, math.MaxUint16+1
		if len(b) < size {
			return 0, 0, underrun("compact size", size, len(b))
		}
		n = uint64(binary.LittleEndian.Uint32(b[1:]))
	case compactSize64:
		size, min = 9, math.MaxUint32+1
		if len(b) < size {
			return 0, 0, underrun("compact size", size, len(b))
		}
		n = binary.LittleEndian.Uint64(b[1:])
	default:
		return uint64(b[0]), 1, nil
	}
	if n < min {
		return 0, 0, NewError(KindFormat, "VDXF-FMT-002", "non-canonical compact size")
	}
	return n, size, nil
}

// VarSliceLen is the encoded length of a CompactSize-prefixed byte slice of n bytes.
func VarSliceLen(n int) int {
	return CompactSizeLen(uint64(n)) + n
}

// VectorLen is the encoded length of a count-prefixed sequence of var-slices.
func VectorLen(items [][]byte) int {
	n := CompactSizeLen(uint64(len(items)))
	for _, item := range items {
		n += VarSliceLen(len(item))
	}
	return n
}

// ArrayLen is the encoded length of count fixed-width items of width bytes each.
func ArrayLen(count, width int) int {
	return CompactSizeLen(uint64(count)) + count*width
}
