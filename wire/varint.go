package wire

import (
	"math"
	"math/big"
)

// The BigVarInt encoding is the MSB-first base-128 form with a +1 offset on
// every continuation group (Bitcoin's VARINT). Each value has exactly one
// encoding, so no canonicality check is needed on read.
//
// Flags, protocol versions and amounts use it because they may outgrow a
// machine word; the uint64 helpers are fast paths over the same format.

// VarIntLen returns the number of bytes PutVarInt writes for n.
func VarIntLen(n uint64) int {
	size := 1
	for n > 0x7f {
		size++
		n = (n >> 7) - 1
	}
	return size
}

// PutVarInt writes n into dst, which must be at least VarIntLen(n) bytes
// long, and returns the number of bytes written.
func PutVarInt(dst []byte, n uint64) int {
	size := VarIntLen(n)
	offset := size - 1
	for {
		b := byte(n & 0x7f)
		if offset != size-1 {
			b |= 0x80
		}
		dst[offset] = b
		if n <= 0x7f {
			break
		}
		n = (n >> 7) - 1
		offset--
	}
	return size
}

// DecodeVarInt reads a VARINT that must fit in a uint64.
func DecodeVarInt(b []byte) (uint64, int, error) {
	var n uint64
	for i := 0; ; i++ {
		if i >= len(b) {
			return 0, 0, underrun("varint", i+1, len(b))
		}
		c := b[i]
		if n > math.MaxUint64>>7 {
			return 0, 0, NewError(KindRange, "VDXF-RNG-001", "varint overflows 64 bits")
		}
		n = (n << 7) | uint64(c&0x7f)
		if c&0x80 == 0 {
			return n, i + 1, nil
		}
		if n == math.MaxUint64 {
			return 0, 0, NewError(KindRange, "VDXF-RNG-001", "varint overflows 64 bits")
		}
		n++
	}
}

var (
	big7f  = big.NewInt(0x7f)
	bigOne = big.NewInt(1)
)

// BigVarIntLen returns the number of bytes PutBigVarInt writes for n.
// n must be non-negative.
func BigVarIntLen(n *big.Int) int {
	if n.IsUint64() {
		return VarIntLen(n.Uint64())
	}
	v := new(big.Int).Set(n)
	size := 1
	for v.Cmp(big7f) > 0 {
		size++
		v.Rsh(v, 7)
		v.Sub(v, bigOne)
	}
	return size
}

// PutBigVarInt writes n into dst, which must be at least BigVarIntLen(n)
// bytes long, and returns the number of bytes written. n must be non-negative.
func PutBigVarInt(dst []byte, n *big.Int) int {
	if n.IsUint64() {
		return PutVarInt(dst, n.Uint64())
	}
	size := BigVarIntLen(n)
	v := new(big.Int).Set(n)
	low := new(big.Int)
	offset := size - 1
	for {
		low.And(v, big7f)
		b := byte(low.Uint64())
		if offset != size-1 {
			b |= 0x80
		}
		dst[offset] = b
		if v.Cmp(big7f) <= 0 {
			break
		}
		v.Rsh(v, 7)
		v.Sub(v, bigOne)
		offset--
	}
	return size
}

// DecodeBigVarInt reads a VARINT of arbitrary width. The encoded form may not
// exceed maxBytes bytes; a zero maxBytes means MaxBigVarIntBytes.
func DecodeBigVarInt(b []byte, maxBytes int) (*big.Int, int, error) {
	if maxBytes <= 0 {
		maxBytes = MaxBigVarIntBytes
	}
	n := new(big.Int)
	for i := 0; ; i++ {
		if i >= len(b) {
			return nil, 0, underrun("big varint", i+1, len(b))
		}
		if i >= maxBytes {
			return nil, 0, NewError(KindRange, "VDXF-RNG-002", "big varint exceeds maximum width")
		}
		c := b[i]
		n.Lsh(n, 7)
		n.Or(n, big.NewInt(int64(c&0x7f)))
		if c&0x80 == 0 {
			return n, i + 1, nil
		}
		n.Add(n, bigOne)
	}
}

// MaxBigVarIntBytes caps the width of a BigVarInt accepted from the wire.
// 64 groups of 7 bits cover any 256-bit amount with room to spare.
const MaxBigVarIntBytes = 64
