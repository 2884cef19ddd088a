package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompactSize_Widths(t *testing.T) {
	tests := []struct {
		val        uint64
		serialized []byte
	}{
		{0, hexToBytes("00")},
		{0xfc, hexToBytes("fc")},
		{0xfd, hexToBytes("fdfd00")},
		{0xffff, hexToBytes("fdffff")},
		{0x10000, hexToBytes("fe00000100")},
		{0xffffffff, hexToBytes("feffffffff")},
		{0x100000000, hexToBytes("ff0000000001000000")},
	}
	for _, tc := range tests {
		require.Equal(t, len(tc.serialized), CompactSizeLen(tc.val))

		got := make([]byte, CompactSizeLen(tc.val))
		require.Equal(t, len(got), PutCompactSize(got, tc.val))
		require.Equal(t, tc.serialized, got)

		v, n, err := DecodeCompactSize(tc.serialized)
		require.NoError(t, err)
		require.Equal(t, tc.val, v)
		require.Equal(t, len(got), n)
	}
}

func TestCompactSize_RejectsNonCanonical(t *testing.T) {
	for _, b := range [][]byte{
		hexToBytes("fd0100"),
		hexToBytes("fe01000000"),
		hexToBytes("ff0100000000000000"),
	} {
		_, _, err := DecodeCompactSize(b)
		require.Equal(t, "VDXF-FMT-002", RuleID(err), "%x", b)
	}
}

func TestCompactSize_Truncated(t *testing.T) {
	for _, b := range [][]byte{{}, hexToBytes("fd01"), hexToBytes("fe0000"), hexToBytes("ff00")} {
		_, _, err := DecodeCompactSize(b)
		require.ErrorIs(t, err, ErrUnderrun, "%x", b)
	}
}

func TestWriterReader_RoundTrip(t *testing.T) {
	vec := [][]byte{[]byte("a"), {}, bytes.Repeat([]byte{7}, 300)}
	arr := [][]byte{bytes.Repeat([]byte{1}, 20), bytes.Repeat([]byte{2}, 20)}

	size := 1 + 2 + 4 + 8 + CompactSizeLen(500) + VarIntLen(1<<40) +
		VarSliceLen(3) + len("héllo") + CompactSizeLen(uint64(len("héllo"))) +
		VectorLen(vec) + ArrayLen(len(arr), 20) + 5

	w := NewWriter(size)
	w.WriteUint8(0xab)
	w.WriteUint16(0x1234)
	w.WriteUint32(0xdeadbeef)
	w.WriteInt64(-2)
	w.WriteCompactSize(500)
	w.WriteVarInt(1 << 40)
	w.WriteVarSlice([]byte{9, 8, 7})
	w.WriteVarString("héllo")
	w.WriteVector(vec)
	w.WriteArray(arr, 20)
	w.WriteSlice([]byte("tail!"))
	b, err := w.Finish()
	require.NoError(t, err)
	require.Len(t, b, size)

	r := NewReader(b)
	u8, err := r.ReadUint8()
	require.NoError(t, err)
	require.Equal(t, uint8(0xab), u8)
	u16, err := r.ReadUint16()
	require.NoError(t, err)
	require.Equal(t, uint16(0x1234), u16)
	u32, err := r.ReadUint32()
	require.NoError(t, err)
	require.Equal(t, uint32(0xdeadbeef), u32)
	i64, err := r.ReadInt64()
	require.NoError(t, err)
	require.Equal(t, int64(-2), i64)
	cs, err := r.ReadCompactSize()
	require.NoError(t, err)
	require.Equal(t, uint64(500), cs)
	vi, err := r.ReadVarInt()
	require.NoError(t, err)
	require.Equal(t, uint64(1<<40), vi)
	vs, err := r.ReadVarSlice()
	require.NoError(t, err)
	require.Equal(t, []byte{9, 8, 7}, vs)
	s, err := r.ReadVarString()
	require.NoError(t, err)
	require.Equal(t, "héllo", s)
	gotVec, err := r.ReadVector()
	require.NoError(t, err)
	require.Equal(t, vec, gotVec)
	gotArr, err := r.ReadArray(20)
	require.NoError(t, err)
	require.Equal(t, arr, gotArr)
	tail, err := r.ReadFixed(5)
	require.NoError(t, err)
	require.Equal(t, "tail!", string(tail))
	require.NoError(t, r.ExpectEOF())
}

func TestReader_UnderrunLeavesOffset(t *testing.T) {
	r := NewReader(hexToBytes("05010203"))
	_, err := r.ReadVarSlice()
	require.ErrorIs(t, err, ErrUnderrun)
	require.Equal(t, 0, r.Offset())

	_, err = r.ReadFixed(5)
	require.ErrorIs(t, err, ErrUnderrun)
	require.Equal(t, 4, r.Remaining())
}

func TestReader_ArrayUnderrun(t *testing.T) {
	// Claims three 20-byte items but carries one.
	b := append([]byte{3}, bytes.Repeat([]byte{1}, 20)...)
	_, err := NewReader(b).ReadArray(20)
	require.ErrorIs(t, err, ErrUnderrun)
}

func TestReader_InvalidUTF8(t *testing.T) {
	_, err := NewReader([]byte{2, 0xff, 0xfe}).ReadVarString()
	require.Equal(t, "VDXF-FMT-005", RuleID(err))
}

func TestWriter_InvalidUTF8(t *testing.T) {
	s := string([]byte{0xff, 0xfe})
	w := NewWriter(VarSliceLen(len(s)))
	w.WriteVarString(s)
	_, err := w.Finish()
	require.True(t, IsKind(err, KindInvariant))
	require.Equal(t, "VDXF-INV-005", RuleID(err))

	w = NewWriter(VarSliceLen(len("ok")))
	w.WriteVarString("ok")
	b, err := w.Finish()
	require.NoError(t, err)
	got, err := NewReader(b).ReadVarString()
	require.NoError(t, err)
	require.Equal(t, "ok", got)
}

func TestReader_TrailingBytes(t *testing.T) {
	r := NewReader([]byte{1, 2})
	_, err := r.ReadUint8()
	require.NoError(t, err)
	require.Equal(t, "VDXF-FMT-003", RuleID(r.ExpectEOF()))
}

func TestWriter_LengthDisagreement(t *testing.T) {
	w := NewWriter(4)
	w.WriteUint16(1)
	_, err := w.Finish()
	require.Equal(t, "VDXF-INV-004", RuleID(err))

	w = NewWriter(1)
	w.WriteUint32(1)
	_, err = w.Finish()
	require.Equal(t, "VDXF-INV-001", RuleID(err))

	w = NewWriter(ArrayLen(1, 20))
	w.WriteArray([][]byte{{1, 2}}, 20)
	_, err = w.Finish()
	require.Equal(t, "VDXF-INV-003", RuleID(err))
}
