package signature

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"xdao.co/vdxf/address"
	"xdao.co/vdxf/compact"
	"xdao.co/vdxf/wire"
)

func testBlock(t *testing.T) *Block {
	t.Helper()
	sys, err := compact.FromIAddress("i5w5MuNik5NtLcYmNzcvaoixooEebB6MGV")
	require.NoError(t, err)
	id, err := compact.FromFQN("chips@", "VRSC")
	require.NoError(t, err)
	return &Block{
		Version:    DefaultVersion,
		HashType:   HashSHA256,
		SystemID:   sys,
		IdentityID: id,
		Signature:  []byte{0x30, 0x44, 0x02, 0x20},
	}
}

func TestBlock_RoundTrip(t *testing.T) {
	b := testBlock(t)
	b.VDXFKeys = []address.Hash160{{2}, {1}}
	b.VDXFKeyNames = []string{"vrsc::a", "vrsc::b"}
	b.BoundHashes = [][32]byte{{7}}
	b.Statements = [][]byte{[]byte("I agree"), {}}

	buf, err := b.Bytes()
	require.NoError(t, err)
	require.Len(t, buf, b.ByteLength())

	got, err := Parse(buf, "VRSC")
	require.NoError(t, err)
	require.Equal(t, b.Flags(), got.Flags())
	require.Equal(t, b.VDXFKeys, got.VDXFKeys)
	require.Equal(t, b.VDXFKeyNames, got.VDXFKeyNames)
	require.Equal(t, b.BoundHashes, got.BoundHashes)
	require.Equal(t, b.Statements, got.Statements)
	require.Equal(t, b.Signature, got.Signature)
	require.Equal(t, "chips@", got.IdentityID.Name())

	again, err := got.Bytes()
	require.NoError(t, err)
	require.Equal(t, buf, again)
}

func TestBlock_FlagsDerived(t *testing.T) {
	b := testBlock(t)
	require.Zero(t, b.Flags())
	b.Statements = [][]byte{[]byte("s")}
	require.Equal(t, FlagHasStatements, b.Flags())
	b.VDXFKeys = []address.Hash160{{1}}
	require.Equal(t, FlagHasStatements|FlagHasVDXFKeys, b.Flags())
}

func TestDecode_Rejects(t *testing.T) {
	b := testBlock(t)
	buf, err := b.Bytes()
	require.NoError(t, err)

	badVersion := append([]byte{0x03}, buf[1:]...)
	_, err = Parse(badVersion, "")
	require.True(t, wire.IsKind(err, wire.KindRange))

	badFlags := append([]byte{buf[0], 0x20}, buf[2:]...)
	_, err = Parse(badFlags, "")
	require.True(t, wire.IsKind(err, wire.KindFormat))

	badHash := append([]byte{buf[0], buf[1], 0x09}, buf[3:]...)
	_, err = Parse(badHash, "")
	require.True(t, wire.IsKind(err, wire.KindRange))

	_, err = Parse(buf[:len(buf)-1], "")
	require.True(t, wire.IsKind(err, wire.KindFormat))
}

func TestEncode_Rejects(t *testing.T) {
	b := testBlock(t)
	b.HashType = 0
	_, err := b.Bytes()
	require.Equal(t, "VDXF-INV-403", wire.RuleID(err))

	b = testBlock(t)
	b.Version = LastValidVersion + 1
	_, err = b.Bytes()
	require.Equal(t, "VDXF-INV-402", wire.RuleID(err))
	b.Version = 0
	_, err = b.Bytes()
	require.Equal(t, "VDXF-INV-402", wire.RuleID(err))

	b = testBlock(t)
	b.VDXFKeyNames = []string{string([]byte{0xc3, 0x28})}
	_, err = b.Bytes()
	require.True(t, wire.IsKind(err, wire.KindInvariant))
	require.Equal(t, "VDXF-INV-005", wire.RuleID(err))
}

func TestSignedDataPrefix(t *testing.T) {
	p := prefixBytes()
	require.Equal(t, byte(len(SignedDataPrefix)), p[0])
	require.Equal(t, SignedDataPrefix, string(p[1:]))
}

func TestIdentityHash_KeyOrderIndependent(t *testing.T) {
	a := address.HashOf([]byte("A"))
	bKey := address.HashOf([]byte("B"))
	content := sha256.Sum256([]byte("envelope"))

	first := testBlock(t)
	first.VDXFKeys = []address.Hash160{bKey, a}
	second := testBlock(t)
	second.VDXFKeys = []address.Hash160{a, bKey}

	h1, err := first.IdentityHash(1000, content[:])
	require.NoError(t, err)
	h2, err := second.IdentityHash(1000, content[:])
	require.NoError(t, err)
	require.Equal(t, h1, h2)

	// Wire order is kept as given.
	require.Equal(t, bKey, first.VDXFKeys[0])

	plain := testBlock(t)
	h3, err := plain.IdentityHash(1000, content[:])
	require.NoError(t, err)
	require.NotEqual(t, h1, h3)
}

func TestIdentityHash_VersionOrdering(t *testing.T) {
	content := sha256.Sum256([]byte("payload"))
	b := testBlock(t)
	sys, id := b.SystemID.Hash(), b.IdentityID.Hash()
	prefix := append([]byte{byte(len(SignedDataPrefix))}, SignedDataPrefix...)
	height := binary.LittleEndian.AppendUint32(nil, 42)

	cat := func(parts ...[]byte) [32]byte {
		var all []byte
		for _, p := range parts {
			all = append(all, p...)
		}
		return sha256.Sum256(all)
	}

	b.Version = 1
	v1, err := b.IdentityHash(42, content[:])
	require.NoError(t, err)
	require.Equal(t, cat(prefix, sys[:], height, id[:], content[:]), v1)

	b.Version = 2
	v2, err := b.IdentityHash(42, content[:])
	require.NoError(t, err)
	require.Equal(t, cat(sys[:], height, id[:], prefix, content[:]), v2)

	require.NotEqual(t, v1, v2)

	other, err := b.IdentityHash(43, content[:])
	require.NoError(t, err)
	require.NotEqual(t, v2, other)
}

func TestIdentityHash_RequiresSHA256(t *testing.T) {
	b := testBlock(t)
	b.HashType = HashKeccak256
	_, err := b.IdentityHash(1, make([]byte, 32))
	require.True(t, wire.IsKind(err, wire.KindValidation))
	require.Equal(t, "VDXF-VAL-401", wire.RuleID(err))
}

func TestSum(t *testing.T) {
	empty := []byte{}
	tests := []struct {
		h    HashType
		want string
	}{
		{HashSHA256, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{HashSHA256D, "5df6e0e2761359d30a8275058e299fcc0381534545f55cf43e41983f5d4c9456"},
		{HashKeccak256, "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"},
		{HashBlake2bMMR, "0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8"},
	}
	for _, tc := range tests {
		got, err := Sum(tc.h, empty)
		require.NoError(t, err, tc.h.String())
		require.Equal(t, tc.want, hex.EncodeToString(got[:]), tc.h.String())
	}

	_, err := Sum(HashType(42), empty)
	require.True(t, wire.IsKind(err, wire.KindRange))
}

func TestParseHashType(t *testing.T) {
	h, err := ParseHashType("keccak256")
	require.NoError(t, err)
	require.Equal(t, HashKeccak256, h)

	_, err = ParseHashType("md5")
	require.Error(t, err)
}
