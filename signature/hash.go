package signature

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"

	"xdao.co/vdxf/address"
	"xdao.co/vdxf/wire"
)

// HashType names the digest a signature or request hash was computed with.
type HashType uint64

const (
	HashBlake2bMMR  HashType = 1
	HashBlake2bMMR2 HashType = 2
	HashKeccak256   HashType = 3
	HashSHA256D     HashType = 4
	HashSHA256      HashType = 5
)

func (h HashType) String() string {
	switch h {
	case HashBlake2bMMR:
		return "blake2bmmr"
	case HashBlake2bMMR2:
		return "blake2bmmr2"
	case HashKeccak256:
		return "keccak256"
	case HashSHA256D:
		return "sha256d"
	case HashSHA256:
		return "sha256"
	default:
		return fmt.Sprintf("hashtype(%d)", uint64(h))
	}
}

// Valid reports whether h is a known hash type.
func (h HashType) Valid() bool {
	return h >= HashBlake2bMMR && h <= HashSHA256
}

// ParseHashType accepts the names returned by HashType.String.
func ParseHashType(s string) (HashType, error) {
	for h := HashBlake2bMMR; h <= HashSHA256; h++ {
		if h.String() == s {
			return h, nil
		}
	}
	return 0, wire.NewError(wire.KindRange, "VDXF-RNG-401", fmt.Sprintf("unrecognized hash type %q", s))
}

// Sum digests data with h. Both MMR variants use unkeyed BLAKE2b-256 as
// their leaf hash.
func Sum(h HashType, data []byte) ([32]byte, error) {
	switch h {
	case HashSHA256:
		return sha256.Sum256(data), nil
	case HashSHA256D:
		return address.SHA256D(data), nil
	case HashKeccak256:
		k := sha3.NewLegacyKeccak256()
		k.Write(data)
		var out [32]byte
		k.Sum(out[:0])
		return out, nil
	case HashBlake2bMMR, HashBlake2bMMR2:
		return blake2b.Sum256(data), nil
	default:
		return [32]byte{}, wire.NewError(wire.KindRange, "VDXF-RNG-402",
			fmt.Sprintf("unrecognized hash type %d", uint64(h)))
	}
}
