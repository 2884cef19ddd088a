// Package address implements the address encodings used by VDXF records:
// Base58Check for 20-byte identity and transparent hashes, Bech32 for
// Sapling keys and payment addresses, and the derivation of identity IDs
// from fully-qualified names.
package address

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"

	"xdao.co/vdxf/wire"
)

// Base58Check version bytes.
const (
	VersionR byte = 60  // transparent public-key hash
	VersionI byte = 102 // identity
	VersionX byte = 137 // VDXF key / namespace
)

// HashLength is the size of every identity, transparent and VDXF key hash.
const HashLength = 20

// Hash160 is a 20-byte RIPEMD160(SHA256(x)) digest.
type Hash160 [HashLength]byte

// Encode returns the Base58Check string of h under version.
func (h Hash160) Encode(version byte) string {
	return Base58CheckEncode(version, h)
}

// IAddress returns h as an identity address.
func (h Hash160) IAddress() string { return h.Encode(VersionI) }

func (h Hash160) IsZero() bool { return h == Hash160{} }

// Compare orders hashes by their raw bytes.
func (h Hash160) Compare(o Hash160) int { return bytes.Compare(h[:], o[:]) }

func (h Hash160) String() string { return hex.EncodeToString(h[:]) }

// HashFromBytes copies a 20-byte slice into a Hash160.
func HashFromBytes(b []byte) (Hash160, error) {
	var h Hash160
	if len(b) != HashLength {
		return h, wire.NewError(wire.KindFormat, "VDXF-FMT-101",
			fmt.Sprintf("hash must be %d bytes, got %d", HashLength, len(b)))
	}
	copy(h[:], b)
	return h, nil
}

// Base58CheckEncode prepends version to hash, appends the first four bytes
// of SHA256(SHA256(version || hash)) and base58-encodes the result.
func Base58CheckEncode(version byte, hash Hash160) string {
	return base58.CheckEncode(hash[:], version)
}

// Base58CheckDecode reverses Base58CheckEncode. Any corruption of the string
// fails with a checksum or format error.
func Base58CheckDecode(s string) (byte, Hash160, error) {
	payload, version, err := base58.CheckDecode(s)
	if err != nil {
		switch {
		case errors.Is(err, base58.ErrChecksum):
			return 0, Hash160{}, wire.WrapError(wire.KindFormat, "VDXF-FMT-102", "base58check checksum mismatch", err)
		default:
			return 0, Hash160{}, wire.WrapError(wire.KindFormat, "VDXF-FMT-103", "invalid base58check string", err)
		}
	}
	h, err := HashFromBytes(payload)
	if err != nil {
		return 0, Hash160{}, err
	}
	return version, h, nil
}

// DecodeWithVersion decodes s and requires its version byte to be want.
func DecodeWithVersion(s string, want byte) (Hash160, error) {
	version, h, err := Base58CheckDecode(s)
	if err != nil {
		return Hash160{}, err
	}
	if version != want {
		return Hash160{}, wire.NewError(wire.KindFormat, "VDXF-FMT-104",
			fmt.Sprintf("address version %d, want %d", version, want))
	}
	return h, nil
}

// ParseIAddress decodes an identity address.
func ParseIAddress(s string) (Hash160, error) { return DecodeWithVersion(s, VersionI) }

// ParseXAddress decodes a VDXF key address.
func ParseXAddress(s string) (Hash160, error) { return DecodeWithVersion(s, VersionX) }

// IsIAddress reports whether s is a well-formed identity address.
func IsIAddress(s string) bool {
	_, err := ParseIAddress(s)
	return err == nil
}
