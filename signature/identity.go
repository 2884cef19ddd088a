package signature

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"slices"

	"xdao.co/vdxf/address"
	"xdao.co/vdxf/wire"
)

// SignedDataPrefix separates signed VDXF data from any other message the
// same key might sign. It is written as a var-string.
const SignedDataPrefix = "Verus signed data:\n"

func prefixBytes() []byte {
	n := uint64(len(SignedDataPrefix))
	b := make([]byte, wire.CompactSizeLen(n), wire.VarSliceLen(len(SignedDataPrefix)))
	wire.PutCompactSize(b, n)
	return append(b, SignedDataPrefix...)
}

// SortedKeys returns a copy of keys ordered by raw byte value.
func SortedKeys(keys []address.Hash160) []address.Hash160 {
	out := slices.Clone(keys)
	slices.SortFunc(out, address.Hash160.Compare)
	return out
}

// hasAux reports whether any auxiliary list is populated.
func (b *Block) hasAux() bool {
	return b.Flags() != 0
}

// BoundContentHash folds the auxiliary data into contentHash. Without
// auxiliary data it returns contentHash unchanged. VDXF keys are folded
// in sorted order, so the result does not depend on the order they were
// listed in.
func (b *Block) BoundContentHash(contentHash []byte) ([]byte, error) {
	if !b.hasAux() {
		return contentHash, nil
	}
	aux := &Block{
		VDXFKeys:     SortedKeys(b.VDXFKeys),
		VDXFKeyNames: b.VDXFKeyNames,
		BoundHashes:  b.BoundHashes,
		Statements:   b.Statements,
	}
	n := len(contentHash) + wire.VarIntLen(aux.Flags()) + aux.auxLength()
	w := wire.NewWriter(n)
	w.WriteSlice(contentHash)
	w.WriteVarInt(aux.Flags())
	encodeAux(w, aux.VDXFKeys, aux.VDXFKeyNames, aux.BoundHashes, aux.Statements)
	buf, err := w.Finish()
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(buf)
	return sum[:], nil
}

// IdentityHash returns the digest a signer at height signs for contentHash.
//
// Version 1 hashes prefix, system, height, identity, content. Version 2
// moves the prefix after the identity. The two orders are not
// interchangeable.
func (b *Block) IdentityHash(height uint32, contentHash []byte) ([32]byte, error) {
	if b.HashType != HashSHA256 {
		return [32]byte{}, wire.NewError(wire.KindValidation, "VDXF-VAL-401",
			fmt.Sprintf("identity hash requires %s, block uses %s", HashSHA256, b.HashType))
	}
	if b.SystemID.IsZero() || b.IdentityID.IsZero() {
		return [32]byte{}, wire.NewError(wire.KindValidation, "VDXF-VAL-402",
			"identity hash requires system and identity IDs")
	}
	content, err := b.BoundContentHash(contentHash)
	if err != nil {
		return [32]byte{}, err
	}

	var heightLE [4]byte
	binary.LittleEndian.PutUint32(heightLE[:], height)
	sys := b.SystemID.Hash()
	id := b.IdentityID.Hash()
	prefix := prefixBytes()

	h := sha256.New()
	switch {
	case b.Version == 1:
		h.Write(prefix)
		h.Write(sys[:])
		h.Write(heightLE[:])
		h.Write(id[:])
	case b.Version >= 2:
		h.Write(sys[:])
		h.Write(heightLE[:])
		h.Write(id[:])
		h.Write(prefix)
	default:
		return [32]byte{}, wire.NewError(wire.KindRange, "VDXF-RNG-403",
			fmt.Sprintf("unsupported version for signature: %d", b.Version))
	}
	h.Write(content)

	var out [32]byte
	h.Sum(out[:0])
	return out, nil
}
