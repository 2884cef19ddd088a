// Package signature implements the signature block carried by signed
// envelopes and the identity hash that binds an envelope's content hash to
// a signing identity at a block height.
//
// Producing and checking the signature bytes themselves is left to the
// wallet; this package only computes what gets signed.
package signature

import (
	"fmt"

	"xdao.co/vdxf/address"
	"xdao.co/vdxf/compact"
	"xdao.co/vdxf/wire"
)

const (
	FirstValidVersion uint64 = 1
	LastValidVersion  uint64 = 2
	DefaultVersion           = LastValidVersion
)

// Block flags. They are derived from field presence when encoding.
const (
	FlagHasVDXFKeys     uint64 = 1
	FlagHasVDXFKeyNames uint64 = 2
	FlagHasBoundHashes  uint64 = 4
	FlagHasStatements   uint64 = 8

	knownFlags = FlagHasVDXFKeys | FlagHasVDXFKeyNames | FlagHasBoundHashes | FlagHasStatements
)

// Block is a signature with the identities and auxiliary data it covers.
type Block struct {
	Version    uint64
	HashType   HashType
	SystemID   compact.Address
	IdentityID compact.Address

	VDXFKeys     []address.Hash160
	VDXFKeyNames []string
	BoundHashes  [][32]byte
	Statements   [][]byte

	Signature []byte
}

// Flags returns the flags implied by the populated fields.
func (b *Block) Flags() uint64 {
	var f uint64
	if len(b.VDXFKeys) > 0 {
		f |= FlagHasVDXFKeys
	}
	if len(b.VDXFKeyNames) > 0 {
		f |= FlagHasVDXFKeyNames
	}
	if len(b.BoundHashes) > 0 {
		f |= FlagHasBoundHashes
	}
	if len(b.Statements) > 0 {
		f |= FlagHasStatements
	}
	return f
}

// ByteLength implements wire.Encodable.
func (b *Block) ByteLength() int {
	n := wire.VarIntLen(b.Version) + wire.VarIntLen(b.Flags()) + wire.VarIntLen(uint64(b.HashType))
	n += b.SystemID.ByteLength() + b.IdentityID.ByteLength()
	n += b.auxLength()
	return n + wire.VarSliceLen(len(b.Signature))
}

func (b *Block) auxLength() int {
	var n int
	if len(b.VDXFKeys) > 0 {
		n += wire.ArrayLen(len(b.VDXFKeys), address.HashLength)
	}
	if len(b.VDXFKeyNames) > 0 {
		n += wire.CompactSizeLen(uint64(len(b.VDXFKeyNames)))
		for _, s := range b.VDXFKeyNames {
			n += wire.VarSliceLen(len(s))
		}
	}
	if len(b.BoundHashes) > 0 {
		n += wire.ArrayLen(len(b.BoundHashes), 32)
	}
	if len(b.Statements) > 0 {
		n += wire.VectorLen(b.Statements)
	}
	return n
}

// Encode implements wire.Encodable. Auxiliary lists are written in the
// order they were given.
func (b *Block) Encode(w *wire.Writer) {
	if b.Version < FirstValidVersion || b.Version > LastValidVersion {
		w.Fail(wire.NewError(wire.KindInvariant, "VDXF-INV-402",
			fmt.Sprintf("unsupported version for signature: %d", b.Version)))
		return
	}
	if !b.HashType.Valid() {
		w.Fail(wire.NewError(wire.KindInvariant, "VDXF-INV-403",
			fmt.Sprintf("unrecognized hash type %d", uint64(b.HashType))))
		return
	}
	w.WriteVarInt(b.Version)
	w.WriteVarInt(b.Flags())
	w.WriteVarInt(uint64(b.HashType))
	b.SystemID.Encode(w)
	b.IdentityID.Encode(w)
	encodeAux(w, b.VDXFKeys, b.VDXFKeyNames, b.BoundHashes, b.Statements)
	w.WriteVarSlice(b.Signature)
}

func encodeAux(w *wire.Writer, keys []address.Hash160, names []string, bound [][32]byte, statements [][]byte) {
	if len(keys) > 0 {
		items := make([][]byte, len(keys))
		for i := range keys {
			items[i] = keys[i][:]
		}
		w.WriteArray(items, address.HashLength)
	}
	if len(names) > 0 {
		w.WriteCompactSize(uint64(len(names)))
		for _, s := range names {
			w.WriteVarString(s)
		}
	}
	if len(bound) > 0 {
		items := make([][]byte, len(bound))
		for i := range bound {
			items[i] = bound[i][:]
		}
		w.WriteArray(items, 32)
	}
	if len(statements) > 0 {
		w.WriteVector(statements)
	}
}

// Bytes returns the serialization of b.
func (b *Block) Bytes() ([]byte, error) {
	return wire.Marshal(b)
}

// Decode reads a Block. FQN identities are resolved under rootSystem.
func Decode(r *wire.Reader, rootSystem string) (*Block, error) {
	var b Block
	var err error
	if b.Version, err = r.ReadVarInt(); err != nil {
		return nil, err
	}
	if b.Version < FirstValidVersion || b.Version > LastValidVersion {
		return nil, wire.NewError(wire.KindRange, "VDXF-RNG-403",
			fmt.Sprintf("unsupported version for signature: %d", b.Version))
	}
	flags, err := r.ReadVarInt()
	if err != nil {
		return nil, err
	}
	if flags&^knownFlags != 0 {
		return nil, wire.NewError(wire.KindFormat, "VDXF-FMT-401",
			fmt.Sprintf("unknown signature flags 0x%x", flags&^knownFlags))
	}
	ht, err := r.ReadVarInt()
	if err != nil {
		return nil, err
	}
	b.HashType = HashType(ht)
	if !b.HashType.Valid() {
		return nil, wire.NewError(wire.KindRange, "VDXF-RNG-402",
			fmt.Sprintf("unrecognized hash type %d", ht))
	}
	if b.SystemID, err = compact.Decode(r, rootSystem); err != nil {
		return nil, err
	}
	if b.IdentityID, err = compact.Decode(r, rootSystem); err != nil {
		return nil, err
	}

	if flags&FlagHasVDXFKeys != 0 {
		items, err := r.ReadArray(address.HashLength)
		if err != nil {
			return nil, err
		}
		b.VDXFKeys = make([]address.Hash160, len(items))
		for i, item := range items {
			copy(b.VDXFKeys[i][:], item)
		}
	}
	if flags&FlagHasVDXFKeyNames != 0 {
		n, err := r.ReadCompactSize()
		if err != nil {
			return nil, err
		}
		if n > uint64(r.Remaining()) {
			return nil, wire.NewError(wire.KindFormat, "VDXF-FMT-402",
				fmt.Sprintf("key name count %d exceeds remaining %d bytes", n, r.Remaining()))
		}
		b.VDXFKeyNames = make([]string, n)
		for i := range b.VDXFKeyNames {
			if b.VDXFKeyNames[i], err = r.ReadVarString(); err != nil {
				return nil, err
			}
		}
	}
	if flags&FlagHasBoundHashes != 0 {
		items, err := r.ReadArray(32)
		if err != nil {
			return nil, err
		}
		b.BoundHashes = make([][32]byte, len(items))
		for i, item := range items {
			copy(b.BoundHashes[i][:], item)
		}
	}
	if flags&FlagHasStatements != 0 {
		if b.Statements, err = r.ReadVector(); err != nil {
			return nil, err
		}
	}
	if flags != b.Flags() {
		return nil, wire.NewError(wire.KindInvariant, "VDXF-INV-401",
			"signature flags claim an empty auxiliary list")
	}

	if b.Signature, err = r.ReadVarSlice(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Parse decodes a complete serialized Block.
func Parse(buf []byte, rootSystem string) (*Block, error) {
	r := wire.NewReader(buf)
	b, err := Decode(r, rootSystem)
	if err != nil {
		return nil, err
	}
	return b, r.ExpectEOF()
}
