// Package compact implements the compact identity reference used by
// signatures and envelopes: a fully-qualified name, an identity address or
// a VDXF key address, whichever is smaller on the wire.
package compact

import (
	"fmt"

	"xdao.co/vdxf/address"
	"xdao.co/vdxf/wire"
)

// Type tags the form an Address takes on the wire.
type Type uint64

const (
	TypeFQN      Type = 1
	TypeIAddress Type = 2
	TypeXAddress Type = 3
)

func (t Type) String() string {
	switch t {
	case TypeFQN:
		return "fqn"
	case TypeIAddress:
		return "i-address"
	case TypeXAddress:
		return "x-address"
	default:
		return fmt.Sprintf("type(%d)", uint64(t))
	}
}

const (
	FirstValidVersion uint64 = 1
	LastValidVersion  uint64 = 1
	DefaultVersion           = LastValidVersion
)

// Address is an immutable compact identity reference.
//
// An FQN whose UTF-8 form is longer than a hash is never written as text:
// Encode emits the identity hash it resolves to, and Canonicalize returns
// that downgraded form as a value.
type Address struct {
	version    uint64
	typ        Type
	name       string
	hash       address.Hash160
	rootSystem string
	namespace  *address.Hash160
}

// FromFQN builds an Address from a fully-qualified name resolved under rootSystem.
func FromFQN(name, rootSystem string) (Address, error) {
	if rootSystem == "" {
		rootSystem = address.DefaultRootSystem
	}
	h, err := address.IdentityID(name, rootSystem)
	if err != nil {
		return Address{}, err
	}
	return Address{version: DefaultVersion, typ: TypeFQN, name: name, hash: h, rootSystem: rootSystem}, nil
}

// FromFQNUnder builds an Address from a name relative to an explicit
// namespace identity.
func FromFQNUnder(name string, namespace address.Hash160) (Address, error) {
	h, err := address.IdentityIDUnder(name, namespace)
	if err != nil {
		return Address{}, err
	}
	ns := namespace
	return Address{version: DefaultVersion, typ: TypeFQN, name: name, hash: h, namespace: &ns}, nil
}

// FromIAddress builds an Address from a Base58Check identity address.
func FromIAddress(s string) (Address, error) {
	h, err := address.ParseIAddress(s)
	if err != nil {
		return Address{}, err
	}
	return FromHash(TypeIAddress, h), nil
}

// FromXAddress builds an Address from a Base58Check VDXF key address.
func FromXAddress(s string) (Address, error) {
	h, err := address.ParseXAddress(s)
	if err != nil {
		return Address{}, err
	}
	return FromHash(TypeXAddress, h), nil
}

// FromHash builds a hash-typed Address. typ must be TypeIAddress or TypeXAddress.
func FromHash(typ Type, h address.Hash160) Address {
	if typ != TypeXAddress {
		typ = TypeIAddress
	}
	return Address{version: DefaultVersion, typ: typ, hash: h}
}

func (a Address) Version() uint64 { return a.version }
func (a Address) Type() Type       { return a.typ }

// Name returns the fully-qualified name of an FQN address and "" otherwise.
func (a Address) Name() string { return a.name }

// Hash returns the 20-byte identity the address refers to. For FQN
// addresses this is the resolved identity.
func (a Address) Hash() address.Hash160 { return a.hash }

func (a Address) RootSystem() string { return a.rootSystem }

// Namespace returns the explicit parent identity of an FQN, if one was given.
func (a Address) Namespace() (address.Hash160, bool) {
	if a.namespace == nil {
		return address.Hash160{}, false
	}
	return *a.namespace, true
}

func (a Address) IsZero() bool { return a.typ == 0 }

// String returns the name for FQN addresses and the Base58Check form otherwise.
func (a Address) String() string {
	switch a.typ {
	case TypeFQN:
		return a.name
	case TypeXAddress:
		return a.hash.Encode(address.VersionX)
	case TypeIAddress:
		return a.hash.IAddress()
	default:
		return ""
	}
}

// NeedsCanonicalization reports whether Encode would emit a different form
// than the one the address was built from.
func (a Address) NeedsCanonicalization() bool {
	return a.typ == TypeFQN && len(a.name) > address.HashLength
}

// Canonicalize returns the form this address is written in: an FQN longer
// than a hash becomes the identity address it resolves to. Canonicalizing a
// canonical address returns it unchanged.
func (a Address) Canonicalize() Address {
	if !a.NeedsCanonicalization() {
		return a
	}
	return Address{version: a.version, typ: TypeIAddress, hash: a.hash, rootSystem: a.rootSystem}
}

// ByteLength implements wire.Encodable.
func (a Address) ByteLength() int {
	c := a.Canonicalize()
	n := wire.CompactSizeLen(c.version) + wire.CompactSizeLen(uint64(c.typ))
	if c.typ == TypeFQN {
		return n + wire.VarSliceLen(len(c.name))
	}
	return n + address.HashLength
}

// Encode implements wire.Encodable. It writes the canonical form and does
// not modify a.
func (a Address) Encode(w *wire.Writer) {
	c := a.Canonicalize()
	if c.typ == 0 {
		w.Fail(wire.NewError(wire.KindInvariant, "VDXF-INV-101", "encoding an empty compact address"))
		return
	}
	w.WriteCompactSize(c.version)
	w.WriteCompactSize(uint64(c.typ))
	if c.typ == TypeFQN {
		w.WriteVarString(c.name)
		return
	}
	w.WriteSlice(c.hash[:])
}

// Bytes returns the canonical serialization of a.
func (a Address) Bytes() ([]byte, error) {
	return wire.Marshal(a)
}

// Equal reports whether a and b refer to the same identity in the same
// wire form after canonicalization.
func (a Address) Equal(b Address) bool {
	ca, cb := a.Canonicalize(), b.Canonicalize()
	if ca.typ != cb.typ || ca.version != cb.version {
		return false
	}
	if ca.typ == TypeFQN {
		return ca.name == cb.name && ca.hash == cb.hash
	}
	return ca.hash == cb.hash
}

// Decode reads an Address. FQN names are resolved under rootSystem.
func Decode(r *wire.Reader, rootSystem string) (Address, error) {
	version, err := r.ReadCompactSize()
	if err != nil {
		return Address{}, err
	}
	if version < FirstValidVersion || version > LastValidVersion {
		return Address{}, wire.NewError(wire.KindRange, "VDXF-RNG-101",
			fmt.Sprintf("unsupported version for compact address: %d", version))
	}
	t, err := r.ReadCompactSize()
	if err != nil {
		return Address{}, err
	}
	switch typ := Type(t); typ {
	case TypeFQN:
		name, err := r.ReadVarString()
		if err != nil {
			return Address{}, err
		}
		a, err := FromFQN(name, rootSystem)
		if err != nil {
			return Address{}, err
		}
		a.version = version
		return a, nil
	case TypeIAddress, TypeXAddress:
		b, err := r.ReadSlice(address.HashLength)
		if err != nil {
			return Address{}, err
		}
		var h address.Hash160
		copy(h[:], b)
		a := FromHash(typ, h)
		a.version = version
		return a, nil
	default:
		return Address{}, wire.NewError(wire.KindRange, "VDXF-RNG-102",
			fmt.Sprintf("unrecognized compact address type %d", t))
	}
}

// Parse decodes a complete serialized Address.
func Parse(b []byte, rootSystem string) (Address, error) {
	r := wire.NewReader(b)
	a, err := Decode(r, rootSystem)
	if err != nil {
		return Address{}, err
	}
	return a, r.ExpectEOF()
}
