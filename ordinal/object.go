// Package ordinal implements the self-describing VDXF record: a type
// ordinal, an optional key, a version and a length-prefixed payload.
//
// Ordinals below FirstReserved are bound to a (key, constructor) pair in a
// Registry. The reserved ordinals fix how the key is written and carry
// their payload as opaque bytes.
package ordinal

import (
	"fmt"

	"xdao.co/vdxf/address"
	"xdao.co/vdxf/wire"
)

// Reserved ordinals.
const (
	// Data with no key.
	TypeNone uint64 = 100
	// Key written as a raw 20-byte hash.
	TypeHashKey uint64 = 101
	// Key written as a UTF-8 VDXF key name ("vrsc::a.b").
	TypeKeyName uint64 = 102
	// Key written as a UTF-8 identity or currency name.
	TypeIDOrCurrency uint64 = 103

	FirstReserved = TypeNone
	LastReserved  = TypeIDOrCurrency
)

// KeyMode is how an object's key appears on the wire.
type KeyMode int

const (
	// KeyImplicit: the key is implied by a registered ordinal.
	KeyImplicit KeyMode = iota
	KeyNone
	KeyHash
	KeyText
)

// IsReserved reports whether ord is one of the reserved sentinels.
func IsReserved(ord uint64) bool {
	return ord >= FirstReserved && ord <= LastReserved
}

// ModeOf returns the key mode for ord.
func ModeOf(ord uint64) KeyMode {
	switch ord {
	case TypeNone:
		return KeyNone
	case TypeHashKey:
		return KeyHash
	case TypeKeyName, TypeIDOrCurrency:
		return KeyText
	default:
		return KeyImplicit
	}
}

// Payload is the body of an Object. Implementations decode from the exact
// bytes of the payload var-slice and may gate on the object's version.
type Payload interface {
	ByteLength() int
	Encode(w *wire.Writer)
	Decode(b []byte, version uint64) error
}

// Constructor returns an empty payload ready for Decode.
type Constructor func() Payload

// Opaque carries payload bytes without interpreting them.
type Opaque struct {
	Data []byte
}

func (p *Opaque) ByteLength() int       { return len(p.Data) }
func (p *Opaque) Encode(w *wire.Writer) { w.WriteSlice(p.Data) }

func (p *Opaque) Decode(b []byte, _ uint64) error {
	p.Data = make([]byte, len(b))
	copy(p.Data, b)
	return nil
}

// Object is one self-describing record.
type Object struct {
	Ordinal uint64
	// Key is the 20-byte key for TypeHashKey objects and for registered
	// ordinals after decoding.
	Key address.Hash160
	// KeyName is the textual key for TypeKeyName and TypeIDOrCurrency.
	KeyName string
	Version uint64
	Payload Payload
}

// New returns an object for a registered ordinal.
func New(ord, version uint64, p Payload) Object {
	return Object{Ordinal: ord, Version: version, Payload: p}
}

// NewKeyed returns an object keyed by a raw hash.
func NewKeyed(key address.Hash160, version uint64, p Payload) Object {
	return Object{Ordinal: TypeHashKey, Key: key, Version: version, Payload: p}
}

// NewNamed returns an object keyed by a VDXF key name.
func NewNamed(name string, version uint64, p Payload) Object {
	return Object{Ordinal: TypeKeyName, KeyName: name, Version: version, Payload: p}
}

func (o Object) payloadLen() int {
	if o.Payload == nil {
		return 0
	}
	return o.Payload.ByteLength()
}

// ByteLength implements wire.Encodable.
func (o Object) ByteLength() int {
	n := wire.CompactSizeLen(o.Ordinal)
	switch ModeOf(o.Ordinal) {
	case KeyHash:
		n += address.HashLength
	case KeyText:
		n += wire.VarSliceLen(len(o.KeyName))
	}
	return n + wire.VarIntLen(o.Version) + wire.VarSliceLen(o.payloadLen())
}

// Encode implements wire.Encodable.
func (o Object) Encode(w *wire.Writer) {
	if o.Payload == nil {
		w.Fail(wire.NewError(wire.KindInvariant, "VDXF-INV-201",
			fmt.Sprintf("object with ordinal %d has no payload", o.Ordinal)))
		return
	}
	w.WriteCompactSize(o.Ordinal)
	switch ModeOf(o.Ordinal) {
	case KeyHash:
		w.WriteSlice(o.Key[:])
	case KeyText:
		w.WriteVarString(o.KeyName)
	}
	w.WriteVarInt(o.Version)
	w.WriteCompactSize(uint64(o.Payload.ByteLength()))
	o.Payload.Encode(w)
}

// Bytes returns the serialization of o.
func (o Object) Bytes() ([]byte, error) {
	return wire.Marshal(o)
}

// PayloadBytes returns the serialized payload alone.
func (o Object) PayloadBytes() ([]byte, error) {
	if o.Payload == nil {
		return nil, nil
	}
	return wire.Marshal(o.Payload)
}
