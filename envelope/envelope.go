// Package envelope implements the outer VDXF container: a versioned,
// flagged wrapper around one or more detail records, optionally signed.
//
// Flags are never authored directly. Each encoder derives them from the
// fields that are present, so the flag word and the sections that follow
// it cannot disagree on the wire. Request and Response share the base
// encoding and append their own sections after it.
package envelope

import (
	"crypto/sha256"
	"fmt"

	"xdao.co/vdxf/ordinal"
	"xdao.co/vdxf/signature"
	"xdao.co/vdxf/wire"
)

const (
	FirstValidVersion uint64 = 1
	LastValidVersion  uint64 = 1
	DefaultVersion           = LastValidVersion
)

// Base envelope flags.
const (
	FlagSigned       uint64 = 1
	FlagHasCreatedAt uint64 = 2
	FlagMultiDetails uint64 = 4
	FlagIsTestnet    uint64 = 8
	FlagHasSalt      uint64 = 16

	baseFlags = FlagSigned | FlagHasCreatedAt | FlagMultiDetails | FlagIsTestnet | FlagHasSalt
)

// Envelope is the shared part of every request and response.
type Envelope struct {
	Version uint64
	Testnet bool

	Signature *signature.Block
	// CreatedAt is a Unix timestamp in seconds; zero means absent.
	CreatedAt uint64
	Salt      []byte

	Details []ordinal.Object
}

// section is the part a variant appends after the base envelope.
type section interface {
	flags() uint64
	length() int
	encode(w *wire.Writer)
}

type noSection struct{}

func (noSection) flags() uint64       { return 0 }
func (noSection) length() int         { return 0 }
func (noSection) encode(*wire.Writer) {}

// Flags returns the base flags implied by the populated fields.
func (e *Envelope) Flags() uint64 {
	var f uint64
	if e.Signature != nil {
		f |= FlagSigned
	}
	if e.CreatedAt != 0 {
		f |= FlagHasCreatedAt
	}
	if len(e.Details) > 1 {
		f |= FlagMultiDetails
	}
	if e.Testnet {
		f |= FlagIsTestnet
	}
	if len(e.Salt) > 0 {
		f |= FlagHasSalt
	}
	return f
}

// IsMultiDetails reports whether the details are written with a count prefix.
func (e *Envelope) IsMultiDetails() bool { return e.Flags()&FlagMultiDetails != 0 }

func (e *Envelope) flagsWith(ext section, withSig bool) uint64 {
	f := e.Flags() | ext.flags()
	if !withSig {
		f &^= FlagSigned
	}
	return f
}

func (e *Envelope) lengthWith(ext section, withSig bool) int {
	n := wire.VarIntLen(e.Version) + wire.VarIntLen(e.flagsWith(ext, withSig))
	if withSig && e.Signature != nil {
		n += e.Signature.ByteLength()
	}
	if e.CreatedAt != 0 {
		n += wire.CompactSizeLen(e.CreatedAt)
	}
	if len(e.Salt) > 0 {
		n += wire.VarSliceLen(len(e.Salt))
	}
	if len(e.Details) > 1 {
		n += wire.CompactSizeLen(uint64(len(e.Details)))
	}
	for _, d := range e.Details {
		n += d.ByteLength()
	}
	return n + ext.length()
}

func (e *Envelope) encodeWith(w *wire.Writer, ext section, withSig bool) {
	if len(e.Details) == 0 {
		w.Fail(wire.NewError(wire.KindInvariant, "VDXF-INV-501", "envelope has no details"))
		return
	}
	w.WriteVarInt(e.Version)
	w.WriteVarInt(e.flagsWith(ext, withSig))
	if withSig && e.Signature != nil {
		e.Signature.Encode(w)
	}
	if e.CreatedAt != 0 {
		w.WriteCompactSize(e.CreatedAt)
	}
	if len(e.Salt) > 0 {
		w.WriteVarSlice(e.Salt)
	}
	if len(e.Details) > 1 {
		w.WriteCompactSize(uint64(len(e.Details)))
	}
	for _, d := range e.Details {
		d.Encode(w)
	}
	ext.encode(w)
}

func marshalWith(e *Envelope, ext section, withSig bool) ([]byte, error) {
	w := wire.NewWriter(e.lengthWith(ext, withSig))
	e.encodeWith(w, ext, withSig)
	return w.Finish()
}

// contentHash is SHA-256 over the serialization. Without the signature,
// both the signature section and the SIGNED flag are left out, so the
// hash a signer computes before signing matches the one a verifier
// computes afterwards.
func contentHash(e *Envelope, ext section, includeSignature bool) ([32]byte, error) {
	b, err := marshalWith(e, ext, includeSignature)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(b), nil
}

func identityHash(e *Envelope, ext section, height uint32) ([32]byte, error) {
	if e.Signature == nil {
		return [32]byte{}, wire.NewError(wire.KindInvariant, "VDXF-INV-502", "envelope is not signed")
	}
	h, err := contentHash(e, ext, false)
	if err != nil {
		return [32]byte{}, err
	}
	return e.Signature.IdentityHash(height, h[:])
}

// ByteLength implements wire.Encodable.
func (e *Envelope) ByteLength() int { return e.lengthWith(noSection{}, true) }

// Encode implements wire.Encodable.
func (e *Envelope) Encode(w *wire.Writer) { e.encodeWith(w, noSection{}, true) }

// Bytes returns the serialization of e.
func (e *Envelope) Bytes() ([]byte, error) { return marshalWith(e, noSection{}, true) }

// ContentHash returns SHA-256 over the serialized envelope, optionally
// without its signature.
func (e *Envelope) ContentHash(includeSignature bool) ([32]byte, error) {
	return contentHash(e, noSection{}, includeSignature)
}

// IdentityHash returns what the envelope's signer signs at height.
func (e *Envelope) IdentityHash(height uint32) ([32]byte, error) {
	return identityHash(e, noSection{}, height)
}

// decodeBase reads the shared prefix. what names the record in errors;
// known is the set of flag bits the caller understands.
func (d *Decoder) decodeBase(r *wire.Reader, what string, known uint64) (*Envelope, uint64, error) {
	if r.Remaining() == 0 {
		return nil, 0, wire.NewError(wire.KindFormat, "VDXF-FMT-501",
			fmt.Sprintf("cannot create %s from empty buffer", what))
	}

	var e Envelope
	var err error
	if e.Version, err = r.ReadVarInt(); err != nil {
		return nil, 0, err
	}
	if e.Version < FirstValidVersion || e.Version > LastValidVersion {
		return nil, 0, wire.NewError(wire.KindRange, "VDXF-RNG-501",
			fmt.Sprintf("unsupported version for %s: %d", what, e.Version))
	}
	flags, err := r.ReadVarInt()
	if err != nil {
		return nil, 0, err
	}
	if flags&^known != 0 {
		return nil, 0, wire.NewError(wire.KindFormat, "VDXF-FMT-502",
			fmt.Sprintf("unknown %s flags 0x%x", what, flags&^known))
	}
	e.Testnet = flags&FlagIsTestnet != 0

	if flags&FlagSigned != 0 {
		if e.Signature, err = signature.Decode(r, d.rootSystem()); err != nil {
			return nil, 0, err
		}
	}
	if flags&FlagHasCreatedAt != 0 {
		if e.CreatedAt, err = r.ReadCompactSize(); err != nil {
			return nil, 0, err
		}
		if e.CreatedAt == 0 {
			return nil, 0, wire.NewError(wire.KindInvariant, "VDXF-INV-503", "createdAt flag set with zero timestamp")
		}
	}
	if flags&FlagHasSalt != 0 {
		if e.Salt, err = r.ReadVarSlice(); err != nil {
			return nil, 0, err
		}
		if len(e.Salt) == 0 {
			return nil, 0, wire.NewError(wire.KindInvariant, "VDXF-INV-504", "salt flag set with empty salt")
		}
	}

	count := uint64(1)
	if flags&FlagMultiDetails != 0 {
		if count, err = r.ReadCompactSize(); err != nil {
			return nil, 0, err
		}
		if count < 2 {
			return nil, 0, wire.NewError(wire.KindInvariant, "VDXF-INV-505",
				fmt.Sprintf("multi-details flag set with %d details", count))
		}
		if count > uint64(r.Remaining()) {
			return nil, 0, wire.NewError(wire.KindFormat, "VDXF-FMT-503",
				fmt.Sprintf("detail count %d exceeds remaining %d bytes", count, r.Remaining()))
		}
	}
	e.Details = make([]ordinal.Object, 0, count)
	for i := uint64(0); i < count; i++ {
		o, err := d.registry().Decode(r)
		if err != nil {
			return nil, 0, err
		}
		e.Details = append(e.Details, o)
	}
	return &e, flags, nil
}

// Decode parses a serialized base envelope.
func (d *Decoder) Decode(b []byte) (*Envelope, error) {
	r := wire.NewReader(b)
	e, _, err := d.decodeBase(r, "envelope", baseFlags)
	if err != nil {
		return nil, err
	}
	return e, r.ExpectEOF()
}
