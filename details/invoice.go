package details

import (
	"fmt"
	"math/big"

	"xdao.co/vdxf/address"
	"xdao.co/vdxf/compact"
	"xdao.co/vdxf/ordinal"
	"xdao.co/vdxf/wire"
)

const (
	InvoiceFirstValidVersion uint64 = 1
	InvoiceLastValidVersion  uint64 = 2
	InvoiceDefaultVersion           = InvoiceLastValidVersion
)

// Invoice flags, derived from field presence.
const (
	InvoiceFlagHasExpiry uint64 = 1
	InvoiceFlagHasMemo   uint64 = 2

	knownInvoiceFlags = InvoiceFlagHasExpiry | InvoiceFlagHasMemo
)

// Invoice asks for a payment of Amount units of Currency to Destination.
//
// The amount is a fixed 8-byte little-endian integer in version 1 and a
// BigVarInt from version 2 on.
type Invoice struct {
	Version     uint64
	Amount      *big.Int
	Currency    address.Hash160
	Destination compact.Address
	// ExpiryHeight is the last block height the invoice may be paid at;
	// zero means it does not expire.
	ExpiryHeight uint64
	Memo         string

	// RootSystem resolves FQN destinations when decoding.
	RootSystem string
}

var InvoiceRules = []Rule[*Invoice]{
	{ID: "VDXF-VAL-711", Apply: func(v *Invoice) error {
		if v.Amount == nil || v.Amount.Sign() < 0 {
			return wire.NewError(wire.KindValidation, "VDXF-VAL-711", "invoice amount must be non-negative")
		}
		return nil
	}},
	{ID: "VDXF-VAL-712", Apply: func(v *Invoice) error {
		if v.Version < 2 && v.Amount != nil && !v.Amount.IsInt64() {
			return wire.NewError(wire.KindValidation, "VDXF-VAL-712",
				fmt.Sprintf("invoice version %d amount does not fit in 64 bits", v.Version))
		}
		return nil
	}},
	{ID: "VDXF-VAL-713", Apply: func(v *Invoice) error {
		if v.Currency.IsZero() {
			return wire.NewError(wire.KindValidation, "VDXF-VAL-713", "invoice has no currency")
		}
		if v.Destination.IsZero() {
			return wire.NewError(wire.KindValidation, "VDXF-VAL-713", "invoice has no destination")
		}
		return nil
	}},
}

func (v *Invoice) Validate() error {
	return ValidateRules(v, InvoiceRules)
}

func (v *Invoice) flags() uint64 {
	var f uint64
	if v.ExpiryHeight != 0 {
		f |= InvoiceFlagHasExpiry
	}
	if v.Memo != "" {
		f |= InvoiceFlagHasMemo
	}
	return f
}

func (v *Invoice) amountLen() int {
	if v.Version < 2 {
		return 8
	}
	return wire.BigVarIntLen(v.amount())
}

func (v *Invoice) amount() *big.Int {
	if v.Amount == nil {
		return new(big.Int)
	}
	return v.Amount
}

func (v *Invoice) ByteLength() int {
	n := wire.VarIntLen(v.flags()) + v.amountLen() + address.HashLength + v.Destination.ByteLength()
	if v.ExpiryHeight != 0 {
		n += wire.VarIntLen(v.ExpiryHeight)
	}
	if v.Memo != "" {
		n += wire.VarSliceLen(len(v.Memo))
	}
	return n
}

func (v *Invoice) Encode(w *wire.Writer) {
	w.WriteVarInt(v.flags())
	if v.Version < 2 {
		a := v.amount()
		if !a.IsInt64() {
			w.Fail(wire.NewError(wire.KindInvariant, "VDXF-INV-711", "version 1 invoice amount exceeds 64 bits"))
			return
		}
		w.WriteInt64(a.Int64())
	} else {
		w.WriteBigVarInt(v.amount())
	}
	w.WriteSlice(v.Currency[:])
	v.Destination.Encode(w)
	if v.ExpiryHeight != 0 {
		w.WriteVarInt(v.ExpiryHeight)
	}
	if v.Memo != "" {
		w.WriteVarString(v.Memo)
	}
}

// Decode implements ordinal.Payload.
func (v *Invoice) Decode(b []byte, version uint64) error {
	if version < InvoiceFirstValidVersion || version > InvoiceLastValidVersion {
		return unsupportedVersion("invoice", version)
	}
	v.Version = version
	r := wire.NewReader(b)
	flags, err := r.ReadVarInt()
	if err != nil {
		return err
	}
	if flags&^knownInvoiceFlags != 0 {
		return wire.NewError(wire.KindFormat, "VDXF-FMT-711", fmt.Sprintf("unknown invoice flags 0x%x", flags))
	}
	if version < 2 {
		a, err := r.ReadInt64()
		if err != nil {
			return err
		}
		v.Amount = big.NewInt(a)
	} else {
		n, err := r.ReadBigVarInt()
		if err != nil {
			return err
		}
		if n.Cmp(maxV2Amount) > 0 {
			return wire.NewError(wire.KindRange, "VDXF-RNG-711", "invoice amount out of range")
		}
		v.Amount = n
	}
	cur, err := r.ReadSlice(address.HashLength)
	if err != nil {
		return err
	}
	copy(v.Currency[:], cur)
	if v.Destination, err = compact.Decode(r, v.RootSystem); err != nil {
		return err
	}
	if flags&InvoiceFlagHasExpiry != 0 {
		if v.ExpiryHeight, err = r.ReadVarInt(); err != nil {
			return err
		}
	}
	if flags&InvoiceFlagHasMemo != 0 {
		if v.Memo, err = r.ReadVarString(); err != nil {
			return err
		}
	}
	if err := r.ExpectEOF(); err != nil {
		return err
	}
	return v.Validate()
}

// maxV2Amount bounds BigVarInt amounts to 256 bits.
var maxV2Amount = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

func (v *Invoice) Object() (ordinal.Object, error) {
	if err := v.Validate(); err != nil {
		return ordinal.Object{}, err
	}
	return ordinal.New(OrdinalInvoice, v.Version, v), nil
}
