package details

import (
	"fmt"

	"xdao.co/vdxf/address"
	"xdao.co/vdxf/ordinal"
	"xdao.co/vdxf/wire"
)

// RequestItem format flags.
const (
	FormatFullData    uint64 = 1
	FormatPartialData uint64 = 2
	FormatCollection  uint64 = 4

	knownFormats = FormatFullData | FormatPartialData | FormatCollection
)

// RequestItem asks a wallet for identity data of one type, either whole
// or restricted to a set of fields.
type RequestItem struct {
	Version uint64
	Format  uint64
	// DataType is the VDXF key of the requested record type.
	DataType address.Hash160
	// Fields lists the requested field keys for partial requests.
	Fields      []address.Hash160
	Description string
}

// RequestItemRules are the validation rules for a RequestItem, in order.
var RequestItemRules = []Rule[*RequestItem]{
	{ID: "VDXF-VAL-701", Apply: func(r *RequestItem) error {
		if r.Format&^knownFormats != 0 {
			return wire.NewError(wire.KindValidation, "VDXF-VAL-701",
				fmt.Sprintf("unknown request item format bits 0x%x", r.Format&^knownFormats))
		}
		return nil
	}},
	{ID: "VDXF-VAL-702", Apply: func(r *RequestItem) error {
		full := r.Format&FormatFullData != 0
		partial := r.Format&FormatPartialData != 0
		if full == partial {
			return wire.NewError(wire.KindValidation, "VDXF-VAL-702",
				"request item format must be exactly one of FULL_DATA and PARTIAL_DATA")
		}
		return nil
	}},
	{ID: "VDXF-VAL-703", Apply: func(r *RequestItem) error {
		if r.Format&FormatPartialData != 0 && len(r.Fields) == 0 {
			return wire.NewError(wire.KindValidation, "VDXF-VAL-703", "partial request item lists no fields")
		}
		if r.Format&FormatFullData != 0 && len(r.Fields) != 0 {
			return wire.NewError(wire.KindValidation, "VDXF-VAL-703", "full request item must not list fields")
		}
		return nil
	}},
	{ID: "VDXF-VAL-704", Apply: func(r *RequestItem) error {
		if r.DataType.IsZero() {
			return wire.NewError(wire.KindValidation, "VDXF-VAL-704", "request item has no data type")
		}
		return nil
	}},
}

// Validate runs RequestItemRules.
func (r *RequestItem) Validate() error {
	return ValidateRules(r, RequestItemRules)
}

func (r *RequestItem) ByteLength() int {
	return wire.VarIntLen(r.Format) + address.HashLength +
		wire.ArrayLen(len(r.Fields), address.HashLength) + wire.VarSliceLen(len(r.Description))
}

func (r *RequestItem) Encode(w *wire.Writer) {
	w.WriteVarInt(r.Format)
	w.WriteSlice(r.DataType[:])
	items := make([][]byte, len(r.Fields))
	for i := range r.Fields {
		items[i] = r.Fields[i][:]
	}
	w.WriteArray(items, address.HashLength)
	w.WriteVarString(r.Description)
}

// Decode implements ordinal.Payload. The decoded item must validate.
func (r *RequestItem) Decode(b []byte, version uint64) error {
	if version < FirstValidVersion || version > LastValidVersion {
		return unsupportedVersion("request item", version)
	}
	rd := wire.NewReader(b)
	var err error
	if r.Format, err = rd.ReadVarInt(); err != nil {
		return err
	}
	dt, err := rd.ReadSlice(address.HashLength)
	if err != nil {
		return err
	}
	copy(r.DataType[:], dt)
	items, err := rd.ReadArray(address.HashLength)
	if err != nil {
		return err
	}
	r.Fields = nil
	for _, item := range items {
		var h address.Hash160
		copy(h[:], item)
		r.Fields = append(r.Fields, h)
	}
	if r.Description, err = rd.ReadVarString(); err != nil {
		return err
	}
	if err := rd.ExpectEOF(); err != nil {
		return err
	}
	r.Version = version
	return r.Validate()
}

// Object wraps r for an envelope. It fails if r does not validate.
func (r *RequestItem) Object() (ordinal.Object, error) {
	if err := r.Validate(); err != nil {
		return ordinal.Object{}, err
	}
	return ordinal.New(OrdinalRequestItem, r.Version, r), nil
}
