package envelope

import (
	"fmt"

	"xdao.co/vdxf/address"
	"xdao.co/vdxf/wire"
)

// Request flags, in addition to the base flags.
const (
	FlagHasResponseURIs      uint64 = 32
	FlagHasEncryptResponseTo uint64 = 64

	requestFlags = baseFlags | FlagHasResponseURIs | FlagHasEncryptResponseTo
)

// ResponseURIType says how a wallet delivers its response.
type ResponseURIType uint64

const (
	ResponseRedirect ResponseURIType = 1
	ResponsePost     ResponseURIType = 2
)

type ResponseURI struct {
	Type ResponseURIType
	URI  string
}

// Request is an envelope sent to a wallet.
type Request struct {
	Envelope

	ResponseURIs []ResponseURI
	// EncryptResponseTo, when set, is the Sapling address the wallet must
	// encrypt its response to.
	EncryptResponseTo *address.PaymentAddress
}

type requestSection struct{ q *Request }

func (s requestSection) flags() uint64 {
	var f uint64
	if len(s.q.ResponseURIs) > 0 {
		f |= FlagHasResponseURIs
	}
	if s.q.EncryptResponseTo != nil {
		f |= FlagHasEncryptResponseTo
	}
	return f
}

func (s requestSection) length() int {
	var n int
	if len(s.q.ResponseURIs) > 0 {
		n += wire.CompactSizeLen(uint64(len(s.q.ResponseURIs)))
		for _, u := range s.q.ResponseURIs {
			n += wire.CompactSizeLen(uint64(u.Type)) + wire.VarSliceLen(len(u.URI))
		}
	}
	if s.q.EncryptResponseTo != nil {
		n += address.PaymentAddressLength
	}
	return n
}

func (s requestSection) encode(w *wire.Writer) {
	if len(s.q.ResponseURIs) > 0 {
		w.WriteCompactSize(uint64(len(s.q.ResponseURIs)))
		for _, u := range s.q.ResponseURIs {
			if u.Type != ResponseRedirect && u.Type != ResponsePost {
				w.Fail(wire.NewError(wire.KindInvariant, "VDXF-INV-511",
					fmt.Sprintf("unrecognized response URI type %d", uint64(u.Type))))
				return
			}
			w.WriteCompactSize(uint64(u.Type))
			w.WriteVarString(u.URI)
		}
	}
	if s.q.EncryptResponseTo != nil {
		w.WriteSlice(s.q.EncryptResponseTo.Bytes())
	}
}

// Flags returns every flag implied by the populated fields.
func (q *Request) Flags() uint64 { return q.Envelope.Flags() | requestSection{q}.flags() }

func (q *Request) ByteLength() int { return q.lengthWith(requestSection{q}, true) }

func (q *Request) Encode(w *wire.Writer) { q.encodeWith(w, requestSection{q}, true) }

func (q *Request) Bytes() ([]byte, error) { return marshalWith(&q.Envelope, requestSection{q}, true) }

func (q *Request) ContentHash(includeSignature bool) ([32]byte, error) {
	return contentHash(&q.Envelope, requestSection{q}, includeSignature)
}

func (q *Request) IdentityHash(height uint32) ([32]byte, error) {
	return identityHash(&q.Envelope, requestSection{q}, height)
}

// DecodeRequest parses a serialized Request.
func (d *Decoder) DecodeRequest(b []byte) (*Request, error) {
	r := wire.NewReader(b)
	e, flags, err := d.decodeBase(r, "request", requestFlags)
	if err != nil {
		return nil, err
	}
	q := &Request{Envelope: *e}

	if flags&FlagHasResponseURIs != 0 {
		n, err := r.ReadCompactSize()
		if err != nil {
			return nil, err
		}
		if n == 0 || n > uint64(r.Remaining()) {
			return nil, wire.NewError(wire.KindFormat, "VDXF-FMT-511",
				fmt.Sprintf("invalid response URI count %d", n))
		}
		q.ResponseURIs = make([]ResponseURI, n)
		for i := range q.ResponseURIs {
			t, err := r.ReadCompactSize()
			if err != nil {
				return nil, err
			}
			if t != uint64(ResponseRedirect) && t != uint64(ResponsePost) {
				return nil, wire.NewError(wire.KindRange, "VDXF-RNG-511",
					fmt.Sprintf("unrecognized response URI type %d", t))
			}
			uri, err := r.ReadVarString()
			if err != nil {
				return nil, err
			}
			q.ResponseURIs[i] = ResponseURI{Type: ResponseURIType(t), URI: uri}
		}
	}
	if flags&FlagHasEncryptResponseTo != 0 {
		raw, err := r.ReadSlice(address.PaymentAddressLength)
		if err != nil {
			return nil, err
		}
		pa, err := address.ParsePaymentAddress(raw)
		if err != nil {
			return nil, err
		}
		q.EncryptResponseTo = &pa
	}
	return q, r.ExpectEOF()
}
