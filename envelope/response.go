package envelope

import (
	"bytes"
	"fmt"

	"xdao.co/vdxf/compact"
	"xdao.co/vdxf/signature"
	"xdao.co/vdxf/wire"
)

// Response flags, in addition to the base flags.
const (
	FlagHasRequestHash uint64 = 32
	FlagHasRequestID   uint64 = 64

	responseFlags = baseFlags | FlagHasRequestHash | FlagHasRequestID
)

// Response is an envelope a wallet returns for a Request.
type Response struct {
	Envelope

	// RequestHash is the digest of the request being answered, computed
	// with RequestHashType.
	RequestHash     []byte
	RequestHashType signature.HashType
	RequestID       compact.Address
}

type responseSection struct{ p *Response }

func (s responseSection) flags() uint64 {
	var f uint64
	if len(s.p.RequestHash) > 0 {
		f |= FlagHasRequestHash
	}
	if !s.p.RequestID.IsZero() {
		f |= FlagHasRequestID
	}
	return f
}

func (s responseSection) length() int {
	var n int
	if len(s.p.RequestHash) > 0 {
		n += wire.VarIntLen(uint64(s.p.RequestHashType)) + wire.VarSliceLen(len(s.p.RequestHash))
	}
	if !s.p.RequestID.IsZero() {
		n += s.p.RequestID.ByteLength()
	}
	return n
}

func (s responseSection) encode(w *wire.Writer) {
	if len(s.p.RequestHash) > 0 {
		if !s.p.RequestHashType.Valid() {
			w.Fail(wire.NewError(wire.KindInvariant, "VDXF-INV-522",
				fmt.Sprintf("request hash has unrecognized hash type %d", uint64(s.p.RequestHashType))))
			return
		}
		w.WriteVarInt(uint64(s.p.RequestHashType))
		w.WriteVarSlice(s.p.RequestHash)
	}
	if !s.p.RequestID.IsZero() {
		s.p.RequestID.Encode(w)
	}
}

func (p *Response) Flags() uint64 { return p.Envelope.Flags() | responseSection{p}.flags() }

func (p *Response) ByteLength() int { return p.lengthWith(responseSection{p}, true) }

func (p *Response) Encode(w *wire.Writer) { p.encodeWith(w, responseSection{p}, true) }

func (p *Response) Bytes() ([]byte, error) { return marshalWith(&p.Envelope, responseSection{p}, true) }

func (p *Response) ContentHash(includeSignature bool) ([32]byte, error) {
	return contentHash(&p.Envelope, responseSection{p}, includeSignature)
}

func (p *Response) IdentityHash(height uint32) ([32]byte, error) {
	return identityHash(&p.Envelope, responseSection{p}, height)
}

// BindRequest records the hash of q's serialization, computed with h.
func (p *Response) BindRequest(q *Request, h signature.HashType) error {
	b, err := q.Bytes()
	if err != nil {
		return err
	}
	sum, err := signature.Sum(h, b)
	if err != nil {
		return err
	}
	p.RequestHash = sum[:]
	p.RequestHashType = h
	return nil
}

// Answers reports whether p carries the hash of q.
func (p *Response) Answers(q *Request) (bool, error) {
	if len(p.RequestHash) == 0 {
		return false, nil
	}
	b, err := q.Bytes()
	if err != nil {
		return false, err
	}
	sum, err := signature.Sum(p.RequestHashType, b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(sum[:], p.RequestHash), nil
}

// DecodeResponse parses a serialized Response.
func (d *Decoder) DecodeResponse(b []byte) (*Response, error) {
	r := wire.NewReader(b)
	e, flags, err := d.decodeBase(r, "response", responseFlags)
	if err != nil {
		return nil, err
	}
	p := &Response{Envelope: *e}

	if flags&FlagHasRequestHash != 0 {
		ht, err := r.ReadVarInt()
		if err != nil {
			return nil, err
		}
		p.RequestHashType = signature.HashType(ht)
		if !p.RequestHashType.Valid() {
			return nil, wire.NewError(wire.KindRange, "VDXF-RNG-521",
				fmt.Sprintf("unrecognized request hash type %d", ht))
		}
		if p.RequestHash, err = r.ReadVarSlice(); err != nil {
			return nil, err
		}
		if len(p.RequestHash) == 0 {
			return nil, wire.NewError(wire.KindInvariant, "VDXF-INV-521", "request hash flag set with empty hash")
		}
	}
	if flags&FlagHasRequestID != 0 {
		if p.RequestID, err = compact.Decode(r, d.rootSystem()); err != nil {
			return nil, err
		}
	}
	return p, r.ExpectEOF()
}
