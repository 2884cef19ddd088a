package envelope

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"

	"xdao.co/vdxf/address"
	"xdao.co/vdxf/compact"
	"xdao.co/vdxf/ordinal"
	"xdao.co/vdxf/signature"
	"xdao.co/vdxf/transport"
	"xdao.co/vdxf/wire"
)

func detail(b ...byte) ordinal.Object {
	return ordinal.Object{Ordinal: ordinal.TypeNone, Version: 1, Payload: &ordinal.Opaque{Data: b}}
}

func testSignature(t *testing.T) *signature.Block {
	t.Helper()
	sys, err := compact.FromFQN("VRSC@", "VRSC")
	require.NoError(t, err)
	id, err := compact.FromFQN("chips@", "VRSC")
	require.NoError(t, err)
	return &signature.Block{
		Version:    signature.DefaultVersion,
		HashType:   signature.HashSHA256,
		SystemID:   sys,
		IdentityID: id,
		Signature:  []byte{0xaa, 0xbb},
	}
}

func TestEnvelope_MultiDetailsAndTransports(t *testing.T) {
	d := NewDecoder(nil, "")
	single := &Envelope{Version: DefaultVersion, Details: []ordinal.Object{detail(1, 2, 3)}}
	multi := &Envelope{Version: DefaultVersion, Details: []ordinal.Object{detail(1), detail(2, 3)}}

	require.False(t, single.IsMultiDetails())
	require.True(t, multi.IsMultiDetails())

	for _, e := range []*Envelope{single, multi} {
		b, err := e.Bytes()
		require.NoError(t, err)
		require.Len(t, b, e.ByteLength())

		got, err := d.Decode(b)
		require.NoError(t, err)
		require.Equal(t, e, got)

		key := address.HashOf([]byte("vrsc::test.request"))
		forms := []string{
			transport.EncodeBase64URL(b),
			transport.QRString(b),
			transport.DeepLink{Key: key, Payload: b}.String(),
			transport.IdentityURI{Version: 1, Payload: b}.String(),
		}
		for _, s := range forms {
			raw, err := transport.Parse(s)
			require.NoError(t, err, s)
			require.Equal(t, b, raw, s)

			again, err := d.Decode(raw)
			require.NoError(t, err)
			ab, err := again.Bytes()
			require.NoError(t, err)
			require.Equal(t, b, ab)
		}
	}

	// A single detail is written without a count prefix.
	b, err := single.Bytes()
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x00, 0x64, 0x01, 0x03, 1, 2, 3}, b)
}

func TestEnvelope_AllSections(t *testing.T) {
	e := &Envelope{
		Version:   DefaultVersion,
		Testnet:   true,
		Signature: testSignature(t),
		CreatedAt: 1700000000,
		Salt:      []byte("salty"),
		Details:   []ordinal.Object{detail(9)},
	}
	require.Equal(t, FlagSigned|FlagHasCreatedAt|FlagIsTestnet|FlagHasSalt, e.Flags())

	b, err := e.Bytes()
	require.NoError(t, err)
	got, err := NewDecoder(nil, "VRSC").Decode(b)
	require.NoError(t, err)
	require.Equal(t, e.Flags(), got.Flags())
	require.Equal(t, e.CreatedAt, got.CreatedAt)
	require.Equal(t, e.Salt, got.Salt)
	require.True(t, got.Testnet)
	require.Equal(t, "chips@", got.Signature.IdentityID.Name())

	again, err := got.Bytes()
	require.NoError(t, err)
	require.Equal(t, b, again)
}

func TestDecode_EmptyBuffer(t *testing.T) {
	d := NewDecoder(nil, "")
	_, err := d.DecodeResponse(nil)
	require.EqualError(t, err, "cannot create response from empty buffer")
	_, err = d.DecodeRequest([]byte{})
	require.EqualError(t, err, "cannot create request from empty buffer")
	_, err = d.Decode(nil)
	require.EqualError(t, err, "cannot create envelope from empty buffer")
	require.True(t, wire.IsKind(err, wire.KindFormat))
}

func TestDecode_VersionGate(t *testing.T) {
	e := &Envelope{Version: LastValidVersion + 1, Details: []ordinal.Object{detail(1)}}
	b, err := e.Bytes()
	require.NoError(t, err)

	_, err = NewDecoder(nil, "").Decode(b)
	require.True(t, wire.IsKind(err, wire.KindRange))
	require.Contains(t, err.Error(), "unsupported version")

	e.Version = 0
	b, err = e.Bytes()
	require.NoError(t, err)
	_, err = NewDecoder(nil, "").Decode(b)
	require.True(t, wire.IsKind(err, wire.KindRange))
}

func TestDecode_FlagConsistency(t *testing.T) {
	d := NewDecoder(nil, "")
	tests := []struct {
		name string
		in   []byte
		kind wire.Kind
	}{
		{"unknown flag", []byte{0x01, 0x20, 0x64, 0x01, 0x00}, wire.KindFormat},
		{"multi with one", []byte{0x01, 0x04, 0x01, 0x64, 0x01, 0x00}, wire.KindInvariant},
		{"empty salt", []byte{0x01, 0x10, 0x00, 0x64, 0x01, 0x00}, wire.KindInvariant},
		{"missing detail", []byte{0x01, 0x00}, wire.KindFormat},
		{"trailing", []byte{0x01, 0x00, 0x64, 0x01, 0x00, 0xff}, wire.KindFormat},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := d.Decode(tc.in)
			require.Error(t, err)
			require.True(t, wire.IsKind(err, tc.kind), "got %v", err)
		})
	}

	// Response flag bits are not envelope flag bits.
	_, err := d.Decode([]byte{0x01, 0x40, 0x64, 0x01, 0x00})
	require.True(t, wire.IsKind(err, wire.KindFormat))
}

func TestEncode_NoDetailsFails(t *testing.T) {
	_, err := (&Envelope{Version: 1}).Bytes()
	require.True(t, wire.IsKind(err, wire.KindInvariant))
}

func TestContentHash(t *testing.T) {
	unsigned := &Envelope{Version: 1, CreatedAt: 5, Details: []ordinal.Object{detail(1)}}
	before, err := unsigned.ContentHash(false)
	require.NoError(t, err)

	b, err := unsigned.Bytes()
	require.NoError(t, err)
	require.Equal(t, sha256.Sum256(b), before)

	signed := *unsigned
	signed.Signature = testSignature(t)
	after, err := signed.ContentHash(false)
	require.NoError(t, err)
	require.Equal(t, before, after, "signing must not change the hash that was signed")

	full, err := signed.ContentHash(true)
	require.NoError(t, err)
	require.NotEqual(t, before, full)

	sb, err := signed.Bytes()
	require.NoError(t, err)
	require.Equal(t, sha256.Sum256(sb), full)

	ih, err := signed.IdentityHash(100)
	require.NoError(t, err)
	want, err := signed.Signature.IdentityHash(100, before[:])
	require.NoError(t, err)
	require.Equal(t, want, ih)

	_, err = unsigned.IdentityHash(100)
	require.True(t, wire.IsKind(err, wire.KindInvariant))
}

func TestRequest_RoundTrip(t *testing.T) {
	pa := address.PaymentAddress{Diversifier: [11]byte{1, 2, 3}, PkD: [32]byte{4, 5, 6}}
	q := &Request{
		Envelope: Envelope{Version: 1, Signature: testSignature(t), Details: []ordinal.Object{detail(1), detail(2)}},
		ResponseURIs: []ResponseURI{
			{Type: ResponseRedirect, URI: "https://example.com/cb"},
			{Type: ResponsePost, URI: "https://example.com/post"},
		},
		EncryptResponseTo: &pa,
	}
	require.Equal(t, FlagSigned|FlagMultiDetails|FlagHasResponseURIs|FlagHasEncryptResponseTo, q.Flags())

	b, err := q.Bytes()
	require.NoError(t, err)
	require.Len(t, b, q.ByteLength())

	got, err := NewDecoder(nil, "").DecodeRequest(b)
	require.NoError(t, err)
	require.Equal(t, q.ResponseURIs, got.ResponseURIs)
	require.Equal(t, pa, *got.EncryptResponseTo)

	again, err := got.Bytes()
	require.NoError(t, err)
	require.Equal(t, b, again)

	// The request sections change the content hash.
	plain := &Request{Envelope: q.Envelope}
	h1, err := q.ContentHash(false)
	require.NoError(t, err)
	h2, err := plain.ContentHash(false)
	require.NoError(t, err)
	require.NotEqual(t, h1, h2)
}

func TestResponse_RoundTripAndBinding(t *testing.T) {
	q := &Request{Envelope: Envelope{Version: 1, Details: []ordinal.Object{detail(7)}}}
	reqID, err := compact.FromIAddress("iJ3WZocnjG9ufv7GKUA4LijQno5gTMb7tP")
	require.NoError(t, err)

	p := &Response{
		Envelope:  Envelope{Version: 1, CreatedAt: 1700000001, Details: []ordinal.Object{detail(8)}},
		RequestID: reqID,
	}
	require.NoError(t, p.BindRequest(q, signature.HashKeccak256))
	require.Equal(t, FlagHasCreatedAt|FlagHasRequestHash|FlagHasRequestID, p.Flags())

	ok, err := p.Answers(q)
	require.NoError(t, err)
	require.True(t, ok)

	b, err := p.Bytes()
	require.NoError(t, err)
	got, err := NewDecoder(nil, "").DecodeResponse(b)
	require.NoError(t, err)
	require.Equal(t, signature.HashKeccak256, got.RequestHashType)
	require.Equal(t, p.RequestHash, got.RequestHash)
	require.True(t, reqID.Equal(got.RequestID))

	ok, err = got.Answers(q)
	require.NoError(t, err)
	require.True(t, ok)

	other := &Request{Envelope: Envelope{Version: 1, Details: []ordinal.Object{detail(9)}}}
	ok, err = got.Answers(other)
	require.NoError(t, err)
	require.False(t, ok)

	again, err := got.Bytes()
	require.NoError(t, err)
	require.Equal(t, b, again)
}

func TestEncode_RefusesWhatDecodeRejects(t *testing.T) {
	d := NewDecoder(nil, "")

	p := &Response{
		Envelope:    Envelope{Version: 1, Details: []ordinal.Object{detail(1)}},
		RequestHash: []byte{1, 2, 3},
	}
	_, err := p.Bytes()
	require.Equal(t, "VDXF-INV-522", wire.RuleID(err))
	p.RequestHashType = signature.HashSHA256
	b, err := p.Bytes()
	require.NoError(t, err)
	_, err = d.DecodeResponse(b)
	require.NoError(t, err)

	sig := testSignature(t)
	sig.HashType = 0
	signed := &Envelope{Version: 1, Signature: sig, Details: []ordinal.Object{detail(1)}}
	_, err = signed.Bytes()
	require.True(t, wire.IsKind(err, wire.KindInvariant))
	require.Equal(t, "VDXF-INV-403", wire.RuleID(err))

	q := &Request{
		Envelope:     Envelope{Version: 1, Details: []ordinal.Object{detail(1)}},
		ResponseURIs: []ResponseURI{{Type: 7, URI: "https://example.com/cb"}},
	}
	_, err = q.Bytes()
	require.Equal(t, "VDXF-INV-511", wire.RuleID(err))

	q.ResponseURIs[0] = ResponseURI{Type: ResponseRedirect, URI: string([]byte{'h', 0xff})}
	_, err = q.Bytes()
	require.Equal(t, "VDXF-INV-005", wire.RuleID(err))

	q.ResponseURIs[0].URI = "https://example.com/cb"
	b, err = q.Bytes()
	require.NoError(t, err)
	_, err = d.DecodeRequest(b)
	require.NoError(t, err)
}
