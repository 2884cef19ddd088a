package details

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"xdao.co/vdxf/address"
	"xdao.co/vdxf/compact"
	"xdao.co/vdxf/envelope"
	"xdao.co/vdxf/keys"
	"xdao.co/vdxf/ordinal"
	"xdao.co/vdxf/wire"
)

func newRegistry(t *testing.T) *ordinal.Registry {
	t.Helper()
	reg, err := NewRegistry("VRSC")
	require.NoError(t, err)
	return reg
}

func TestRequestItem_FormatValidation(t *testing.T) {
	dataType := keys.MustKeyID("vrsc::identity.profile")

	full := &RequestItem{Version: 1, Format: FormatFullData, DataType: dataType}
	require.NoError(t, full.Validate())

	both := &RequestItem{Version: 1, Format: FormatFullData | FormatPartialData, DataType: dataType}
	err := both.Validate()
	require.True(t, wire.IsKind(err, wire.KindValidation))
	require.Equal(t, "VDXF-VAL-702", wire.RuleID(err))

	neither := &RequestItem{Version: 1, Format: FormatCollection, DataType: dataType}
	require.Equal(t, "VDXF-VAL-702", wire.RuleID(neither.Validate()))

	partial := &RequestItem{Version: 1, Format: FormatPartialData, DataType: dataType}
	require.Equal(t, "VDXF-VAL-703", wire.RuleID(partial.Validate()))
	partial.Fields = []address.Hash160{keys.MustKeyID("vrsc::identity.profile.name")}
	require.NoError(t, partial.Validate())

	errs := ValidateRulesAll(&RequestItem{Format: 0x80 | FormatFullData | FormatPartialData}, RequestItemRules)
	require.Len(t, errs, 4)
	require.Equal(t, "VDXF-VAL-701", wire.RuleID(errs[0]))
	require.Equal(t, "VDXF-VAL-702", wire.RuleID(errs[1]))
	require.Equal(t, "VDXF-VAL-703", wire.RuleID(errs[2]))
	require.Equal(t, "VDXF-VAL-704", wire.RuleID(errs[3]))
}

func TestRequestItem_RoundTripAndDecodeValidation(t *testing.T) {
	reg := newRegistry(t)
	item := &RequestItem{
		Version:     1,
		Format:      FormatPartialData | FormatCollection,
		DataType:    keys.MustKeyID("vrsc::identity.profile"),
		Fields:      []address.Hash160{keys.MustKeyID("vrsc::identity.profile.name")},
		Description: "name only",
	}
	o, err := item.Object()
	require.NoError(t, err)
	b, err := o.Bytes()
	require.NoError(t, err)

	got, err := reg.Parse(b)
	require.NoError(t, err)
	require.Equal(t, OrdinalRequestItem, got.Ordinal)
	require.Equal(t, item, got.Payload)

	// A well-formed but invalid item is rejected at decode.
	bad := *item
	bad.Format = FormatFullData | FormatPartialData
	b, err = ordinal.New(OrdinalRequestItem, 1, &bad).Bytes()
	require.NoError(t, err)
	_, err = reg.Parse(b)
	require.True(t, wire.IsKind(err, wire.KindValidation))

	_, err = bad.Object()
	require.Error(t, err)
}

func testInvoice(t *testing.T, version uint64, amount *big.Int) *Invoice {
	t.Helper()
	dest, err := compact.FromFQN("merchant.chips@", "VRSC")
	require.NoError(t, err)
	cur, err := address.IdentityID("VRSC", "VRSC")
	require.NoError(t, err)
	return &Invoice{
		Version:      version,
		Amount:       amount,
		Currency:     cur,
		Destination:  dest,
		ExpiryHeight: 3_000_000,
		Memo:         "order 42",
	}
}

func TestInvoice_VersionKeyedAmountWidth(t *testing.T) {
	reg := newRegistry(t)
	amount := big.NewInt(150_000_000)

	v1 := testInvoice(t, 1, amount)
	v2 := testInvoice(t, 2, amount)
	require.Equal(t, v1.ByteLength()-8+wire.BigVarIntLen(amount), v2.ByteLength())

	for _, inv := range []*Invoice{v1, v2} {
		o, err := inv.Object()
		require.NoError(t, err)
		b, err := o.Bytes()
		require.NoError(t, err)

		got, err := reg.Parse(b)
		require.NoError(t, err)
		gi := got.Payload.(*Invoice)
		require.Equal(t, inv.Version, gi.Version)
		require.Equal(t, 0, inv.Amount.Cmp(gi.Amount))
		require.Equal(t, inv.Currency, gi.Currency)
		require.True(t, inv.Destination.Equal(gi.Destination))
		require.Equal(t, inv.ExpiryHeight, gi.ExpiryHeight)
		require.Equal(t, inv.Memo, gi.Memo)

		again, err := got.Bytes()
		require.NoError(t, err)
		require.Equal(t, b, again)
	}

	// v1 amount bytes are fixed-width little-endian right after the flags.
	b, err := wire.Marshal(v1)
	require.NoError(t, err)
	require.Equal(t, []byte{0x80, 0xd1, 0xf0, 0x08, 0, 0, 0, 0}, b[1:9])
}

func TestInvoice_LargeAmountNeedsV2(t *testing.T) {
	huge, ok := new(big.Int).SetString("340282366920938463463374607431768211456", 10)
	require.True(t, ok)

	v1 := testInvoice(t, 1, huge)
	require.Equal(t, "VDXF-VAL-712", wire.RuleID(v1.Validate()))
	_, err := wire.Marshal(v1)
	require.True(t, wire.IsKind(err, wire.KindInvariant))

	v2 := testInvoice(t, 2, huge)
	o, err := v2.Object()
	require.NoError(t, err)
	b, err := o.Bytes()
	require.NoError(t, err)
	got, err := newRegistry(t).Parse(b)
	require.NoError(t, err)
	require.Equal(t, 0, huge.Cmp(got.Payload.(*Invoice).Amount))
}

func TestInvoice_VersionGate(t *testing.T) {
	inv := testInvoice(t, InvoiceLastValidVersion+1, big.NewInt(1))
	b, err := ordinal.New(OrdinalInvoice, inv.Version, inv).Bytes()
	require.NoError(t, err, "out-of-window versions still encode")

	_, err = newRegistry(t).Parse(b)
	require.True(t, wire.IsKind(err, wire.KindRange))
	require.Contains(t, err.Error(), "unsupported version for invoice")
}

func TestLoginChallenge_ContextOrderPreserved(t *testing.T) {
	a := keys.MustKeyID("vrsc::login.context.app")
	z := keys.MustKeyID("vrsc::login.context.zone")

	var ctx Context
	ctx = ctx.Set(z, "eu")
	ctx = ctx.Set(a, "shop")
	ctx = ctx.Set(z, "us")
	require.Len(t, ctx, 2)
	v, ok := ctx.Get(z)
	require.True(t, ok)
	require.Equal(t, "us", v)

	c := &LoginChallenge{
		Version:         1,
		ChallengeID:     address.HashOf([]byte("challenge")),
		RequestedAccess: []address.Hash160{keys.MustKeyID("vrsc::identity.login")},
		Context:         ctx,
	}
	o, err := c.Object()
	require.NoError(t, err)
	b, err := o.Bytes()
	require.NoError(t, err)

	got, err := newRegistry(t).Parse(b)
	require.NoError(t, err)
	gc := got.Payload.(*LoginChallenge)
	require.Equal(t, c, gc)
	require.Equal(t, z, gc.Context[0].Key)
}

func TestLoginChallenge_Rejects(t *testing.T) {
	perm := keys.MustKeyID("vrsc::identity.login")
	c := &LoginChallenge{Version: 1, RequestedAccess: []address.Hash160{perm}}
	require.Equal(t, "VDXF-VAL-722", wire.RuleID(c.Validate()))

	c.ChallengeID = address.HashOf([]byte("c"))
	c.RequestedAccess = append(c.RequestedAccess, perm)
	require.Equal(t, "VDXF-VAL-723", wire.RuleID(c.Validate()))

	dup := Context{{Key: perm, Value: "a"}, {Key: perm, Value: "b"}}
	c.RequestedAccess = c.RequestedAccess[:1]
	c.Context = dup
	b, err := ordinal.New(OrdinalLoginChallenge, 1, c).Bytes()
	require.NoError(t, err)
	_, err = newRegistry(t).Parse(b)
	require.Equal(t, "VDXF-VAL-721", wire.RuleID(err))
}

func TestRegister(t *testing.T) {
	reg := ordinal.NewRegistry()
	require.NoError(t, Register(reg, "VRSC", ordinal.Strict))
	require.Error(t, Register(reg, "VRSC", ordinal.Strict))
	require.NoError(t, Register(reg, "VRSC", ordinal.Permissive))
	require.Equal(t, 3, reg.Len())

	key, ok := reg.KeyOf(OrdinalInvoice)
	require.True(t, ok)
	require.Equal(t, keys.MustKeyID(KeyInvoice), key)
}

func TestEnvelope_WithDetails(t *testing.T) {
	reg := newRegistry(t)
	item := &RequestItem{Version: 1, Format: FormatFullData, DataType: keys.MustKeyID("vrsc::identity.profile")}
	io, err := item.Object()
	require.NoError(t, err)
	inv := testInvoice(t, 2, big.NewInt(5))
	vo, err := inv.Object()
	require.NoError(t, err)

	q := &envelope.Request{Envelope: envelope.Envelope{
		Version:   envelope.DefaultVersion,
		CreatedAt: 1700000000,
		Details:   []ordinal.Object{io, vo},
	}}
	b, err := q.Bytes()
	require.NoError(t, err)

	got, err := envelope.NewDecoder(reg, "VRSC").DecodeRequest(b)
	require.NoError(t, err)
	require.Len(t, got.Details, 2)
	require.IsType(t, &RequestItem{}, got.Details[0].Payload)
	require.IsType(t, &Invoice{}, got.Details[1].Payload)

	again, err := got.Bytes()
	require.NoError(t, err)
	require.Equal(t, b, again)
}
