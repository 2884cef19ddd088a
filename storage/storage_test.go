package storage_test

import (
	"context"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/require"

	"xdao.co/vdxf/cidutil"
	"xdao.co/vdxf/envelope"
	"xdao.co/vdxf/ordinal"
	"xdao.co/vdxf/storage"
	"xdao.co/vdxf/storage/testkit"
	"xdao.co/vdxf/wire"
)

func TestMemory_Conformance(t *testing.T) {
	testkit.RunStoreConformance(t, func(t *testing.T) storage.Store {
		return storage.NewMemory()
	})
}

func TestFallback_Conformance(t *testing.T) {
	testkit.RunStoreConformance(t, func(t *testing.T) storage.Store {
		return storage.Fallback{Backends: []storage.Named{
			{Name: "a", Store: storage.NewMemory()},
			{Name: "b", Store: storage.NewMemory()},
		}}
	})
}

func TestReplicated_Conformance(t *testing.T) {
	testkit.RunStoreConformance(t, func(t *testing.T) storage.Store {
		return storage.Replicated{Backends: []storage.Named{
			{Name: "a", Store: storage.NewMemory()},
			{Name: "b", Store: storage.NewMemory()},
		}}
	})
}

func TestEnvelopes_Conformance(t *testing.T) {
	testkit.RunStoreConformance(t, func(t *testing.T) storage.Store {
		return storage.NewEnvelopes(storage.NewMemory(), nil, slogt.New(t, slogt.Text()))
	})
}

func TestFallback_ReadsInOrderWritesFirst(t *testing.T) {
	ctx := context.Background()
	a, b := storage.NewMemory(), storage.NewMemory()
	f := storage.Fallback{Backends: []storage.Named{{Name: "a", Store: a}, {Name: "b", Store: b}}}

	blob := testkit.Envelope(t, 10)
	id, err := b.Put(ctx, blob)
	require.NoError(t, err)

	got, err := f.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, blob, got)

	_, err = f.Put(ctx, testkit.Envelope(t, 11))
	require.NoError(t, err)
	require.Equal(t, 1, a.Len())
	require.Equal(t, 1, b.Len())

	_, err = storage.Fallback{}.Put(ctx, blob)
	require.ErrorIs(t, err, storage.ErrNoBackends)
}

type liar struct{ storage.Store }

func (liar) Put(context.Context, []byte) (cid.Cid, error) {
	return cidutil.Of([]byte("something else"))
}

func TestReplicated_PutAll(t *testing.T) {
	ctx := context.Background()
	a, b := storage.NewMemory(), storage.NewMemory()
	r := storage.Replicated{Backends: []storage.Named{{Name: "a", Store: a}, {Name: "b", Store: b}}}

	blob := testkit.Envelope(t, 20)
	id, per, err := r.PutAll(ctx, blob)
	require.NoError(t, err)
	require.Equal(t, map[string]cid.Cid{"a": id, "b": id}, per)
	require.Equal(t, 1, b.Len())

	bad := storage.Replicated{Backends: []storage.Named{{Name: "a", Store: a}, {Name: "x", Store: liar{}}}}
	_, _, err = bad.PutAll(ctx, blob)
	require.ErrorIs(t, err, storage.ErrCIDMismatch)
}

func TestEnvelopes_RejectsNonEnvelopes(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	s := storage.NewEnvelopes(mem, nil, slogt.New(t, slogt.Text()))

	for _, b := range [][]byte{nil, []byte("hello"), {0x02, 0x00}} {
		_, err := s.Put(ctx, b)
		require.ErrorIs(t, err, storage.ErrNotEnvelope)
	}
	require.Equal(t, 0, mem.Len())

	// The underlying decode error stays reachable.
	_, err := s.Put(ctx, []byte{0x02, 0x00})
	require.True(t, wire.IsKind(err, wire.KindRange))
}

func TestEnvelopes_TypedRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := storage.NewEnvelopes(storage.NewMemory(), envelope.NewDecoder(nil, "VRSC"), slogt.New(t, slogt.Text()))

	q := &envelope.Request{
		Envelope: envelope.Envelope{
			Version:   envelope.DefaultVersion,
			CreatedAt: 1_700_000_000,
			Details: []ordinal.Object{
				ordinal.New(ordinal.TypeNone, 1, &ordinal.Opaque{Data: []byte{1, 2}}),
			},
		},
		ResponseURIs: []envelope.ResponseURI{{Type: envelope.ResponseRedirect, URI: "https://example.com/cb"}},
	}
	qid, err := s.PutRequest(ctx, q)
	require.NoError(t, err)

	gotQ, err := s.GetRequest(ctx, qid)
	require.NoError(t, err)
	require.Equal(t, q, gotQ)

	p := &envelope.Response{Envelope: envelope.Envelope{
		Version: envelope.DefaultVersion,
		Details: []ordinal.Object{
			ordinal.New(ordinal.TypeNone, 1, &ordinal.Opaque{Data: []byte{3}}),
		},
	}}
	pid, err := s.PutResponse(ctx, p)
	require.NoError(t, err)
	require.NotEqual(t, qid, pid)

	gotP, err := s.GetResponse(ctx, pid)
	require.NoError(t, err)
	require.Equal(t, p, gotP)

	h, err := q.ContentHash(true)
	require.NoError(t, err)
	want, err := cidutil.FromContentHash(h)
	require.NoError(t, err)
	require.Equal(t, want, qid)
}
