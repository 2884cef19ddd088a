package storage

import (
	"context"
	"fmt"

	"github.com/ipfs/go-cid"

	"xdao.co/vdxf/cidutil"
)

// Named pairs a Store with a stable backend name for reporting.
type Named struct {
	Name  string
	Store Store
}

// Fallback reads from its backends in slice order and writes only to the
// first one.
type Fallback struct {
	Backends []Named
}

// Replicated reads like Fallback but writes to every backend, and fails
// with ErrCIDMismatch if any backend reports a different CID.
type Replicated struct {
	Backends []Named
}

var (
	_ Store = Fallback{}
	_ Store = Replicated{}
)

func (f Fallback) Put(ctx context.Context, b []byte) (cid.Cid, error) {
	if len(f.Backends) == 0 {
		return cid.Undef, ErrNoBackends
	}
	return f.Backends[0].Store.Put(ctx, b)
}

func (f Fallback) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	return getOrdered(ctx, f.Backends, id)
}

func (f Fallback) Has(ctx context.Context, id cid.Cid) (bool, error) {
	return hasAny(ctx, f.Backends, id)
}

// PutAll writes b to every backend and returns the CID computed from b
// together with what each backend returned.
func (r Replicated) PutAll(ctx context.Context, b []byte) (cid.Cid, map[string]cid.Cid, error) {
	want, err := cidutil.Of(b)
	if err != nil {
		return cid.Undef, nil, err
	}
	if len(r.Backends) == 0 {
		return cid.Undef, nil, ErrNoBackends
	}
	out := make(map[string]cid.Cid, len(r.Backends))
	for _, be := range r.Backends {
		if be.Store == nil {
			return cid.Undef, nil, fmt.Errorf("storage: nil store for backend %q", be.Name)
		}
		got, err := be.Store.Put(ctx, b)
		if err != nil {
			return cid.Undef, out, fmt.Errorf("storage: backend %q: %w", be.Name, err)
		}
		out[be.Name] = got
		if got != want {
			return cid.Undef, out, ErrCIDMismatch
		}
	}
	return want, out, nil
}

func (r Replicated) Put(ctx context.Context, b []byte) (cid.Cid, error) {
	id, _, err := r.PutAll(ctx, b)
	return id, err
}

func (r Replicated) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	return getOrdered(ctx, r.Backends, id)
}

func (r Replicated) Has(ctx context.Context, id cid.Cid) (bool, error) {
	return hasAny(ctx, r.Backends, id)
}

// getOrdered returns the first hit. A backend error other than
// ErrNotFound stops the search.
func getOrdered(ctx context.Context, backends []Named, id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, ErrInvalidCID
	}
	for _, be := range backends {
		if be.Store == nil {
			continue
		}
		b, err := be.Store.Get(ctx, id)
		if err == nil {
			return b, nil
		}
		if !IsNotFound(err) {
			return nil, fmt.Errorf("storage: backend %q: %w", be.Name, err)
		}
	}
	return nil, ErrNotFound
}

func hasAny(ctx context.Context, backends []Named, id cid.Cid) (bool, error) {
	for _, be := range backends {
		if be.Store == nil {
			continue
		}
		ok, err := be.Store.Has(ctx, id)
		if err != nil {
			return false, fmt.Errorf("storage: backend %q: %w", be.Name, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
