package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ipfs/go-cid"

	"xdao.co/vdxf/envelope"
)

// ErrNotEnvelope wraps the decode error of a blob that is neither a
// request nor a response.
var ErrNotEnvelope = errors.New("storage: not an envelope")

// Envelopes is a Store that only accepts well-formed envelopes.
type Envelopes struct {
	store   Store
	decoder *envelope.Decoder
	log     *slog.Logger
}

var _ Store = (*Envelopes)(nil)

// NewEnvelopes wraps s. A nil decoder decodes reserved ordinals only;
// a nil logger discards.
func NewEnvelopes(s Store, d *envelope.Decoder, log *slog.Logger) *Envelopes {
	if d == nil {
		d = envelope.NewDecoder(nil, "")
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Envelopes{store: s, decoder: d, log: log}
}

// Check reports whether b decodes as a request or a response.
func (e *Envelopes) Check(b []byte) error {
	_, qerr := e.decoder.DecodeRequest(b)
	if qerr == nil {
		return nil
	}
	if _, perr := e.decoder.DecodeResponse(b); perr == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrNotEnvelope, qerr)
}

func (e *Envelopes) Put(ctx context.Context, b []byte) (cid.Cid, error) {
	if err := e.Check(b); err != nil {
		e.log.Warn("rejected blob", "size", len(b), "err", err)
		return cid.Undef, err
	}
	id, err := e.store.Put(ctx, b)
	if err != nil {
		return cid.Undef, err
	}
	e.log.Debug("stored envelope", "cid", id, "size", len(b))
	return id, nil
}

func (e *Envelopes) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	return e.store.Get(ctx, id)
}

func (e *Envelopes) Has(ctx context.Context, id cid.Cid) (bool, error) {
	return e.store.Has(ctx, id)
}

func (e *Envelopes) PutRequest(ctx context.Context, q *envelope.Request) (cid.Cid, error) {
	b, err := q.Bytes()
	if err != nil {
		return cid.Undef, err
	}
	return e.put(ctx, b, "request")
}

func (e *Envelopes) PutResponse(ctx context.Context, p *envelope.Response) (cid.Cid, error) {
	b, err := p.Bytes()
	if err != nil {
		return cid.Undef, err
	}
	return e.put(ctx, b, "response")
}

func (e *Envelopes) put(ctx context.Context, b []byte, kind string) (cid.Cid, error) {
	id, err := e.store.Put(ctx, b)
	if err != nil {
		return cid.Undef, err
	}
	e.log.Debug("stored envelope", "cid", id, "kind", kind, "size", len(b))
	return id, nil
}

// GetRequest loads and decodes the request stored under id.
func (e *Envelopes) GetRequest(ctx context.Context, id cid.Cid) (*envelope.Request, error) {
	b, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	q, err := e.decoder.DecodeRequest(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotEnvelope, err)
	}
	return q, nil
}

// GetResponse loads and decodes the response stored under id.
func (e *Envelopes) GetResponse(ctx context.Context, id cid.Cid) (*envelope.Response, error) {
	b, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := e.decoder.DecodeResponse(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotEnvelope, err)
	}
	return p, nil
}
