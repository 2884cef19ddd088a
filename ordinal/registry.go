package ordinal

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"xdao.co/vdxf/address"
	"xdao.co/vdxf/keys"
	"xdao.co/vdxf/wire"
)

// Mode selects how Register treats an ordinal or key that is already bound.
type Mode int

const (
	// Strict fails on any duplicate binding.
	Strict Mode = iota
	// Permissive ignores duplicates, for idempotent bootstrap.
	Permissive
)

type entry struct {
	key  address.Hash160
	name string
	ctor Constructor
}

// Registry binds ordinals to keys and payload constructors.
//
// A Registry is populated during start-up and read-only afterward. Both
// maps change under one lock, so concurrent bootstrap never observes an
// ordinal without its key or the reverse.
type Registry struct {
	log      *slog.Logger
	resolver keys.Resolver
	optimize bool

	mu        sync.RWMutex
	sealed    bool
	byOrdinal map[uint64]entry
	byKey     map[address.Hash160]uint64
}

type Option func(*Registry)

// WithResolver sets the resolver used to canonicalize textual keys.
// The default is an empty keys.Directory.
func WithResolver(r keys.Resolver) Option {
	return func(reg *Registry) { reg.resolver = r }
}

// WithOptimizeWithOrdinal makes Decode resolve keyed objects to their
// registered ordinal, so keyed and ordinal encodings decode alike.
func WithOptimizeWithOrdinal(on bool) Option {
	return func(reg *Registry) { reg.optimize = on }
}

func WithLogger(log *slog.Logger) Option {
	return func(reg *Registry) { reg.log = log }
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		byOrdinal: map[uint64]entry{},
		byKey:     map[address.Hash160]uint64{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if r.resolver == nil {
		r.resolver = keys.NewDirectory("")
	}
	return r
}

func (r *Registry) Resolver() keys.Resolver { return r.resolver }

func (r *Registry) OptimizeWithOrdinal() bool { return r.optimize }

// Register binds ord to key and ctor.
func (r *Registry) Register(ord uint64, key address.Hash160, ctor Constructor, mode Mode) error {
	return r.register(ord, key, "", ctor, mode)
}

// RegisterName binds ord to the key derived from a VDXF key name.
func (r *Registry) RegisterName(ord uint64, name string, ctor Constructor, mode Mode) error {
	key, err := r.resolver.ResolveKey(name)
	if err != nil {
		return err
	}
	return r.register(ord, key, name, ctor, mode)
}

func (r *Registry) register(ord uint64, key address.Hash160, name string, ctor Constructor, mode Mode) error {
	if ord >= FirstReserved {
		return wire.NewError(wire.KindRange, "VDXF-RNG-201",
			fmt.Sprintf("ordinal %d is outside the registrable range [0,%d)", ord, FirstReserved))
	}
	if ctor == nil {
		return wire.NewError(wire.KindInvariant, "VDXF-INV-202", "register: nil constructor")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return wire.NewError(wire.KindInvariant, "VDXF-INV-203", "register: registry is sealed")
	}

	_, ordBound := r.byOrdinal[ord]
	_, keyBound := r.byKey[key]
	if ordBound || keyBound {
		if mode == Permissive {
			return nil
		}
		return wire.NewError(wire.KindRange, "VDXF-RNG-202",
			fmt.Sprintf("duplicate registration for ordinal %d / key %s", ord, key.IAddress()))
	}

	r.byOrdinal[ord] = entry{key: key, name: name, ctor: ctor}
	r.byKey[key] = ord
	r.log.Debug("Registered ordinal", "ordinal", ord, "key", key.IAddress(), "name", name)
	return nil
}

// Seal ends the registration phase. Later Register calls fail.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// KeyOf returns the key bound to a registered ordinal.
func (r *Registry) KeyOf(ord uint64) (address.Hash160, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byOrdinal[ord]
	return e.key, ok
}

// OrdinalOf returns the ordinal bound to key.
func (r *Registry) OrdinalOf(key address.Hash160) (uint64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ord, ok := r.byKey[key]
	return ord, ok
}

// Len returns the number of registered ordinals.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byOrdinal)
}

// canonicalKey resolves a keyed object's key to its 20-byte form.
func (r *Registry) canonicalKey(o Object) (address.Hash160, bool, error) {
	switch o.Ordinal {
	case TypeHashKey:
		return o.Key, true, nil
	case TypeKeyName:
		k, err := r.resolver.ResolveKey(o.KeyName)
		return k, err == nil, err
	case TypeIDOrCurrency:
		k, err := r.resolver.ResolveIdentity(o.KeyName)
		return k, err == nil, err
	}
	return address.Hash160{}, false, nil
}

// Optimize rewrites a keyed object whose key is registered into its
// ordinal form. Other objects are returned unchanged.
func (r *Registry) Optimize(o Object) (Object, error) {
	key, ok, err := r.canonicalKey(o)
	if err != nil || !ok {
		return o, err
	}
	ord, ok := r.OrdinalOf(key)
	if !ok {
		return o, nil
	}
	o.Ordinal, o.Key, o.KeyName = ord, key, ""
	return o, nil
}

// Decode reads one Object.
func (r *Registry) Decode(rd *wire.Reader) (Object, error) {
	ord, err := rd.ReadCompactSize()
	if err != nil {
		return Object{}, err
	}

	o := Object{Ordinal: ord}
	var ctor Constructor
	switch ModeOf(ord) {
	case KeyNone:
	case KeyHash:
		b, err := rd.ReadSlice(address.HashLength)
		if err != nil {
			return Object{}, err
		}
		copy(o.Key[:], b)
	case KeyText:
		if o.KeyName, err = rd.ReadVarString(); err != nil {
			return Object{}, err
		}
	default:
		r.mu.RLock()
		e, ok := r.byOrdinal[ord]
		r.mu.RUnlock()
		if !ok {
			return Object{}, wire.NewError(wire.KindRange, "VDXF-RNG-203",
				fmt.Sprintf("unrecognized type ordinal %d", ord))
		}
		o.Key, ctor = e.key, e.ctor
	}

	// A key that does not resolve stays as written with an opaque payload.
	if ctor == nil && r.optimize && ord != TypeNone {
		if opt, err := r.Optimize(o); err == nil && opt.Ordinal != ord {
			r.mu.RLock()
			ctor = r.byOrdinal[opt.Ordinal].ctor
			r.mu.RUnlock()
			o = opt
		}
	}
	if ctor == nil {
		ctor = func() Payload { return new(Opaque) }
	}

	if o.Version, err = rd.ReadVarInt(); err != nil {
		return Object{}, err
	}
	raw, err := rd.ReadVarSlice()
	if err != nil {
		return Object{}, err
	}
	p := ctor()
	if err := p.Decode(raw, o.Version); err != nil {
		return Object{}, err
	}
	o.Payload = p
	return o, nil
}

// Parse decodes a complete serialized Object.
func (r *Registry) Parse(b []byte) (Object, error) {
	rd := wire.NewReader(b)
	o, err := r.Decode(rd)
	if err != nil {
		return Object{}, err
	}
	return o, rd.ExpectEOF()
}
