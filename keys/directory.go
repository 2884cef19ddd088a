package keys

import (
	"sort"
	"strings"
	"sync"

	"xdao.co/vdxf/address"
	"xdao.co/vdxf/wire"
)

// Resolver turns textual keys and names into their canonical 20-byte form.
type Resolver interface {
	// ResolveKey resolves a VDXF key given as an address or qualified name.
	ResolveKey(text string) (address.Hash160, error)
	// ResolveIdentity resolves an identity or currency given as an address
	// or fully-qualified name.
	ResolveIdentity(name string) (address.Hash160, error)
}

// Directory is a Resolver backed by a name table. Names not in the table
// fall back to derivation, so an empty Directory is a usable resolver.
type Directory struct {
	// RootSystem is the chain that unqualified identity names resolve under.
	RootSystem string

	mu     sync.RWMutex
	byName map[string]address.Hash160
	byID   map[address.Hash160]string
}

// NewDirectory returns a directory that resolves identities under rootSystem.
func NewDirectory(rootSystem string) *Directory {
	if rootSystem == "" {
		rootSystem = address.DefaultRootSystem
	}
	return &Directory{RootSystem: rootSystem}
}

// Add binds name to id. Re-adding an identical binding is a no-op;
// rebinding a name to a different id fails.
func (d *Directory) Add(name string, id address.Hash160) error {
	q, err := ParseKeyName(name)
	if err != nil {
		return err
	}
	canonical := strings.ToLower(q.String())

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.byName == nil {
		d.byName = map[string]address.Hash160{}
		d.byID = map[address.Hash160]string{}
	}
	if prev, ok := d.byName[canonical]; ok {
		if prev != id {
			return wire.NewError(wire.KindValidation, "VDXF-VAL-303", "key name "+q.String()+" already bound")
		}
		return nil
	}
	d.byName[canonical] = id
	d.byID[id] = q.String()
	return nil
}

// AddDerived derives the key ID for name and binds it.
func (d *Directory) AddDerived(name string) (address.Hash160, error) {
	id, err := KeyID(name)
	if err != nil {
		return address.Hash160{}, err
	}
	return id, d.Add(name, id)
}

// ResolveKey implements Resolver.
func (d *Directory) ResolveKey(text string) (address.Hash160, error) {
	if h, err := decodeKeyAddress(text); err == nil {
		return h, nil
	}
	q, err := ParseKeyName(text)
	if err != nil {
		return address.Hash160{}, err
	}
	d.mu.RLock()
	id, ok := d.byName[strings.ToLower(q.String())]
	d.mu.RUnlock()
	if ok {
		return id, nil
	}
	return DataKey(q)
}

// ResolveIdentity implements Resolver.
func (d *Directory) ResolveIdentity(name string) (address.Hash160, error) {
	if h, err := address.ParseIAddress(name); err == nil {
		return h, nil
	}
	return address.IdentityID(name, d.RootSystem)
}

// Name returns the qualified name bound to id, if any.
func (d *Directory) Name(id address.Hash160) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	name, ok := d.byID[id]
	return name, ok
}

// Names returns every bound name, sorted.
func (d *Directory) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.byID))
	for _, name := range d.byID {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func decodeKeyAddress(s string) (address.Hash160, error) {
	version, h, err := address.Base58CheckDecode(s)
	if err != nil {
		return address.Hash160{}, err
	}
	if version != address.VersionI && version != address.VersionX {
		return address.Hash160{}, wire.NewError(wire.KindFormat, "VDXF-FMT-104", "not a key address")
	}
	return h, nil
}
