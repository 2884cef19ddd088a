package keys

import (
	"fmt"
	"strings"

	"xdao.co/vdxf/address"
	"xdao.co/vdxf/wire"
)

// NamespaceSeparator splits a namespace from a key name: "vrsc::a.b.c".
const NamespaceSeparator = "::"

// DefaultNamespace applies to key names written without a namespace.
const DefaultNamespace = "vrsc"

// QualifiedName is a parsed VDXF key name.
type QualifiedName struct {
	Namespace string
	Name      string
}

func (q QualifiedName) String() string {
	return q.Namespace + NamespaceSeparator + q.Name
}

// ParseKeyName splits s into namespace and key name, defaulting the
// namespace to DefaultNamespace.
func ParseKeyName(s string) (QualifiedName, error) {
	ns, name, ok := strings.Cut(s, NamespaceSeparator)
	if !ok {
		ns, name = DefaultNamespace, s
	}
	if err := CheckKeyName(name); err != nil {
		return QualifiedName{}, err
	}
	if err := CheckKeyName(ns); err != nil {
		return QualifiedName{}, err
	}
	return QualifiedName{Namespace: ns, Name: name}, nil
}

// CheckKeyName rejects empty names and names containing characters that
// cannot appear in an identity or key name.
func CheckKeyName(name string) error {
	if name == "" {
		return wire.NewError(wire.KindValidation, "VDXF-VAL-301", "key name cannot be empty")
	}
	for _, char := range name {
		switch char {
		case ':', '@', '\\', '/', '\n', '\r', '\t':
			return wire.NewError(wire.KindValidation, "VDXF-VAL-302",
				fmt.Sprintf("invalid character %q in key name", char))
		}
	}
	return nil
}

// NamespaceID resolves a namespace to its identity hash. A namespace may be
// given as an identity address or as a name.
func NamespaceID(ns string) (address.Hash160, error) {
	if h, err := address.ParseIAddress(ns); err == nil {
		return h, nil
	}
	if strings.Contains(ns, ".") || strings.HasSuffix(ns, "@") {
		return address.IdentityID(ns, "")
	}
	// A bare namespace is a root system name and has no parent.
	return address.IdentityIDWithParent(ns, nil), nil
}

// DataKey derives the key ID for a qualified key name. The key name is
// hashed as a single lower-cased component under the namespace's identity.
func DataKey(q QualifiedName) (address.Hash160, error) {
	if err := CheckKeyName(q.Name); err != nil {
		return address.Hash160{}, err
	}
	parent, err := NamespaceID(q.Namespace)
	if err != nil {
		return address.Hash160{}, err
	}
	return address.IdentityIDWithParent(q.Name, &parent), nil
}

// KeyID parses and derives in one step.
func KeyID(name string) (address.Hash160, error) {
	q, err := ParseKeyName(name)
	if err != nil {
		return address.Hash160{}, err
	}
	return DataKey(q)
}

// MustKeyID is KeyID for compile-time constant names; it panics on error.
func MustKeyID(name string) address.Hash160 {
	h, err := KeyID(name)
	if err != nil {
		panic(fmt.Sprintf("keys: invalid key name %q: %v", name, err))
	}
	return h
}
