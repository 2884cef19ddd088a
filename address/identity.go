package address

import (
	"crypto/sha256"
	"strings"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // hash160 is fixed by the protocol

	"xdao.co/vdxf/wire"
)

// DefaultRootSystem is the root chain name that unqualified names resolve under.
const DefaultRootSystem = "VRSC"

// SHA256D returns SHA256(SHA256(parts...)).
func SHA256D(parts ...[]byte) [32]byte {
	h := sha256.New()
	for _, p := range parts {
		_, _ = h.Write(p)
	}
	first := h.Sum(nil)
	return sha256.Sum256(first)
}

// HashOf returns RIPEMD160(SHA256(b)).
func HashOf(b []byte) Hash160 {
	s := sha256.Sum256(b)
	r := ripemd160.New()
	_, _ = r.Write(s[:])
	var h Hash160
	copy(h[:], r.Sum(nil))
	return h
}

// IdentityIDWithParent derives the identity hash of a single name component
// registered under parent. A nil parent denotes a root system name.
func IdentityIDWithParent(name string, parent *Hash160) Hash160 {
	lower := []byte(strings.ToLower(name))
	idHash := SHA256D(lower)
	if parent != nil {
		idHash = SHA256D(parent[:], idHash[:])
	}
	return HashOf(idHash[:])
}

// SplitName splits a fully-qualified name such as "alice.chips@" into its
// dot-separated components, dropping the trailing "@" and anything after it.
func SplitName(fqn string) ([]string, error) {
	name, _, _ := strings.Cut(fqn, "@")
	if name == "" {
		return nil, wire.NewError(wire.KindFormat, "VDXF-FMT-110", "empty identity name")
	}
	parts := strings.Split(name, ".")
	for _, p := range parts {
		if p == "" {
			return nil, wire.NewError(wire.KindFormat, "VDXF-FMT-111", "empty component in identity name")
		}
	}
	return parts, nil
}

// IdentityID resolves a fully-qualified name to its identity hash.
//
// Components are hashed right to left, each under the hash of the component
// to its right. The rightmost component is parented to rootSystem unless it
// names rootSystem itself, in which case it is dropped (or, for a bare root
// name, hashed with no parent).
func IdentityID(fqn, rootSystem string) (Hash160, error) {
	parts, err := SplitName(fqn)
	if err != nil {
		return Hash160{}, err
	}
	if rootSystem == "" {
		rootSystem = DefaultRootSystem
	}
	if len(parts) == 1 && strings.EqualFold(parts[0], rootSystem) {
		return IdentityIDWithParent(parts[0], nil), nil
	}
	if len(parts) > 1 && strings.EqualFold(parts[len(parts)-1], rootSystem) {
		parts = parts[:len(parts)-1]
	}
	parent := IdentityIDWithParent(rootSystem, nil)
	for i := len(parts) - 1; i >= 0; i-- {
		parent = IdentityIDWithParent(parts[i], &parent)
	}
	return parent, nil
}

// IdentityIDUnder resolves name relative to an explicit parent identity,
// used when a record carries its own namespace.
func IdentityIDUnder(name string, parent Hash160) (Hash160, error) {
	parts, err := SplitName(name)
	if err != nil {
		return Hash160{}, err
	}
	for i := len(parts) - 1; i >= 0; i-- {
		parent = IdentityIDWithParent(parts[i], &parent)
	}
	return parent, nil
}
