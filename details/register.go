// Package details implements the detail payloads carried by envelopes:
// request items, invoices and login challenges, and registers them with
// an ordinal registry.
package details

import (
	"fmt"

	"xdao.co/vdxf/ordinal"
	"xdao.co/vdxf/wire"
)

// Version window shared by RequestItem and LoginChallenge.
const (
	FirstValidVersion uint64 = 1
	LastValidVersion  uint64 = 1
	DefaultVersion           = LastValidVersion
)

// Registered ordinals.
const (
	OrdinalRequestItem    uint64 = 1
	OrdinalInvoice        uint64 = 2
	OrdinalLoginChallenge uint64 = 3
)

// Key names the ordinals are bound to.
const (
	KeyRequestItem    = "vrsc::system.request.item"
	KeyInvoice        = "vrsc::system.payment.invoice"
	KeyLoginChallenge = "vrsc::system.login.challenge"
)

func unsupportedVersion(what string, v uint64) error {
	return wire.NewError(wire.KindRange, "VDXF-RNG-701",
		fmt.Sprintf("unsupported version for %s: %d", what, v))
}

// Register binds every detail payload in reg. rootSystem resolves FQN
// destinations inside invoices. Use ordinal.Permissive to make repeated
// bootstrap a no-op.
func Register(reg *ordinal.Registry, rootSystem string, mode ordinal.Mode) error {
	entries := []struct {
		ord  uint64
		name string
		ctor ordinal.Constructor
	}{
		{OrdinalRequestItem, KeyRequestItem, func() ordinal.Payload { return new(RequestItem) }},
		{OrdinalInvoice, KeyInvoice, func() ordinal.Payload { return &Invoice{RootSystem: rootSystem} }},
		{OrdinalLoginChallenge, KeyLoginChallenge, func() ordinal.Payload { return new(LoginChallenge) }},
	}
	for _, e := range entries {
		if err := reg.RegisterName(e.ord, e.name, e.ctor, mode); err != nil {
			return fmt.Errorf("register %s: %w", e.name, err)
		}
	}
	return nil
}

// NewRegistry returns a sealed registry holding every detail payload.
func NewRegistry(rootSystem string, opts ...ordinal.Option) (*ordinal.Registry, error) {
	reg := ordinal.NewRegistry(opts...)
	if err := Register(reg, rootSystem, ordinal.Strict); err != nil {
		return nil, err
	}
	reg.Seal()
	return reg, nil
}
