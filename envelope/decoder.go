package envelope

import (
	"xdao.co/vdxf/address"
	"xdao.co/vdxf/ordinal"
)

// Decoder holds what decoding needs beyond the bytes: the ordinal registry
// for detail records and the root system FQN identities resolve under.
type Decoder struct {
	Registry   *ordinal.Registry
	RootSystem string
}

// NewDecoder returns a Decoder. A nil registry decodes reserved ordinals
// only.
func NewDecoder(reg *ordinal.Registry, rootSystem string) *Decoder {
	return &Decoder{Registry: reg, RootSystem: rootSystem}
}

var reservedOnly = ordinal.NewRegistry()

func (d *Decoder) registry() *ordinal.Registry {
	if d.Registry == nil {
		return reservedOnly
	}
	return d.Registry
}

func (d *Decoder) rootSystem() string {
	if d.RootSystem == "" {
		return address.DefaultRootSystem
	}
	return d.RootSystem
}
