package details

import (
	"fmt"

	"xdao.co/vdxf/address"
	"xdao.co/vdxf/ordinal"
	"xdao.co/vdxf/wire"
)

// KeyValue is one entry of an ordered key/value list.
type KeyValue struct {
	Key   address.Hash160
	Value string
}

// Context is an ordered list of (VDXF key, UTF-8 value) pairs. Order is
// preserved on the wire; keys are unique.
type Context []KeyValue

// Get returns the value stored under key.
func (c Context) Get(key address.Hash160) (string, bool) {
	for _, kv := range c {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// Set replaces the value under key in place, or appends a new entry.
func (c Context) Set(key address.Hash160, value string) Context {
	for i := range c {
		if c[i].Key == key {
			c[i].Value = value
			return c
		}
	}
	return append(c, KeyValue{Key: key, Value: value})
}

func (c Context) byteLength() int {
	n := wire.CompactSizeLen(uint64(len(c)))
	for _, kv := range c {
		n += address.HashLength + wire.VarSliceLen(len(kv.Value))
	}
	return n
}

func (c Context) encode(w *wire.Writer) {
	w.WriteCompactSize(uint64(len(c)))
	for _, kv := range c {
		w.WriteSlice(kv.Key[:])
		w.WriteVarString(kv.Value)
	}
}

func decodeContext(r *wire.Reader) (Context, error) {
	n, err := r.ReadCompactSize()
	if err != nil {
		return nil, err
	}
	if n > uint64(r.Remaining()/(address.HashLength+1)) {
		return nil, wire.NewError(wire.KindFormat, "VDXF-FMT-721",
			fmt.Sprintf("context count %d exceeds remaining %d bytes", n, r.Remaining()))
	}
	var c Context
	seen := make(map[address.Hash160]bool, n)
	for i := uint64(0); i < n; i++ {
		k, err := r.ReadSlice(address.HashLength)
		if err != nil {
			return nil, err
		}
		var kv KeyValue
		copy(kv.Key[:], k)
		if seen[kv.Key] {
			return nil, wire.NewError(wire.KindValidation, "VDXF-VAL-721",
				fmt.Sprintf("duplicate context key %s", kv.Key.IAddress()))
		}
		seen[kv.Key] = true
		if kv.Value, err = r.ReadVarString(); err != nil {
			return nil, err
		}
		c = append(c, kv)
	}
	return c, nil
}

// LoginChallenge asks a wallet to prove control of an identity.
type LoginChallenge struct {
	Version     uint64
	ChallengeID address.Hash160
	// RequestedAccess lists permission keys the application asks for.
	RequestedAccess []address.Hash160
	Context         Context
}

var LoginChallengeRules = []Rule[*LoginChallenge]{
	{ID: "VDXF-VAL-722", Apply: func(c *LoginChallenge) error {
		if c.ChallengeID.IsZero() {
			return wire.NewError(wire.KindValidation, "VDXF-VAL-722", "login challenge has no challenge ID")
		}
		return nil
	}},
	{ID: "VDXF-VAL-723", Apply: func(c *LoginChallenge) error {
		seen := map[address.Hash160]bool{}
		for _, k := range c.RequestedAccess {
			if seen[k] {
				return wire.NewError(wire.KindValidation, "VDXF-VAL-723",
					fmt.Sprintf("permission %s requested twice", k.IAddress()))
			}
			seen[k] = true
		}
		return nil
	}},
}

func (c *LoginChallenge) Validate() error {
	return ValidateRules(c, LoginChallengeRules)
}

func (c *LoginChallenge) ByteLength() int {
	return address.HashLength + wire.ArrayLen(len(c.RequestedAccess), address.HashLength) + c.Context.byteLength()
}

func (c *LoginChallenge) Encode(w *wire.Writer) {
	w.WriteSlice(c.ChallengeID[:])
	items := make([][]byte, len(c.RequestedAccess))
	for i := range c.RequestedAccess {
		items[i] = c.RequestedAccess[i][:]
	}
	w.WriteArray(items, address.HashLength)
	c.Context.encode(w)
}

func (c *LoginChallenge) Decode(b []byte, version uint64) error {
	if version < FirstValidVersion || version > LastValidVersion {
		return unsupportedVersion("login challenge", version)
	}
	r := wire.NewReader(b)
	id, err := r.ReadSlice(address.HashLength)
	if err != nil {
		return err
	}
	copy(c.ChallengeID[:], id)
	items, err := r.ReadArray(address.HashLength)
	if err != nil {
		return err
	}
	c.RequestedAccess = nil
	for _, item := range items {
		var h address.Hash160
		copy(h[:], item)
		c.RequestedAccess = append(c.RequestedAccess, h)
	}
	if c.Context, err = decodeContext(r); err != nil {
		return err
	}
	if err := r.ExpectEOF(); err != nil {
		return err
	}
	c.Version = version
	return c.Validate()
}

func (c *LoginChallenge) Object() (ordinal.Object, error) {
	if err := c.Validate(); err != nil {
		return ordinal.Object{}, err
	}
	return ordinal.New(OrdinalLoginChallenge, c.Version, c), nil
}
