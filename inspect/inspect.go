// Package inspect renders decoded envelopes as flat, deterministic
// summaries for diagnostics, in CBOR or JSON.
package inspect

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"xdao.co/vdxf/address"
	"xdao.co/vdxf/cidutil"
	"xdao.co/vdxf/envelope"
	"xdao.co/vdxf/ordinal"
	"xdao.co/vdxf/signature"
)

// encMode uses Core Deterministic Encoding: the same summary always
// produces the same bytes.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error
	opts := cbor.CoreDetEncOptions()
	opts.TextMarshaler = cbor.TextMarshalerTextString
	if encMode, err = opts.EncMode(); err != nil {
		panic("inspect: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{TextUnmarshaler: cbor.TextUnmarshalerTextString}.DecMode()
	if err != nil {
		panic("inspect: CBOR decoder initialization failed: " + err.Error())
	}
}

// Hex is a byte string that renders as lowercase hex text.
type Hex []byte

func (h Hex) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(h)), nil
}

func (h *Hex) UnmarshalText(b []byte) error {
	out, err := hex.DecodeString(string(b))
	if err != nil {
		return err
	}
	*h = out
	return nil
}

// Namer maps 20-byte keys back to names. keys.Directory implements it.
type Namer interface {
	Name(id address.Hash160) (string, bool)
}

// Options control how a summary labels what it finds.
type Options struct {
	// Registry maps registered ordinals back to their keys.
	Registry *ordinal.Registry
	// Names labels keys with their qualified names.
	Names Namer
	// Network selects the Sapling prefix for EncryptResponseTo.
	Network address.Network
}

type Summary struct {
	Kind        string `cbor:"kind" json:"kind"`
	CID         string `cbor:"cid" json:"cid"`
	Size        int    `cbor:"size" json:"size"`
	Version     uint64 `cbor:"version" json:"version"`
	Flags       uint64 `cbor:"flags" json:"flags"`
	Testnet     bool   `cbor:"testnet,omitempty" json:"testnet,omitempty"`
	ContentHash Hex    `cbor:"content_hash" json:"content_hash"`
	CreatedAt   uint64 `cbor:"created_at,omitempty" json:"created_at,omitempty"`
	Salt        Hex    `cbor:"salt,omitempty" json:"salt,omitempty"`

	Signature *Signature `cbor:"signature,omitempty" json:"signature,omitempty"`
	Details   []Detail   `cbor:"details" json:"details"`

	ResponseURIs      []ResponseURI `cbor:"response_uris,omitempty" json:"response_uris,omitempty"`
	EncryptResponseTo string        `cbor:"encrypt_response_to,omitempty" json:"encrypt_response_to,omitempty"`

	RequestHashType string `cbor:"request_hash_type,omitempty" json:"request_hash_type,omitempty"`
	RequestHash     Hex    `cbor:"request_hash,omitempty" json:"request_hash,omitempty"`
	RequestID       string `cbor:"request_id,omitempty" json:"request_id,omitempty"`
}

type Signature struct {
	Version    uint64   `cbor:"version" json:"version"`
	HashType   string   `cbor:"hash_type" json:"hash_type"`
	SystemID   string   `cbor:"system_id" json:"system_id"`
	IdentityID string   `cbor:"identity_id" json:"identity_id"`
	VDXFKeys   []string `cbor:"vdxf_keys,omitempty" json:"vdxf_keys,omitempty"`
	KeyNames   []string `cbor:"vdxf_key_names,omitempty" json:"vdxf_key_names,omitempty"`
	Bound      []Hex    `cbor:"bound_hashes,omitempty" json:"bound_hashes,omitempty"`
	Statements []Hex    `cbor:"statements,omitempty" json:"statements,omitempty"`
	Signature  Hex      `cbor:"signature" json:"signature"`
}

type Detail struct {
	Ordinal uint64 `cbor:"ordinal" json:"ordinal"`
	Key     string `cbor:"key,omitempty" json:"key,omitempty"`
	Name    string `cbor:"name,omitempty" json:"name,omitempty"`
	Version uint64 `cbor:"version" json:"version"`
	Type    string `cbor:"type" json:"type"`
	Size    int    `cbor:"size" json:"size"`
}

type ResponseURI struct {
	Type uint64 `cbor:"type" json:"type"`
	URI  string `cbor:"uri" json:"uri"`
}

func (o Options) name(id address.Hash160) string {
	if o.Names == nil {
		return ""
	}
	n, _ := o.Names.Name(id)
	return n
}

func (o Options) base(kind string, e *envelope.Envelope, flags uint64, raw []byte, hash [32]byte) (*Summary, error) {
	s := &Summary{
		Kind:        kind,
		CID:         cidutil.String(raw),
		Size:        len(raw),
		Version:     e.Version,
		Flags:       flags,
		Testnet:     e.Testnet,
		ContentHash: Hex(hash[:]),
		CreatedAt:   e.CreatedAt,
		Salt:        Hex(e.Salt),
		Details:     make([]Detail, 0, len(e.Details)),
	}
	if e.Signature != nil {
		s.Signature = o.signature(e.Signature)
	}
	for _, d := range e.Details {
		det, err := o.detail(d)
		if err != nil {
			return nil, err
		}
		s.Details = append(s.Details, det)
	}
	return s, nil
}

func (o Options) signature(b *signature.Block) *Signature {
	out := &Signature{
		Version:    b.Version,
		HashType:   b.HashType.String(),
		SystemID:   b.SystemID.String(),
		IdentityID: b.IdentityID.String(),
		KeyNames:   b.VDXFKeyNames,
		Signature:  Hex(b.Signature),
	}
	for _, k := range b.VDXFKeys {
		out.VDXFKeys = append(out.VDXFKeys, k.IAddress())
	}
	for _, h := range b.BoundHashes {
		out.Bound = append(out.Bound, Hex(h[:]))
	}
	for _, st := range b.Statements {
		out.Statements = append(out.Statements, Hex(st))
	}
	return out
}

func (o Options) detail(d ordinal.Object) (Detail, error) {
	pb, err := d.PayloadBytes()
	if err != nil {
		return Detail{}, err
	}
	det := Detail{
		Ordinal: d.Ordinal,
		Version: d.Version,
		Type:    payloadType(d.Payload),
		Size:    len(pb),
		Name:    d.KeyName,
	}
	key := d.Key
	if !ordinal.IsReserved(d.Ordinal) && o.Registry != nil {
		key, _ = o.Registry.KeyOf(d.Ordinal)
	}
	if !key.IsZero() {
		det.Key = key.IAddress()
		if det.Name == "" {
			det.Name = o.name(key)
		}
	}
	return det, nil
}

func payloadType(p ordinal.Payload) string {
	if p == nil {
		return "nil"
	}
	t := reflect.TypeOf(p)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return strings.ToLower(t.Name())
}

// Request summarizes q.
func Request(q *envelope.Request, opts Options) (*Summary, error) {
	raw, err := q.Bytes()
	if err != nil {
		return nil, err
	}
	h, err := q.ContentHash(true)
	if err != nil {
		return nil, err
	}
	s, err := opts.base("request", &q.Envelope, q.Flags(), raw, h)
	if err != nil {
		return nil, err
	}
	for _, u := range q.ResponseURIs {
		s.ResponseURIs = append(s.ResponseURIs, ResponseURI{Type: uint64(u.Type), URI: u.URI})
	}
	if q.EncryptResponseTo != nil {
		net := opts.Network
		if net == "" {
			net = address.Mainnet
		}
		if q.Testnet {
			net = address.Testnet
		}
		if s.EncryptResponseTo, err = address.EncodePaymentAddress(*q.EncryptResponseTo, net); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Response summarizes p.
func Response(p *envelope.Response, opts Options) (*Summary, error) {
	raw, err := p.Bytes()
	if err != nil {
		return nil, err
	}
	h, err := p.ContentHash(true)
	if err != nil {
		return nil, err
	}
	s, err := opts.base("response", &p.Envelope, p.Flags(), raw, h)
	if err != nil {
		return nil, err
	}
	if len(p.RequestHash) > 0 {
		s.RequestHashType = p.RequestHashType.String()
		s.RequestHash = Hex(p.RequestHash)
	}
	if !p.RequestID.IsZero() {
		s.RequestID = p.RequestID.String()
	}
	return s, nil
}

// CBOR encodes s deterministically.
func (s *Summary) CBOR() ([]byte, error) {
	return encMode.Marshal(s)
}

// JSON encodes s as indented JSON.
func (s *Summary) JSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// ParseCBOR decodes a summary written by CBOR.
func ParseCBOR(b []byte) (*Summary, error) {
	var s Summary
	if err := decMode.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("inspect: %w", err)
	}
	return &s, nil
}
