// Package cidutil derives content identifiers for encoded envelopes.
//
// An envelope's CID is CIDv1 with the raw codec and a sha2-256 multihash of
// its full serialization, so the CID digest equals the envelope's content
// hash with the signature included.
package cidutil

import (
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// Of returns the CID of data.
func Of(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// String returns the CID of data in its default string form.
func String(data []byte) string {
	id, err := Of(data)
	if err != nil {
		// multihash.Sum only fails for unknown codes or bad lengths.
		return ""
	}
	return id.String()
}

// FromContentHash builds the CID whose digest is h, without the bytes h
// was computed from.
func FromContentHash(h [32]byte) (cid.Cid, error) {
	mh, err := multihash.Encode(h[:], multihash.SHA2_256)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, mh), nil
}

// ContentHash extracts the sha2-256 digest carried by id.
func ContentHash(id cid.Cid) ([32]byte, error) {
	var out [32]byte
	if !id.Defined() {
		return out, fmt.Errorf("cidutil: undefined cid")
	}
	dec, err := multihash.Decode(id.Hash())
	if err != nil {
		return out, err
	}
	if dec.Code != multihash.SHA2_256 || len(dec.Digest) != len(out) {
		return out, fmt.Errorf("cidutil: cid %s is not sha2-256", id)
	}
	copy(out[:], dec.Digest)
	return out, nil
}

// Parse decodes s and requires the raw codec.
func Parse(s string) (cid.Cid, error) {
	id, err := cid.Decode(s)
	if err != nil {
		return cid.Undef, err
	}
	if id.Type() != cid.Raw {
		return cid.Undef, fmt.Errorf("cidutil: cid %s is not raw (codec 0x%x)", s, id.Type())
	}
	return id, nil
}
