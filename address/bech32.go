package address

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"

	"xdao.co/vdxf/wire"
)

// Bech32Encode encodes an 8-bit payload under hrp. Sapling keys exceed the
// 90-character limit of on-chain addresses, so no length limit applies.
func Bech32Encode(hrp string, payload []byte) (string, error) {
	data, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return "", wire.WrapError(wire.KindFormat, "VDXF-FMT-120", "bech32 regroup failed", err)
	}
	s, err := bech32.Encode(hrp, data)
	if err != nil {
		return "", wire.WrapError(wire.KindFormat, "VDXF-FMT-120", "bech32 encode failed", err)
	}
	return s, nil
}

// Bech32Decode returns the lower-case human-readable part and the 8-bit payload.
func Bech32Decode(s string) (string, []byte, error) {
	hrp, data, err := bech32.DecodeNoLimit(s)
	if err != nil {
		return "", nil, wire.WrapError(wire.KindFormat, "VDXF-FMT-121", "invalid bech32 string", err)
	}
	payload, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return "", nil, wire.WrapError(wire.KindFormat, "VDXF-FMT-122", "invalid bech32 padding", err)
	}
	return hrp, payload, nil
}

// Network selects the Sapling human-readable prefixes.
type Network string

const (
	Mainnet Network = "mainnet"
	Testnet Network = "testnet"
)

// SaplingKind identifies what a Sapling Bech32 string encodes.
type SaplingKind int

const (
	SaplingSpendingKey SaplingKind = iota + 1
	SaplingViewingKey
	SaplingPaymentAddress
)

func (k SaplingKind) String() string {
	switch k {
	case SaplingSpendingKey:
		return "extended-spending-key"
	case SaplingViewingKey:
		return "extended-viewing-key"
	case SaplingPaymentAddress:
		return "payment-address"
	default:
		return fmt.Sprintf("sapling-kind(%d)", int(k))
	}
}

var saplingHRPs = map[SaplingKind]map[Network]string{
	SaplingSpendingKey: {
		Mainnet: "secret-extended-key-main",
		Testnet: "secret-extended-key-test",
	},
	SaplingViewingKey: {
		Mainnet: "zxviews",
		Testnet: "zxviewtestsapling",
	},
	SaplingPaymentAddress: {
		Mainnet: "zs",
		Testnet: "ztestsapling",
	},
}

// SaplingHRP returns the human-readable prefix for kind on net.
func SaplingHRP(kind SaplingKind, net Network) (string, error) {
	byNet, ok := saplingHRPs[kind]
	if !ok {
		return "", wire.NewError(wire.KindRange, "VDXF-RNG-120", "unknown sapling kind")
	}
	hrp, ok := byNet[net]
	if !ok {
		return "", wire.NewError(wire.KindRange, "VDXF-RNG-121", fmt.Sprintf("unknown network %q", net))
	}
	return hrp, nil
}

// ClassifySapling reports the kind and network a Sapling string's prefix names.
func ClassifySapling(s string) (SaplingKind, Network, error) {
	hrp, _, ok := strings.Cut(strings.ToLower(s), "1")
	if !ok {
		return 0, "", wire.NewError(wire.KindFormat, "VDXF-FMT-121", "invalid bech32 string")
	}
	// The separator is the last '1'; prefixes contain none, so the first is it.
	for kind, byNet := range saplingHRPs {
		for net, want := range byNet {
			if hrp == want {
				return kind, net, nil
			}
		}
	}
	return 0, "", wire.NewError(wire.KindFormat, "VDXF-FMT-123", fmt.Sprintf("unrecognized sapling prefix %q", hrp))
}

// ExtendedKeyLength is the serialized size of a Sapling extended spending or
// viewing key: depth(1) + parent FVK tag(4) + child index(4) + chain code(32)
// + four 32-byte key components.
const ExtendedKeyLength = 1 + 4 + 4 + 32 + 4*32

// ExtendedKey is a ZIP-32 Sapling extended key. For spending keys Key holds
// ask, nsk, ovk and dk; for viewing keys ak, nk, ovk and dk.
type ExtendedKey struct {
	Depth        uint8
	ParentFVKTag [4]byte
	ChildIndex   uint32
	ChainCode    [32]byte
	Key          [4][32]byte
}

// Bytes returns the 169-byte serialization of k.
func (k ExtendedKey) Bytes() []byte {
	b := make([]byte, 0, ExtendedKeyLength)
	b = append(b, k.Depth)
	b = append(b, k.ParentFVKTag[:]...)
	b = binary.LittleEndian.AppendUint32(b, k.ChildIndex)
	b = append(b, k.ChainCode[:]...)
	for i := range k.Key {
		b = append(b, k.Key[i][:]...)
	}
	return b
}

// ParseExtendedKey parses the 169-byte serialization of an extended key.
func ParseExtendedKey(b []byte) (ExtendedKey, error) {
	var k ExtendedKey
	if len(b) != ExtendedKeyLength {
		return k, wire.NewError(wire.KindFormat, "VDXF-FMT-124",
			fmt.Sprintf("invalid extended key length: %d, want %d", len(b), ExtendedKeyLength))
	}
	r := wire.NewReader(b)
	k.Depth, _ = r.ReadUint8()
	tag, _ := r.ReadSlice(4)
	copy(k.ParentFVKTag[:], tag)
	k.ChildIndex, _ = r.ReadUint32()
	cc, _ := r.ReadSlice(32)
	copy(k.ChainCode[:], cc)
	for i := range k.Key {
		part, _ := r.ReadSlice(32)
		copy(k.Key[i][:], part)
	}
	return k, nil
}

// PaymentAddressLength is the size of a Sapling payment address:
// diversifier(11) + pk_d(32).
const PaymentAddressLength = 11 + 32

// PaymentAddress is a Sapling shielded payment address.
type PaymentAddress struct {
	Diversifier [11]byte
	PkD         [32]byte
}

func (a PaymentAddress) Bytes() []byte {
	b := make([]byte, 0, PaymentAddressLength)
	b = append(b, a.Diversifier[:]...)
	return append(b, a.PkD[:]...)
}

func ParsePaymentAddress(b []byte) (PaymentAddress, error) {
	var a PaymentAddress
	if len(b) != PaymentAddressLength {
		return a, wire.NewError(wire.KindFormat, "VDXF-FMT-125",
			fmt.Sprintf("invalid payment address length: %d, want %d", len(b), PaymentAddressLength))
	}
	copy(a.Diversifier[:], b[:11])
	copy(a.PkD[:], b[11:])
	return a, nil
}

func encodeSapling(kind SaplingKind, net Network, payload []byte) (string, error) {
	hrp, err := SaplingHRP(kind, net)
	if err != nil {
		return "", err
	}
	return Bech32Encode(hrp, payload)
}

func decodeSapling(s string, kind SaplingKind, net Network, length int) ([]byte, error) {
	want, err := SaplingHRP(kind, net)
	if err != nil {
		return nil, err
	}
	hrp, payload, err := Bech32Decode(s)
	if err != nil {
		return nil, err
	}
	if hrp != want {
		return nil, wire.NewError(wire.KindFormat, "VDXF-FMT-126",
			fmt.Sprintf("prefix %q does not match %s on %s (want %q)", hrp, kind, net, want))
	}
	if len(payload) != length {
		return nil, wire.NewError(wire.KindFormat, "VDXF-FMT-124",
			fmt.Sprintf("invalid %s length: %d, want %d", kind, len(payload), length))
	}
	return payload, nil
}

func EncodeExtendedSpendingKey(k ExtendedKey, net Network) (string, error) {
	return encodeSapling(SaplingSpendingKey, net, k.Bytes())
}

func DecodeExtendedSpendingKey(s string, net Network) (ExtendedKey, error) {
	b, err := decodeSapling(s, SaplingSpendingKey, net, ExtendedKeyLength)
	if err != nil {
		return ExtendedKey{}, err
	}
	return ParseExtendedKey(b)
}

func EncodeExtendedViewingKey(k ExtendedKey, net Network) (string, error) {
	return encodeSapling(SaplingViewingKey, net, k.Bytes())
}

func DecodeExtendedViewingKey(s string, net Network) (ExtendedKey, error) {
	b, err := decodeSapling(s, SaplingViewingKey, net, ExtendedKeyLength)
	if err != nil {
		return ExtendedKey{}, err
	}
	return ParseExtendedKey(b)
}

func EncodePaymentAddress(a PaymentAddress, net Network) (string, error) {
	return encodeSapling(SaplingPaymentAddress, net, a.Bytes())
}

func DecodePaymentAddress(s string, net Network) (PaymentAddress, error) {
	b, err := decodeSapling(s, SaplingPaymentAddress, net, PaymentAddressLength)
	if err != nil {
		return PaymentAddress{}, err
	}
	return ParsePaymentAddress(b)
}
