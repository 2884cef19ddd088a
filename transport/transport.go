// Package transport wraps serialized envelopes in their textual forms:
// base64url for QR payloads, wallet x-callback deep links and verusid URIs.
//
// Every form carries the binary bytes verbatim; decoding any of them
// returns exactly the bytes that were encoded.
package transport

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"rsc.io/qr"

	"xdao.co/vdxf/address"
	"xdao.co/vdxf/wire"
)

const (
	// DefaultWalletScheme is the scheme wallets register for deep links.
	DefaultWalletScheme = "verus"
	// CallbackHost is the fixed authority of an x-callback deep link.
	CallbackHost = "x-callback-url"
	// IdentityScheme is the scheme of verusid:// URIs.
	IdentityScheme = "verusid"
)

// EncodeBase64URL returns the unpadded base64url form of b.
func EncodeBase64URL(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeBase64URL accepts padded or unpadded base64url.
func DecodeBase64URL(s string) ([]byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return nil, wire.WrapError(wire.KindFormat, "VDXF-FMT-601", "invalid base64url payload", err)
	}
	return b, nil
}

// QRString is the text placed in a QR code for b.
func QRString(b []byte) string { return EncodeBase64URL(b) }

// ParseQRString reverses QRString.
func ParseQRString(s string) ([]byte, error) { return DecodeBase64URL(strings.TrimSpace(s)) }

// QRCode renders b's QR string as a QR symbol.
func QRCode(b []byte, level qr.Level) (*qr.Code, error) {
	c, err := qr.Encode(QRString(b), level)
	if err != nil {
		return nil, wire.WrapError(wire.KindValidation, "VDXF-VAL-601", "payload does not fit in a QR code", err)
	}
	return c, nil
}

// DeepLink is scheme://x-callback-url/<key>/<base64url payload>.
type DeepLink struct {
	Scheme string
	Key    address.Hash160
	// KeyVersion is address.VersionX when the key is written as an
	// x-address. Zero means i-address.
	KeyVersion byte
	Payload    []byte
}

// String renders the link.
func (l DeepLink) String() string {
	scheme := l.Scheme
	if scheme == "" {
		scheme = DefaultWalletScheme
	}
	version := address.VersionI
	if l.KeyVersion == address.VersionX {
		version = address.VersionX
	}
	return scheme + "://" + CallbackHost + "/" + l.Key.Encode(version) + "/" + EncodeBase64URL(l.Payload)
}

// ParseDeepLink parses an x-callback deep link. The key may be given in
// i-address or x-address form.
func ParseDeepLink(s string) (DeepLink, error) {
	u, err := url.Parse(s)
	if err != nil {
		return DeepLink{}, wire.WrapError(wire.KindFormat, "VDXF-FMT-602", "invalid deep link", err)
	}
	if u.Scheme == "" || u.Host != CallbackHost {
		return DeepLink{}, wire.NewError(wire.KindFormat, "VDXF-FMT-603",
			fmt.Sprintf("deep link must be <scheme>://%s/<key>/<payload>", CallbackHost))
	}
	key, payload, ok := strings.Cut(strings.TrimPrefix(u.EscapedPath(), "/"), "/")
	if !ok || key == "" || payload == "" || strings.Contains(payload, "/") {
		return DeepLink{}, wire.NewError(wire.KindFormat, "VDXF-FMT-603",
			fmt.Sprintf("deep link must be <scheme>://%s/<key>/<payload>", CallbackHost))
	}
	version, h, err := address.Base58CheckDecode(key)
	if err != nil {
		return DeepLink{}, err
	}
	if version != address.VersionI && version != address.VersionX {
		return DeepLink{}, wire.NewError(wire.KindFormat, "VDXF-FMT-604", "deep link key is not an i-address or x-address")
	}
	b, err := DecodeBase64URL(payload)
	if err != nil {
		return DeepLink{}, err
	}
	l := DeepLink{Scheme: u.Scheme, Key: h, Payload: b}
	if version == address.VersionX {
		l.KeyVersion = address.VersionX
	}
	return l, nil
}

// IdentityURI is verusid://<version>/<base64url payload>.
type IdentityURI struct {
	Version uint64
	Payload []byte
}

func (u IdentityURI) String() string {
	return IdentityScheme + "://" + strconv.FormatUint(u.Version, 10) + "/" + EncodeBase64URL(u.Payload)
}

// ParseIdentityURI parses a verusid:// URI.
func ParseIdentityURI(s string) (IdentityURI, error) {
	rest, ok := strings.CutPrefix(s, IdentityScheme+"://")
	if !ok {
		return IdentityURI{}, wire.NewError(wire.KindFormat, "VDXF-FMT-605",
			fmt.Sprintf("URI must start with %s://", IdentityScheme))
	}
	v, payload, ok := strings.Cut(rest, "/")
	if !ok || payload == "" {
		return IdentityURI{}, wire.NewError(wire.KindFormat, "VDXF-FMT-605",
			fmt.Sprintf("URI must be %s://<version>/<payload>", IdentityScheme))
	}
	version, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return IdentityURI{}, wire.WrapError(wire.KindFormat, "VDXF-FMT-606", "invalid URI version", err)
	}
	b, err := DecodeBase64URL(payload)
	if err != nil {
		return IdentityURI{}, err
	}
	return IdentityURI{Version: version, Payload: b}, nil
}

// Parse accepts any textual form and returns the carried bytes: a deep
// link, a verusid URI, or a bare base64url string.
func Parse(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, IdentityScheme+"://"):
		u, err := ParseIdentityURI(s)
		return u.Payload, err
	case strings.Contains(s, "://"):
		l, err := ParseDeepLink(s)
		return l.Payload, err
	default:
		return ParseQRString(s)
	}
}
