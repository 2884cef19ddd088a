package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"xdao.co/vdxf/address"
	"xdao.co/vdxf/cidutil"
	"xdao.co/vdxf/config"
	"xdao.co/vdxf/keys"
	"xdao.co/vdxf/storage/testkit"
	"xdao.co/vdxf/transport"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvVar, "")
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestDecode_JSON(t *testing.T) {
	raw := testkit.Envelope(t, 1)
	out, err := run(t, "", "decode", transport.EncodeBase64URL(raw))
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	require.Equal(t, "request", m["kind"])
	require.Equal(t, cidutil.String(raw), m["cid"])
}

func TestDecode_StdinAndRejects(t *testing.T) {
	raw := testkit.Envelope(t, 2)
	_, err := run(t, transport.IdentityURI{Version: 1, Payload: raw}.String()+"\n", "decode", "-")
	require.NoError(t, err)

	_, err = run(t, "", "decode", "--hex", "0200")
	require.Error(t, err)

	_, err = run(t, "", "decode", "--kind", "other", transport.EncodeBase64URL(raw))
	require.Error(t, err)

	_, err = run(t, "", "--log-level", "loud", "decode", transport.EncodeBase64URL(raw))
	require.Error(t, err)
}

func TestEncode_Forms(t *testing.T) {
	raw := testkit.Envelope(t, 3)
	b64 := transport.EncodeBase64URL(raw)

	out, err := run(t, "", "encode", b64)
	require.NoError(t, err)
	require.Equal(t, b64, strings.TrimSpace(out))

	out, err = run(t, "", "encode", "--as", "deeplink", "--key", "vrsc::system.request.item", b64)
	require.NoError(t, err)
	link, err := transport.ParseDeepLink(strings.TrimSpace(out))
	require.NoError(t, err)
	require.Equal(t, keys.MustKeyID("vrsc::system.request.item"), link.Key)
	require.Equal(t, raw, link.Payload)

	_, err = run(t, "", "encode", "--as", "deeplink", b64)
	require.Error(t, err)

	out, err = run(t, "", "encode", "--as", "qr", b64)
	require.NoError(t, err)
	require.NotEmpty(t, out)

	png := filepath.Join(t.TempDir(), "env.png")
	_, err = run(t, "", "encode", "--as", "png", "-o", png, b64)
	require.NoError(t, err)
	data, err := os.ReadFile(png)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}

func TestAddress(t *testing.T) {
	out, err := run(t, "", "address", "chips@")
	require.NoError(t, err)
	id, err := address.IdentityID("chips@", "VRSC")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, id.IAddress()+"\t"), out)

	out, err = run(t, "", "address", "--key", "vrsc::system.request.item")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, keys.MustKeyID("vrsc::system.request.item").IAddress()), out)
}

func TestStore_PutGetLocalFS(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "vdxf.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
storage:
  backends:
    - type: localfs
      dir: `+dir+`
`), 0o600))

	raw := testkit.Envelope(t, 4)
	out, err := run(t, "", "--config", cfgPath, "store", "put", transport.EncodeBase64URL(raw))
	require.NoError(t, err)
	id := strings.TrimSpace(out)
	require.Equal(t, cidutil.String(raw), id)

	out, err = run(t, "", "--config", cfgPath, "store", "get", "--format", "base64", id)
	require.NoError(t, err)
	require.Equal(t, transport.EncodeBase64URL(raw), strings.TrimSpace(out))

	out, err = run(t, "", "--config", cfgPath, "store", "get", id)
	require.NoError(t, err)
	require.Contains(t, out, `"kind": "request"`)

	_, err = run(t, "", "--config", cfgPath, "store", "put", transport.EncodeBase64URL([]byte("junk")))
	require.Error(t, err)

	tarPath := filepath.Join(t.TempDir(), "out.tar")
	_, err = run(t, "", "--config", cfgPath, "store", "export", "-o", tarPath, "--label", "first="+id, id)
	require.NoError(t, err)

	other := filepath.Join(t.TempDir(), "other.yaml")
	require.NoError(t, os.WriteFile(other, []byte(`
storage:
  backends:
    - type: localfs
      dir: `+t.TempDir()+`
`), 0o600))
	out, err = run(t, "", "--config", other, "store", "import", tarPath)
	require.NoError(t, err)
	require.Equal(t, id, strings.TrimSpace(out))
}
