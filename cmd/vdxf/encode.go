package main

import (
	"fmt"
	"os"

	"github.com/mdp/qrterminal/v3"
	"github.com/spf13/cobra"
	"rsc.io/qr"

	"xdao.co/vdxf/transport"
)

func newEncodeCmd(a *app) *cobra.Command {
	var (
		in      envelopeInput
		as      string
		key     string
		version uint64
		out     string
	)
	cmd := &cobra.Command{
		Use:   "encode [INPUT|-]",
		Short: "Validate an envelope and re-emit it in a transport form",

		Long: `encode decodes an envelope, re-encodes it canonically and writes it as:
  base64    base64url text (the QR payload)
  deeplink  verus://x-callback-url/<key>/<payload>, requires --key
  uri       verusid://<version>/<payload>
  qr        a QR code drawn on the terminal
  png       a QR code PNG written to --out
`,
		Args: cobra.RangeArgs(0, 1),

		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := in.read(cmd, args)
			if err != nil {
				return err
			}
			d, dir, err := a.cfg.Decoder(a.log)
			if err != nil {
				return err
			}
			v, err := in.decode(d, raw)
			if err != nil {
				return err
			}
			b, err := v.bytes()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			switch as {
			case "base64":
				_, err = fmt.Fprintln(w, transport.EncodeBase64URL(b))
			case "deeplink":
				if key == "" {
					return fmt.Errorf("--as deeplink requires --key")
				}
				id, kerr := dir.ResolveKey(key)
				if kerr != nil {
					return kerr
				}
				_, err = fmt.Fprintln(w, transport.DeepLink{Key: id, Payload: b}.String())
			case "uri":
				_, err = fmt.Fprintln(w, transport.IdentityURI{Version: version, Payload: b}.String())
			case "qr":
				qrterminal.GenerateWithConfig(transport.QRString(b), qrterminal.Config{
					Level:     qrterminal.L,
					Writer:    w,
					BlackChar: qrterminal.BLACK,
					WhiteChar: qrterminal.WHITE,
					QuietZone: 1,
				})
			case "png":
				if out == "" {
					return fmt.Errorf("--as png requires --out")
				}
				code, qerr := transport.QRCode(b, qr.L)
				if qerr != nil {
					return qerr
				}
				err = os.WriteFile(out, code.PNG(), 0o644)
			default:
				return fmt.Errorf("unknown --as %q", as)
			}
			return err
		},
	}
	in.register(cmd.Flags())
	f := cmd.Flags()
	f.StringVar(&as, "as", "base64", "output form: base64, deeplink, uri, qr or png")
	f.StringVar(&key, "key", "", "VDXF key (name or address) for deep links")
	f.Uint64Var(&version, "uri-version", 1, "version segment of verusid URIs")
	f.StringVarP(&out, "out", "o", "", "output file for png")
	return cmd
}
