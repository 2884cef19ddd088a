package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"xdao.co/vdxf/address"
	"xdao.co/vdxf/compact"
)

func newAddressCmd(a *app) *cobra.Command {
	var key bool
	cmd := &cobra.Command{
		Use:   "address NAME",
		Short: "Derive the address of an identity or VDXF key",

		Long: `address prints the i-address an identity name (e.g. alice.chips@) resolves to
under the configured root system, and the compact encoding of the name.
With --key, NAME is a VDXF key name (e.g. vrsc::system.identity.signature).
A Sapling string (zs1..., zxviews1...) is classified instead.
`,
		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			w := cmd.OutOrStdout()
			dir, err := a.cfg.Directory()
			if err != nil {
				return err
			}

			if kind, net, err := address.ClassifySapling(name); err == nil {
				_, err = fmt.Fprintf(w, "sapling %s on %s\n", kind, net)
				return err
			}

			if key {
				id, err := dir.ResolveKey(name)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(w, "%s\t%s\n", id.IAddress(), id)
				return err
			}

			id, err := dir.ResolveIdentity(name)
			if err != nil {
				return err
			}
			ca, err := compactForm(name, a.cfg.RootSystem)
			if err != nil {
				return err
			}
			ca = ca.Canonicalize()
			b, err := ca.Bytes()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(w, "%s\t%s\t%s\n", id.IAddress(), ca.Type(), hex.EncodeToString(b))
			return err
		},
	}
	cmd.Flags().BoolVar(&key, "key", false, "treat NAME as a VDXF key name")
	return cmd
}

func compactForm(name, root string) (compact.Address, error) {
	if address.IsIAddress(name) {
		return compact.FromIAddress(name)
	}
	if !strings.HasSuffix(name, "@") {
		name += "@"
	}
	return compact.FromFQN(name, root)
}
