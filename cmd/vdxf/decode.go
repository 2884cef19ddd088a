package main

import (
	"github.com/spf13/cobra"

	"xdao.co/vdxf/inspect"
)

func newDecodeCmd(a *app) *cobra.Command {
	var (
		in     envelopeInput
		format string
	)
	cmd := &cobra.Command{
		Use:   "decode [INPUT|-]",
		Short: "Decode an envelope and print a summary",
		Args:  cobra.RangeArgs(0, 1),

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
			s, err := v.summary(inspect.Options{Registry: d.Registry, Names: dir, Network: a.cfg.Network})
			if err != nil {
				return err
			}
			a.log.Debug("decoded envelope", "kind", in.kind, "size", len(raw), "cid", s.CID)
			return writeSummary(cmd.OutOrStdout(), s, format)
		},
	}
	in.register(cmd.Flags())
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or cbor")
	return cmd
}
