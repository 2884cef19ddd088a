package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/spf13/cobra"

	"xdao.co/vdxf/cidutil"
	"xdao.co/vdxf/inspect"
	"xdao.co/vdxf/storage"
	"xdao.co/vdxf/storage/bundle"
	"xdao.co/vdxf/transport"
)

func newStoreCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store SUBCOMMAND",
		Short: "Put and get envelopes in the configured store",
	}
	cmd.AddCommand(newStorePutCmd(a), newStoreGetCmd(a), newStoreExportCmd(a), newStoreImportCmd(a))
	return cmd
}

// openStore opens the configured store. Callers close the closer.
func (a *app) openStore() (*storage.Envelopes, io.Closer, inspect.Options, error) {
	d, dir, err := a.cfg.Decoder(a.log)
	if err != nil {
		return nil, nil, inspect.Options{}, err
	}
	s, closer, err := a.cfg.OpenStore(d, a.log)
	if err != nil {
		return nil, nil, inspect.Options{}, err
	}
	return s, closer, inspect.Options{Registry: d.Registry, Names: dir, Network: a.cfg.Network}, nil
}

func newStorePutCmd(a *app) *cobra.Command {
	var in envelopeInput
	cmd := &cobra.Command{
		Use:   "put [INPUT|-]",
		Short: "Store an envelope and print its CID",
		Args:  cobra.RangeArgs(0, 1),

		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := in.read(cmd, args)
			if err != nil {
				return err
			}
			s, closer, _, err := a.openStore()
			if err != nil {
				return err
			}
			defer closer.Close()

			id, err := s.Put(cmd.Context(), raw)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
			return err
		},
	}
	in.register(cmd.Flags())
	return cmd
}

func newStoreGetCmd(a *app) *cobra.Command {
	var (
		kind   string
		format string
	)
	cmd := &cobra.Command{
		Use:   "get CID",
		Short: "Load an envelope by CID",
		Args:  cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cidutil.Parse(args[0])
			if err != nil {
				return err
			}
			s, closer, opts, err := a.openStore()
			if err != nil {
				return err
			}
			defer closer.Close()

			w := cmd.OutOrStdout()
			if format == "base64" {
				b, err := s.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(w, transport.EncodeBase64URL(b))
				return err
			}

			var sum *inspect.Summary
			switch kind {
			case kindRequest:
				q, err := s.GetRequest(cmd.Context(), id)
				if err != nil {
					return err
				}
				sum, err = inspect.Request(q, opts)
				if err != nil {
					return err
				}
			case kindResponse:
				p, err := s.GetResponse(cmd.Context(), id)
				if err != nil {
					return err
				}
				sum, err = inspect.Response(p, opts)
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown --kind %q", kind)
			}
			return writeSummary(w, sum, format)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", kindRequest, "envelope kind: request or response")
	cmd.Flags().StringVar(&format, "format", "json", "output format: json, cbor or base64")
	return cmd
}

func newStoreExportCmd(a *app) *cobra.Command {
	var (
		out    string
		labels []string
	)
	cmd := &cobra.Command{
		Use:   "export CID...",
		Short: "Write envelopes to a deterministic TAR bundle",
		Args:  cobra.MinimumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]cid.Cid, 0, len(args))
			for _, arg := range args {
				id, err := cidutil.Parse(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			named := make(map[string]cid.Cid, len(labels))
			for _, l := range labels {
				name, value, ok := strings.Cut(l, "=")
				if !ok {
					return fmt.Errorf("label %q is not NAME=CID", l)
				}
				id, err := cidutil.Parse(value)
				if err != nil {
					return err
				}
				named[name] = id
			}

			s, closer, _, err := a.openStore()
			if err != nil {
				return err
			}
			defer closer.Close()

			var buf bytes.Buffer
			opts := bundle.ExportOptions{IncludeIndex: true, Labels: named}
			if err := bundle.Export(cmd.Context(), &buf, s, ids, opts); err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			return os.WriteFile(out, buf.Bytes(), 0o644)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "-", "bundle file, - for stdout")
	cmd.Flags().StringArrayVar(&labels, "label", nil, "NAME=CID label recorded in the index (repeatable)")
	return cmd
}

func newStoreImportCmd(a *app) *cobra.Command {
	var ignoreUnknown bool
	cmd := &cobra.Command{
		Use:   "import [BUNDLE|-]",
		Short: "Load every envelope in a TAR bundle into the store",
		Args:  cobra.RangeArgs(0, 1),

		RunE: func(cmd *cobra.Command, args []string) error {
			r := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			s, closer, _, err := a.openStore()
			if err != nil {
				return err
			}
			defer closer.Close()

			ids, _, err := bundle.Import(cmd.Context(), r, s, bundle.ImportOptions{IgnoreUnknown: ignoreUnknown})
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&ignoreUnknown, "ignore-unknown", false, "skip entries that are not envelopes or the index")
	return cmd
}
