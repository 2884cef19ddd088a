package main

import (
	"net"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"xdao.co/vdxf/storage/grpccas"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		listen      string
		maxMsgBytes int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the configured envelope store over gRPC",

		Long: `serve exposes the store described by the config file as the
` + grpccas.ServiceName + ` gRPC service. Blobs that do not decode
as envelopes are rejected.
`,
		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, closer, _, err := a.openStore()
			if err != nil {
				return err
			}
			defer closer.Close()

			lis, err := net.Listen("tcp", listen)
			if err != nil {
				return err
			}
			defer lis.Close()

			var opts []grpc.ServerOption
			if maxMsgBytes > 0 {
				opts = append(opts, grpc.MaxRecvMsgSize(maxMsgBytes), grpc.MaxSendMsgSize(maxMsgBytes))
			}
			srv := grpc.NewServer(opts...)
			grpccas.RegisterEnvelopeStoreServer(srv, grpccas.NewServer(s, a.log.With("sys", "grpc")))

			go func() {
				<-ctx.Done()
				a.log.Info("Shutting down")
				srv.GracefulStop()
			}()

			a.log.Info("Serving envelope store", "addr", lis.Addr().String())
			return srv.Serve(lis)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "127.0.0.1:7777", "listen address")
	cmd.Flags().IntVar(&maxMsgBytes, "max-msg-bytes", 0, "max gRPC message size (0 for the grpc default)")
	return cmd
}
