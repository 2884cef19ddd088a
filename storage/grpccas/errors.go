package grpccas

import (
	"fmt"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"xdao.co/vdxf/storage"
)

// mapRPC turns a status error back into the storage sentinel the server
// started from.
func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.NotFound:
		return storage.ErrNotFound
	case codes.InvalidArgument:
		if strings.HasPrefix(st.Message(), storage.ErrNotEnvelope.Error()) {
			return fmt.Errorf("%w (remote: %s)", storage.ErrNotEnvelope, st.Message())
		}
		return storage.ErrInvalidCID
	case codes.DataLoss:
		return storage.ErrCIDMismatch
	case codes.AlreadyExists:
		return storage.ErrImmutable
	default:
		return err
	}
}
