package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"xdao.co/vdxf/envelope"
	"xdao.co/vdxf/inspect"
	"xdao.co/vdxf/transport"
)

const (
	kindRequest  = "request"
	kindResponse = "response"
)

// envelopeInput is the shared way subcommands take one envelope.
type envelopeInput struct {
	hex  bool
	kind string
}

func (in *envelopeInput) register(fs *pflag.FlagSet) {
	fs.BoolVar(&in.hex, "hex", false, "input is hex rather than a transport string")
	fs.StringVar(&in.kind, "kind", kindRequest, "envelope kind: request or response")
}

// read returns the raw envelope bytes from args[0], or from stdin when
// args is empty or "-".
func (in *envelopeInput) read(cmd *cobra.Command, args []string) ([]byte, error) {
	var text string
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, err
		}
		text = string(b)
	} else {
		text = args[0]
	}
	text = strings.TrimSpace(text)
	if in.hex {
		return hex.DecodeString(text)
	}
	return transport.Parse(text)
}

// decoded is either a request or a response.
type decoded struct {
	request  *envelope.Request
	response *envelope.Response
}

func (in *envelopeInput) decode(d *envelope.Decoder, b []byte) (decoded, error) {
	switch in.kind {
	case kindRequest:
		q, err := d.DecodeRequest(b)
		return decoded{request: q}, err
	case kindResponse:
		p, err := d.DecodeResponse(b)
		return decoded{response: p}, err
	default:
		return decoded{}, fmt.Errorf("unknown --kind %q", in.kind)
	}
}

func (v decoded) bytes() ([]byte, error) {
	if v.request != nil {
		return v.request.Bytes()
	}
	return v.response.Bytes()
}

func (v decoded) summary(opts inspect.Options) (*inspect.Summary, error) {
	if v.request != nil {
		return inspect.Request(v.request, opts)
	}
	return inspect.Response(v.response, opts)
}

func writeSummary(w io.Writer, s *inspect.Summary, format string) error {
	var (
		b   []byte
		err error
	)
	switch format {
	case "json":
		b, err = s.JSON()
		b = append(b, '\n')
	case "cbor":
		b, err = s.CBOR()
	default:
		return fmt.Errorf("unknown --format %q", format)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
