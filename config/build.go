package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"xdao.co/vdxf/address"
	"xdao.co/vdxf/details"
	"xdao.co/vdxf/envelope"
	"xdao.co/vdxf/keys"
	"xdao.co/vdxf/ordinal"
	"xdao.co/vdxf/storage"
	"xdao.co/vdxf/storage/grpccas"
	"xdao.co/vdxf/storage/ipfs"
	"xdao.co/vdxf/storage/localfs"
)

func (c *Config) mode() (ordinal.Mode, error) {
	switch c.Registry.Mode {
	case "", "strict":
		return ordinal.Strict, nil
	case "permissive":
		return ordinal.Permissive, nil
	default:
		return 0, fmt.Errorf("config: unknown registry mode %q", c.Registry.Mode)
	}
}

// Directory returns a key directory holding the configured keys.
func (c *Config) Directory() (*keys.Directory, error) {
	dir := keys.NewDirectory(c.RootSystem)
	for _, k := range c.Keys {
		if k.ID == "" {
			if _, err := dir.AddDerived(k.Name); err != nil {
				return nil, err
			}
			continue
		}
		id, err := address.ParseIAddress(k.ID)
		if err != nil {
			return nil, err
		}
		if err := dir.Add(k.Name, id); err != nil {
			return nil, err
		}
	}
	for _, name := range []string{details.KeyRequestItem, details.KeyInvoice, details.KeyLoginChallenge} {
		if _, err := dir.AddDerived(name); err != nil {
			return nil, err
		}
	}
	return dir, nil
}

// BuildRegistry builds the sealed detail registry c describes.
func (c *Config) BuildRegistry(log *slog.Logger) (*ordinal.Registry, *keys.Directory, error) {
	mode, err := c.mode()
	if err != nil {
		return nil, nil, err
	}
	dir, err := c.Directory()
	if err != nil {
		return nil, nil, err
	}
	reg := ordinal.NewRegistry(
		ordinal.WithResolver(dir),
		ordinal.WithOptimizeWithOrdinal(c.Registry.OptimizeWithOrdinal),
		ordinal.WithLogger(log),
	)
	if err := details.Register(reg, c.RootSystem, mode); err != nil {
		return nil, nil, err
	}
	reg.Seal()
	return reg, dir, nil
}

// Decoder builds an envelope decoder over the configured registry.
func (c *Config) Decoder(log *slog.Logger) (*envelope.Decoder, *keys.Directory, error) {
	reg, dir, err := c.BuildRegistry(log)
	if err != nil {
		return nil, nil, err
	}
	return envelope.NewDecoder(reg, c.RootSystem), dir, nil
}

// OpenStore opens every configured backend and combines them under the
// write policy. The returned store only accepts envelopes d can decode.
// The closer releases network connections.
func (c *Config) OpenStore(d *envelope.Decoder, log *slog.Logger) (*storage.Envelopes, io.Closer, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	var (
		named   []storage.Named
		closers closeAll
	)
	for _, b := range c.Storage.Backends {
		s, closer, err := b.open()
		if err != nil {
			_ = closers.Close()
			return nil, nil, fmt.Errorf("config: open backend %q: %w", b.name(), err)
		}
		if closer != nil {
			closers = append(closers, closer)
		}
		named = append(named, storage.Named{Name: b.name(), Store: s})
		log.Debug("opened storage backend", "name", b.name(), "type", b.Type)
	}

	var store storage.Store
	switch {
	case len(named) == 1:
		store = named[0].Store
	case c.Storage.WritePolicy == WriteAll:
		store = storage.Replicated{Backends: named}
	default:
		store = storage.Fallback{Backends: named}
	}
	return storage.NewEnvelopes(store, d, log), closers, nil
}

func (b BackendConfig) open() (storage.Store, io.Closer, error) {
	switch b.Type {
	case BackendMemory:
		return storage.NewMemory(), nil, nil
	case BackendLocalFS:
		s, err := localfs.New(b.Dir)
		return s, nil, err
	case BackendGRPC:
		cl, err := grpccas.Dial(b.Target, grpccas.DialOptions{Timeout: b.Timeout, MaxMsgBytes: b.MaxMsgBytes})
		if err != nil {
			return nil, nil, err
		}
		return cl, cl, nil
	case BackendIPFS:
		return ipfs.New(ipfs.Options{Bin: b.IPFSBin, RepoPath: b.IPFSPath}), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend type %q", b.Type)
	}
}

type closeAll []io.Closer

func (cs closeAll) Close() error {
	var errs []error
	for _, c := range cs {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
