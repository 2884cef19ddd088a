// Package config loads the YAML configuration shared by the vdxf command
// and its server, and builds the registry, decoder and envelope store it
// describes.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"xdao.co/vdxf/address"
	"xdao.co/vdxf/keys"
)

// EnvVar names the environment variable Load reads the config path from.
const EnvVar = "VDXF_CONFIG"

// Backend types.
const (
	BackendMemory  = "memory"
	BackendLocalFS = "localfs"
	BackendGRPC    = "grpc"
	BackendIPFS    = "ipfs"
)

// Write policies for multi-backend storage.
const (
	// WriteFirst writes to the first backend; reads fall back in order.
	WriteFirst = "first"
	// WriteAll writes to every backend and requires matching CIDs.
	WriteAll = "all"
)

type Config struct {
	Network    address.Network `yaml:"network"`
	RootSystem string          `yaml:"root_system"`

	Registry RegistryConfig `yaml:"registry"`
	Storage  StorageConfig  `yaml:"storage"`

	// Keys are extra named VDXF keys, bound before the registry is built.
	Keys []KeyConfig `yaml:"keys,omitempty"`
}

type RegistryConfig struct {
	// Mode is "strict" or "permissive".
	Mode                string `yaml:"mode"`
	OptimizeWithOrdinal bool   `yaml:"optimize_with_ordinal"`
}

type StorageConfig struct {
	WritePolicy string          `yaml:"write_policy"`
	Backends    []BackendConfig `yaml:"backends"`
}

type BackendConfig struct {
	// Name identifies the backend in logs and per-backend CID maps.
	// Defaults to Type.
	Name string `yaml:"name,omitempty"`
	Type string `yaml:"type"`

	// Dir is the localfs root.
	Dir string `yaml:"dir,omitempty"`

	// Target and Timeout configure grpc backends.
	Target      string        `yaml:"target,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
	MaxMsgBytes int           `yaml:"max_msg_bytes,omitempty"`

	// IPFSBin and IPFSPath configure ipfs backends; both are optional.
	IPFSBin  string `yaml:"ipfs_bin,omitempty"`
	IPFSPath string `yaml:"ipfs_path,omitempty"`
}

type KeyConfig struct {
	Name string `yaml:"name"`
	// ID is the key's i-address; empty derives it from Name.
	ID string `yaml:"id,omitempty"`
}

func Default() *Config {
	return &Config{
		Network:    address.Mainnet,
		RootSystem: address.DefaultRootSystem,
		Registry:   RegistryConfig{Mode: "strict"},
		Storage: StorageConfig{
			WritePolicy: WriteFirst,
			Backends:    []BackendConfig{{Type: BackendMemory}},
		},
	}
}

// Load reads the file named by VDXF_CONFIG, or returns Default when it
// is unset.
func Load() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

func LoadFile(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config: empty config path")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse overlays data on Default and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Network {
	case address.Mainnet, address.Testnet:
	default:
		return fmt.Errorf("config: unknown network %q", c.Network)
	}
	if c.RootSystem == "" {
		return errors.New("config: root_system is required")
	}
	if _, err := c.mode(); err != nil {
		return err
	}

	switch c.Storage.WritePolicy {
	case "", WriteFirst, WriteAll:
	default:
		return fmt.Errorf("config: unknown write_policy %q", c.Storage.WritePolicy)
	}
	if len(c.Storage.Backends) == 0 {
		return errors.New("config: at least one storage backend is required")
	}
	seen := make(map[string]struct{}, len(c.Storage.Backends))
	for _, b := range c.Storage.Backends {
		if err := b.validate(); err != nil {
			return err
		}
		if _, ok := seen[b.name()]; ok {
			return fmt.Errorf("config: duplicate backend name %q", b.name())
		}
		seen[b.name()] = struct{}{}
	}

	for _, k := range c.Keys {
		if _, err := keys.ParseKeyName(k.Name); err != nil {
			return fmt.Errorf("config: key %q: %w", k.Name, err)
		}
		if k.ID != "" {
			if _, err := address.ParseIAddress(k.ID); err != nil {
				return fmt.Errorf("config: key %q: %w", k.Name, err)
			}
		}
	}
	return nil
}

func (b BackendConfig) name() string {
	if b.Name != "" {
		return b.Name
	}
	return b.Type
}

func (b BackendConfig) validate() error {
	switch b.Type {
	case BackendMemory, BackendIPFS:
	case BackendLocalFS:
		if b.Dir == "" {
			return fmt.Errorf("config: backend %q: dir is required", b.name())
		}
	case BackendGRPC:
		if b.Target == "" {
			return fmt.Errorf("config: backend %q: target is required", b.name())
		}
		if b.Timeout < 0 {
			return fmt.Errorf("config: backend %q: negative timeout", b.name())
		}
	default:
		return fmt.Errorf("config: unknown backend type %q", b.Type)
	}
	return nil
}

// Testnet reports whether envelopes built under c carry the testnet flag.
func (c *Config) Testnet() bool { return c.Network == address.Testnet }
