// Package config provides configuration structures and defaults for kvs.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// IndexType selects the in-memory index implementation.
type IndexType string

const (
	// IndexHash is an unordered hash map. It is the default.
	IndexHash IndexType = "hash"
	// IndexBTree keeps keys ordered in a B-tree.
	IndexBTree IndexType = "btree"
	// IndexART keeps keys ordered in an adaptive radix tree.
	IndexART IndexType = "art"
	// IndexSkipList keeps keys ordered in a skip list.
	IndexSkipList IndexType = "skiplist"
)

// Compression selects how the typed store encodes values before writing them.
type Compression string

const (
	// CompressionNone stores serialized values as is.
	CompressionNone Compression = "none"
	// CompressionS2 compresses serialized values with S2.
	CompressionS2 Compression = "s2"
)

const (
	defaultMaxKeyBytes   = 1<<16 - 1
	defaultMaxValueBytes = 1<<32 - 1
	defaultIndexType     = IndexHash
	defaultCompression   = CompressionNone
	defaultServerAddr    = ":6380"
)

// Config holds all tunable parameters of a kvs store.
type Config struct {
	MaxKeyBytes   int         `yaml:"max_key_bytes"`
	MaxValueBytes int64       `yaml:"max_value_bytes"`
	SyncWrites    *bool       `yaml:"sync_writes"`
	IndexType     IndexType   `yaml:"index_type"`
	Compression   Compression `yaml:"compression"`
	ServerAddr    string      `yaml:"server_addr"`
}

// DefaultConfig returns a Config struct populated with default values.
func DefaultConfig() *Config {
	sync := true
	return &Config{
		MaxKeyBytes:   defaultMaxKeyBytes,
		MaxValueBytes: defaultMaxValueBytes,
		SyncWrites:    &sync,
		IndexType:     defaultIndexType,
		Compression:   defaultCompression,
		ServerAddr:    defaultServerAddr,
	}
}

// FillDefaults sets any zero-value fields in the Config to their default values.
func (c *Config) FillDefaults() {
	def := DefaultConfig()
	if c.MaxKeyBytes == 0 {
		c.MaxKeyBytes = def.MaxKeyBytes
	}
	if c.MaxValueBytes == 0 {
		c.MaxValueBytes = def.MaxValueBytes
	}
	if c.SyncWrites == nil {
		c.SyncWrites = def.SyncWrites
	}
	if c.IndexType == "" {
		c.IndexType = def.IndexType
	}
	if c.Compression == "" {
		c.Compression = def.Compression
	}
	if c.ServerAddr == "" {
		c.ServerAddr = def.ServerAddr
	}
}

// ShouldSync reports whether every append is followed by an fsync.
func (c *Config) ShouldSync() bool {
	return c.SyncWrites == nil || *c.SyncWrites
}

// Validate checks that the limits fit the on-disk format and that the
// enumerated options are known.
func (c *Config) Validate() error {
	if c.MaxKeyBytes < 0 || c.MaxKeyBytes > defaultMaxKeyBytes {
		return fmt.Errorf("max_key_bytes must be in [0, %d], got %d", defaultMaxKeyBytes, c.MaxKeyBytes)
	}
	if c.MaxValueBytes < 0 || c.MaxValueBytes > defaultMaxValueBytes {
		return fmt.Errorf("max_value_bytes must be in [0, %d], got %d", int64(defaultMaxValueBytes), c.MaxValueBytes)
	}
	switch c.IndexType {
	case IndexHash, IndexBTree, IndexART, IndexSkipList:
	default:
		return fmt.Errorf("unknown index_type %q", c.IndexType)
	}
	switch c.Compression {
	case CompressionNone, CompressionS2:
	default:
		return fmt.Errorf("unknown compression %q", c.Compression)
	}
	return nil
}

// LoadFile reads a YAML config file. Missing fields take their default values.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.FillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}
