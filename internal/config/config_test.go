package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MikhailWahib/kvs/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()

	assert.Equal(t, 65535, cfg.MaxKeyBytes)
	assert.Equal(t, int64(4294967295), cfg.MaxValueBytes)
	assert.True(t, cfg.ShouldSync())
	assert.Equal(t, config.IndexHash, cfg.IndexType)
	assert.Equal(t, config.CompressionNone, cfg.Compression)
	assert.NoError(t, cfg.Validate())
}

func TestFillDefaults(t *testing.T) {
	noSync := false
	cfg := &config.Config{MaxKeyBytes: 16, SyncWrites: &noSync}
	cfg.FillDefaults()

	assert.Equal(t, 16, cfg.MaxKeyBytes)
	assert.False(t, cfg.ShouldSync())
	assert.Equal(t, int64(4294967295), cfg.MaxValueBytes)
	assert.Equal(t, config.IndexHash, cfg.IndexType)
	assert.Equal(t, ":6380", cfg.ServerAddr)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"key limit above format", func(c *config.Config) { c.MaxKeyBytes = 1 << 16 }},
		{"negative value limit", func(c *config.Config) { c.MaxValueBytes = -1 }},
		{"value limit above format", func(c *config.Config) { c.MaxValueBytes = 1 << 32 }},
		{"unknown index", func(c *config.Config) { c.IndexType = "trie" }},
		{"unknown compression", func(c *config.Config) { c.Compression = "zstd" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kvs.yaml")
	content := `
max_key_bytes: 256
sync_writes: false
index_type: btree
compression: s2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 256, cfg.MaxKeyBytes)
	assert.False(t, cfg.ShouldSync())
	assert.Equal(t, config.IndexBTree, cfg.IndexType)
	assert.Equal(t, config.CompressionS2, cfg.Compression)
	assert.Equal(t, int64(4294967295), cfg.MaxValueBytes, "unset fields take defaults")
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := config.LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("max_key_bytes: [1, 2"), 0644))
	_, err = config.LoadFile(bad)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("index_type: trie\n"), 0644))
	_, err = config.LoadFile(invalid)
	assert.ErrorContains(t, err, "index_type")
}
