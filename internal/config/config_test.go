package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MergesDefaults(t *testing.T) {
	path := writeConfig(t, `
[session]
trust = 40
seed = 99

[memgraph]
uri = "bolt://memgraph:7687"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Session.Trust)
	assert.Equal(t, uint64(99), cfg.Session.Seed)
	assert.Equal(t, "data", cfg.Session.SnapshotDir)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "data/journal.db", cfg.Journal.Path)
	assert.Equal(t, "bolt://memgraph:7687", cfg.Memgraph.URI)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeConfig(t, "[session\ntrust = "))
	assert.Error(t, err)
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("CLUSTERCHECK_TRUST", "10")
	t.Setenv("CLUSTERCHECK_SEED", "7")
	t.Setenv("PORT", "9090")
	t.Setenv("CLUSTERCHECK_JOURNAL", "")
	t.Setenv("MEMGRAPH_URI", "bolt://x:7687")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, 10, cfg.Session.Trust)
	assert.Equal(t, uint64(7), cfg.Session.Seed)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Empty(t, cfg.Journal.Path, "an empty value disables the journal")
	assert.Equal(t, "bolt://x:7687", cfg.Memgraph.URI)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestApplyEnv_BadNumber(t *testing.T) {
	t.Setenv("CLUSTERCHECK_TRUST", "high")
	assert.Error(t, Default().ApplyEnv())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"trust bounds", func(c *Config) { c.Session.Trust = 100 }, false},
		{"trust too high", func(c *Config) { c.Session.Trust = 101 }, true},
		{"trust negative", func(c *Config) { c.Session.Trust = -1 }, true},
		{"negative port", func(c *Config) { c.Server.Port = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
