package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

type SessionConfig struct {
	Trust       int    `toml:"trust"`
	Seed        uint64 `toml:"seed"`
	SnapshotDir string `toml:"snapshot_dir"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Mode string `toml:"mode"`
}

type JournalConfig struct {
	Path string `toml:"path"`
}

type MemgraphConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type LogConfig struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

type Config struct {
	Session  SessionConfig  `toml:"session"`
	Server   ServerConfig   `toml:"server"`
	Journal  JournalConfig  `toml:"journal"`
	Memgraph MemgraphConfig `toml:"memgraph"`
	Log      LogConfig      `toml:"log"`
}

func Default() *Config {
	return &Config{
		Session: SessionConfig{Trust: 75, SnapshotDir: "data"},
		Server:  ServerConfig{Port: 8080, Mode: "release"},
		Journal: JournalConfig{Path: "data/journal.db"},
		Log:     LogConfig{Level: "info"},
	}
}

// Load reads path on top of the defaults, so keys absent from the file keep
// their default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// ApplyEnv overrides fields from the environment. Unset variables leave the
// field alone.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("CLUSTERCHECK_TRUST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CLUSTERCHECK_TRUST: %w", err)
		}
		c.Session.Trust = n
	}
	if v := os.Getenv("CLUSTERCHECK_SEED"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("CLUSTERCHECK_SEED: %w", err)
		}
		c.Session.Seed = n
	}
	if v := os.Getenv("CLUSTERCHECK_SNAPSHOT_DIR"); v != "" {
		c.Session.SnapshotDir = v
	}
	if v := os.Getenv("PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.Server.Port = n
	}
	if v, ok := os.LookupEnv("CLUSTERCHECK_JOURNAL"); ok {
		c.Journal.Path = v
	}
	if v := os.Getenv("MEMGRAPH_URI"); v != "" {
		c.Memgraph.URI = v
	}
	if v := os.Getenv("MEMGRAPH_USER"); v != "" {
		c.Memgraph.User = v
	}
	if v := os.Getenv("MEMGRAPH_PASSWORD"); v != "" {
		c.Memgraph.Password = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Session.Trust < 0 || c.Session.Trust > 100 {
		return fmt.Errorf("session.trust must be within [0, 100], got %d", c.Session.Trust)
	}
	if c.Server.Port < 0 {
		return fmt.Errorf("server.port must not be negative, got %d", c.Server.Port)
	}
	return nil
}
