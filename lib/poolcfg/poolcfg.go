// Package poolcfg provides TOML-backed configuration for cmd/poolctl's
// pool and TCP dial factory, following the teacher's DefaultConfig /
// LoadConfig / SaveConfig / Validate shape.
package poolcfg

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the top-level configuration file shape.
type Config struct {
	Pool PoolConfig `toml:"pool"`
	Dial DialConfig `toml:"dial"`
}

// PoolConfig configures pool behavior independent of the connection type.
type PoolConfig struct {
	LIFO               bool          `toml:"lifo"`
	ReleaseHealthCheck bool          `toml:"release_health_check"`
	AcquireTimeout     time.Duration `toml:"acquire_timeout"`
}

// DialConfig configures the TCP dial factory.
type DialConfig struct {
	Network string        `toml:"network"`
	Address string        `toml:"address"`
	Timeout time.Duration `toml:"timeout"`
}

// DefaultConfig returns sane defaults: LIFO selection, release-time
// health checks enabled, a five-second acquire timeout, dialing
// 127.0.0.1:4000 over TCP.
func DefaultConfig() *Config {
	return &Config{
		Pool: PoolConfig{
			LIFO:               true,
			ReleaseHealthCheck: true,
			AcquireTimeout:     5 * time.Second,
		},
		Dial: DialConfig{
			Network: "tcp",
			Address: "127.0.0.1:4000",
			Timeout: 5 * time.Second,
		},
	}
}

// LoadConfig reads and parses a TOML config file at path, returning
// DefaultConfig() unchanged if the file does not exist.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := unmarshalTOML(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveConfig marshals cfg to TOML and writes it to path, creating the
// parent directory if necessary.
func SaveConfig(cfg *Config, path string) error {
	data, err := marshalTOML(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o600)
}

// Validate checks the config for values the rest of the program cannot
// safely default around.
func (c *Config) Validate() error {
	if c.Dial.Address == "" {
		return fmt.Errorf("dial.address is required")
	}
	if c.Pool.AcquireTimeout <= 0 {
		return fmt.Errorf("pool.acquire_timeout must be positive")
	}
	return nil
}
