package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Load reads and parses a TOML config file, validates it, and returns the
// resulting Config. Unknown keys are fatal and reported with "did you
// mean?" suggestions.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := checkUnknownKeys(&md); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault reads a TOML config file if it exists, otherwise returns a
// Config populated with all default values.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}

	return Load(path)
}

// Resolve loads configuration and applies the override chain:
// defaults -> config file -> environment variables -> CLI flags.
func Resolve(env EnvOverrides, cli CLIOverrides) (*Resolved, error) {
	// 1. Config path: CLI > env > default
	cfgPath := DefaultConfigPath()
	if env.ConfigPath != "" {
		cfgPath = env.ConfigPath
	}

	if cli.ConfigPath != "" {
		cfgPath = cli.ConfigPath
	}

	// 2. Config file (defaults if absent)
	cfg, err := LoadOrDefault(cfgPath)
	if err != nil {
		return nil, err
	}

	// 3. Environment
	if env.Endpoint != "" {
		cfg.Endpoint = env.Endpoint
	}

	// 4. CLI flags
	if cli.Endpoint != nil {
		cfg.Endpoint = *cli.Endpoint
	}

	if cli.BandwidthLimit != nil {
		cfg.Transfers.BandwidthLimit = *cli.BandwidthLimit
	}

	// 5. Overrides bypass the file validation, so validate the merged result.
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	bw, err := ParseBandwidth(cfg.Transfers.BandwidthLimit)
	if err != nil {
		return nil, err
	}

	timeout, err := time.ParseDuration(cfg.Network.Timeout)
	if err != nil {
		return nil, fmt.Errorf("timeout: %w", err)
	}

	return &Resolved{
		Config:               *cfg,
		ConfigPath:           cfgPath,
		SessionCode:          env.SessionCode,
		BandwidthBytesPerSec: bw,
		Timeout:              timeout,
	}, nil
}
