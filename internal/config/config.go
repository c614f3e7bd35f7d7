// Package config implements TOML configuration loading, validation, and
// platform-specific path resolution for zentty-go. Values are resolved
// through a four-layer override chain: defaults -> config file ->
// environment -> CLI flags.
package config

import "time"

// Credential store backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
	BackendNone   = "none"
)

// Config is the top-level configuration structure parsed from a TOML file.
type Config struct {
	Endpoint    string            `toml:"endpoint"`
	Credentials CredentialsConfig `toml:"credentials"`
	Transfers   TransfersConfig   `toml:"transfers"`
	Cache       CacheConfig       `toml:"cache"`
	Logging     LoggingConfig     `toml:"logging"`
	Network     NetworkConfig     `toml:"network"`
}

// CredentialsConfig selects where the session credential is persisted.
// An empty Path uses the backend's default location in the data directory.
type CredentialsConfig struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

// TransfersConfig controls uploads. bandwidth_limit accepts "0" (unlimited)
// or a rate such as "5MB/s"; parallel_uploads bounds how many files one
// put command uploads at once.
type TransfersConfig struct {
	BandwidthLimit  string `toml:"bandwidth_limit"`
	ParallelUploads int    `toml:"parallel_uploads"`
}

// CacheConfig sizes the in-memory query result cache.
type CacheConfig struct {
	Size int `toml:"size"`
}

// LoggingConfig controls log output: level and handler format.
type LoggingConfig struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// NetworkConfig controls the HTTP client.
type NetworkConfig struct {
	Timeout   string `toml:"timeout"`
	UserAgent string `toml:"user_agent"`
}

// CLIOverrides holds values from CLI flags that override config file and
// environment settings. Pointer fields distinguish "not specified" (nil)
// from "explicitly set to the zero value".
type CLIOverrides struct {
	ConfigPath     string  // --config flag (empty = use default)
	Endpoint       *string // --endpoint flag
	BandwidthLimit *string // --bandwidth-limit flag
}

// Resolved is the fully merged configuration plus the values derived from
// it, ready to build a client from.
type Resolved struct {
	Config

	// ConfigPath is the file the configuration was read from. It may not
	// exist when running on defaults.
	ConfigPath string
	// SessionCode comes only from the environment; it is never read from
	// the config file.
	SessionCode string

	BandwidthBytesPerSec int64
	Timeout              time.Duration
}
