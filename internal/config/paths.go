package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Platform identifiers.
const (
	platformLinux  = "linux"
	platformDarwin = "darwin"
)

// Application directory name used across all platforms.
const appName = "zentty-go"

// File names inside the config and data directories.
const (
	configFileName      = "config.toml"
	credentialsFileName = "credentials.json"
	credentialsDBName   = "credentials.db"
)

// DefaultConfigDir returns the platform-specific directory for config files.
// On Linux, respects XDG_CONFIG_HOME (defaults to ~/.config/zentty-go).
// On macOS, uses ~/Library/Application Support/zentty-go per Apple guidelines.
// Other platforms fall back to ~/.config/zentty-go.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	switch runtime.GOOS {
	case platformLinux:
		return linuxConfigDir(home)
	case platformDarwin:
		return filepath.Join(home, "Library", "Application Support", appName)
	default:
		return filepath.Join(home, ".config", appName)
	}
}

// linuxConfigDir returns the XDG-compliant config directory for Linux.
func linuxConfigDir(home string) string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}

	return filepath.Join(home, ".config", appName)
}

// DefaultDataDir returns the platform-specific directory for application data
// (the credential file or database).
// On Linux, respects XDG_DATA_HOME (defaults to ~/.local/share/zentty-go).
// On macOS, uses ~/Library/Application Support/zentty-go (macOS convention
// collapses config and data into one directory).
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	switch runtime.GOOS {
	case platformLinux:
		return linuxDataDir(home)
	case platformDarwin:
		return filepath.Join(home, "Library", "Application Support", appName)
	default:
		return filepath.Join(home, ".local", "share", appName)
	}
}

// linuxDataDir returns the XDG-compliant data directory for Linux.
func linuxDataDir(home string) string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}

	return filepath.Join(home, ".local", "share", appName)
}

// DefaultConfigPath returns the full path to the default config file.
// This is used as the fallback when neither ZENTTY_CONFIG nor
// --config is specified.
func DefaultConfigPath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}

	return filepath.Join(dir, configFileName)
}

// CredentialsPath returns where the configured backend keeps the session
// credential: the explicit path if set, otherwise a file in the data
// directory named after the backend. Returns "" for backends that do not
// touch disk.
func (c CredentialsConfig) CredentialsPath() string {
	if c.Path != "" {
		return expandHome(c.Path)
	}

	dir := DefaultDataDir()
	if dir == "" {
		return ""
	}

	switch c.Backend {
	case BackendFile:
		return filepath.Join(dir, credentialsFileName)
	case BackendSQLite:
		return filepath.Join(dir, credentialsDBName)
	default:
		return ""
	}
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[2:])
}
