package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Validation range constants.
const (
	minParallelUploads = 1
	maxParallelUploads = 16
	maxCacheSize       = 1 << 16
	minTimeout         = 1 * time.Second
)

// Validate checks all configuration values and returns all errors found,
// so users can fix every issue in one pass.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateEndpoint(cfg.Endpoint)...)
	errs = append(errs, validateCredentials(&cfg.Credentials)...)
	errs = append(errs, validateTransfers(&cfg.Transfers)...)
	errs = append(errs, validateCache(&cfg.Cache)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)
	errs = append(errs, validateNetwork(&cfg.Network)...)

	return errors.Join(errs...)
}

// validateEndpoint accepts an empty endpoint; commands that talk to the
// service fail later with a clearer message.
func validateEndpoint(endpoint string) []error {
	if endpoint == "" {
		return nil
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return []error{fmt.Errorf("endpoint: invalid URL %q: %w", endpoint, err)}
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return []error{fmt.Errorf("endpoint: scheme must be http or https, got %q", endpoint)}
	}

	if u.Host == "" {
		return []error{fmt.Errorf("endpoint: missing host in %q", endpoint)}
	}

	return nil
}

var validBackends = map[string]bool{
	BackendFile:   true,
	BackendSQLite: true,
	BackendMemory: true,
	BackendNone:   true,
}

func validateCredentials(c *CredentialsConfig) []error {
	if !validBackends[c.Backend] {
		return []error{fmt.Errorf("credentials.backend: must be one of file, sqlite, memory, none; got %q", c.Backend)}
	}

	return nil
}

func validateTransfers(t *TransfersConfig) []error {
	var errs []error

	if _, err := ParseBandwidth(t.BandwidthLimit); err != nil {
		errs = append(errs, fmt.Errorf("transfers.bandwidth_limit: %w", err))
	}

	if t.ParallelUploads < minParallelUploads || t.ParallelUploads > maxParallelUploads {
		errs = append(errs, fmt.Errorf("transfers.parallel_uploads: must be between %d and %d, got %d",
			minParallelUploads, maxParallelUploads, t.ParallelUploads))
	}

	return errs
}

func validateCache(c *CacheConfig) []error {
	if c.Size < 0 || c.Size > maxCacheSize {
		return []error{fmt.Errorf("cache.size: must be between 0 and %d, got %d", maxCacheSize, c.Size)}
	}

	return nil
}

func validateLogging(l *LoggingConfig) []error {
	var errs []error

	if !validLogLevels[l.LogLevel] {
		errs = append(errs, fmt.Errorf("logging.log_level: must be one of debug, info, warn, error; got %q", l.LogLevel))
	}

	if !validLogFormats[l.LogFormat] {
		errs = append(errs, fmt.Errorf("logging.log_format: must be one of auto, text, json; got %q", l.LogFormat))
	}

	return errs
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"auto": true,
	"text": true,
	"json": true,
}

func validateNetwork(n *NetworkConfig) []error {
	d, err := time.ParseDuration(n.Timeout)
	if err != nil {
		return []error{fmt.Errorf("network.timeout: invalid duration %q: %w", n.Timeout, err)}
	}

	if d < minTimeout {
		return []error{fmt.Errorf("network.timeout: must be >= %s, got %s", minTimeout, d)}
	}

	return nil
}
