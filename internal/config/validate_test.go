package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Defaults(t *testing.T) {
	require.NoError(t, Validate(DefaultConfig()))
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad scheme", func(c *Config) { c.Endpoint = "ftp://example.com" }, "scheme must be http or https"},
		{"no host", func(c *Config) { c.Endpoint = "https://" }, "missing host"},
		{"bad backend", func(c *Config) { c.Credentials.Backend = "vault" }, "credentials.backend"},
		{"bad bandwidth", func(c *Config) { c.Transfers.BandwidthLimit = "lots" }, "transfers.bandwidth_limit"},
		{"too few uploads", func(c *Config) { c.Transfers.ParallelUploads = 0 }, "transfers.parallel_uploads"},
		{"too many uploads", func(c *Config) { c.Transfers.ParallelUploads = 17 }, "transfers.parallel_uploads"},
		{"negative cache", func(c *Config) { c.Cache.Size = -1 }, "cache.size"},
		{"bad level", func(c *Config) { c.Logging.LogLevel = "trace" }, "logging.log_level"},
		{"bad format", func(c *Config) { c.Logging.LogFormat = "xml" }, "logging.log_format"},
		{"bad timeout", func(c *Config) { c.Network.Timeout = "soon" }, "network.timeout"},
		{"short timeout", func(c *Config) { c.Network.Timeout = "10ms" }, "must be >= 1s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_AcceptsValidEndpoints(t *testing.T) {
	for _, endpoint := range []string{"", "http://localhost:4000/graphql", "https://api.example.com/graphql"} {
		cfg := DefaultConfig()
		cfg.Endpoint = endpoint
		assert.NoError(t, Validate(cfg), endpoint)
	}
}
