package config

// Default values for configuration options: layer 0 of the override chain.
const (
	defaultBackend         = BackendFile
	defaultBandwidthLimit  = "0"
	defaultParallelUploads = 4
	defaultCacheSize       = 256
	defaultLogLevel        = "warn"
	defaultLogFormat       = "auto"
	defaultTimeout         = "60s"
)

// DefaultConfig returns a Config populated with all default values. It is
// the starting point for TOML decoding, so unset fields keep their
// defaults, and the fallback when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Credentials: CredentialsConfig{Backend: defaultBackend},
		Transfers: TransfersConfig{
			BandwidthLimit:  defaultBandwidthLimit,
			ParallelUploads: defaultParallelUploads,
		},
		Cache: CacheConfig{Size: defaultCacheSize},
		Logging: LoggingConfig{
			LogLevel:  defaultLogLevel,
			LogFormat: defaultLogFormat,
		},
		Network: NetworkConfig{Timeout: defaultTimeout},
	}
}
