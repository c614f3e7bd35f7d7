package config

import "os"

// Environment variable names for overrides.
const (
	EnvConfig      = "ZENTTY_CONFIG"
	EnvEndpoint    = "ZENTTY_ENDPOINT"
	EnvSessionCode = "ZENTTY_SESSION_CODE"
)

// EnvOverrides holds values derived from environment variables.
type EnvOverrides struct {
	ConfigPath  string // ZENTTY_CONFIG: override config file path
	Endpoint    string // ZENTTY_ENDPOINT: service endpoint
	SessionCode string // ZENTTY_SESSION_CODE: session code to authenticate with
}

// ReadEnvOverrides reads environment variables and returns any overrides found.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath:  os.Getenv(EnvConfig),
		Endpoint:    os.Getenv(EnvEndpoint),
		SessionCode: os.Getenv(EnvSessionCode),
	}
}
