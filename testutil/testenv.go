// Package testutil provides shared environment helpers for E2E tests. It
// depends only on stdlib so that E2E tests (which cannot import internal/)
// can use it.
package testutil

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AllowedEndpointsVar lists the service endpoints E2E tests may run against.
const AllowedEndpointsVar = "ZENTTY_ALLOWED_TEST_ENDPOINTS"

// LoadDotEnv reads KEY=VALUE pairs from a .env file at the given path.
// Missing file is not an error (CI sets env vars directly).
// Existing env vars take precedence over .env values.
func LoadDotEnv(envPath string) {
	f, err := os.Open(envPath)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), "\"'")

		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}

// ValidateEndpoint crashes the process if endpointVar is unset or names an
// endpoint missing from ZENTTY_ALLOWED_TEST_ENDPOINTS. E2E runs register
// throwaway accounts, so they must never reach a production service by
// accident. Returns the endpoint.
func ValidateEndpoint(endpointVar string) string {
	allowlist := os.Getenv(AllowedEndpointsVar)
	if allowlist == "" {
		fmt.Fprintf(os.Stderr, "FATAL: %s not set\n", AllowedEndpointsVar)
		fmt.Fprintln(os.Stderr, "Example: "+AllowedEndpointsVar+"=http://localhost:3000/graphql")
		os.Exit(1)
	}

	endpoint := os.Getenv(endpointVar)
	if endpoint == "" {
		fmt.Fprintf(os.Stderr, "FATAL: %s not set\n", endpointVar)
		os.Exit(1)
	}

	for _, a := range strings.Split(allowlist, ",") {
		if strings.TrimSpace(a) == endpoint {
			return endpoint
		}
	}

	fmt.Fprintf(os.Stderr, "FATAL: %s=%q is not in %s=%q\n", endpointVar, endpoint, AllowedEndpointsVar, allowlist)
	os.Exit(1)

	return ""
}

// FindModuleRoot walks up from the current directory to find go.mod.
// Returns the fallback if the root is not found.
func FindModuleRoot(fallback string) string {
	dir, err := os.Getwd()
	if err != nil {
		return fallback
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return fallback
		}

		dir = parent
	}
}

// IsolateHome points HOME and the XDG directories at fresh directories
// under root so a test run never reads or writes the user's real config
// or credentials. Production env vars are unset.
func IsolateHome(root string, unset ...string) error {
	for _, v := range unset {
		os.Unsetenv(v)
	}

	dirs := map[string]string{
		"HOME":            filepath.Join(root, "home"),
		"XDG_CONFIG_HOME": filepath.Join(root, "config"),
		"XDG_DATA_HOME":   filepath.Join(root, "data"),
	}

	for env, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}

		os.Setenv(env, dir)
	}

	return nil
}
