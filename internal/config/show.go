package config

import (
	"fmt"
	"io"
)

// RenderEffective writes the resolved configuration as an annotated TOML-like
// summary to w. It backs the "config show" command. The session code is
// never printed, only whether one is set.
func RenderEffective(r *Resolved, w io.Writer) error {
	ew := &errWriter{w: w}

	ew.printf("# Effective configuration (file: %s)\n\n", r.ConfigPath)
	ew.printf("endpoint = %q\n", r.Endpoint)
	ew.printf("# session code from %s: %t\n\n", EnvSessionCode, r.SessionCode != "")

	ew.printf("[credentials]\n")
	ew.printf("  backend = %q\n", r.Credentials.Backend)

	if p := r.Credentials.CredentialsPath(); p != "" {
		ew.printf("  path    = %q\n", p)
	}

	ew.printf("\n[transfers]\n")
	ew.printf("  bandwidth_limit  = %q\n", r.Transfers.BandwidthLimit)
	ew.printf("  parallel_uploads = %d\n", r.Transfers.ParallelUploads)

	ew.printf("\n[cache]\n")
	ew.printf("  size = %d\n", r.Cache.Size)

	ew.printf("\n[logging]\n")
	ew.printf("  log_level  = %q\n", r.Logging.LogLevel)
	ew.printf("  log_format = %q\n", r.Logging.LogFormat)

	ew.printf("\n[network]\n")
	ew.printf("  timeout = %q\n", r.Network.Timeout)

	if r.Network.UserAgent != "" {
		ew.printf("  user_agent = %q\n", r.Network.UserAgent)
	}

	return ew.err
}

// errWriter wraps an io.Writer and captures the first write error.
// Subsequent writes after an error are no-ops.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}

	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
