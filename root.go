package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/tonimelisma/zentty-go/internal/config"
	"github.com/tonimelisma/zentty-go/internal/credstore"
	"github.com/tonimelisma/zentty-go/pkg/zentty"
)

// version is set at build time via ldflags.
var version = "dev"

// CLIFlags are the persistent flags shared by every command.
type CLIFlags struct {
	ConfigPath string
	Endpoint   string
	JSON       bool
	Verbose    bool
	Quiet      bool
}

// CLIContext is built once per invocation in PersistentPreRunE and carried
// to subcommands through the command's context.
type CLIContext struct {
	Flags  CLIFlags
	Cfg    *config.Resolved
	Logger *slog.Logger
	Out    io.Writer
	Err    io.Writer
}

type cliContextKey struct{}

// mustCLIContext returns the CLIContext stored by the root pre-run hook.
func mustCLIContext(ctx context.Context) *CLIContext {
	cc, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok {
		panic("cli context missing; command run outside the root command")
	}

	return cc
}

// Statusf prints a status message to stderr unless quiet mode is set.
func (cc *CLIContext) Statusf(format string, args ...any) {
	statusf(cc.Err, cc.Flags.Quiet, format, args...)
}

// newRootCmd builds the root command with all subcommands registered.
func newRootCmd() *cobra.Command {
	var flags CLIFlags

	cmd := &cobra.Command{
		Use:     "zentty-go",
		Short:   "Content-graph service client",
		Long:    "A command-line client for a content-graph service: accounts, entities, relationships and file uploads.",
		Version: version,
		// Errors are printed by main.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cc, err := loadCLIContext(cmd, flags)
			if err != nil {
				return err
			}

			cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey{}, cc))

			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&flags.Endpoint, "endpoint", "", "service endpoint URL")
	cmd.PersistentFlags().BoolVar(&flags.JSON, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "suppress informational output")

	cmd.AddCommand(newRegisterCmd())
	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newWhoamiCmd())
	cmd.AddCommand(newCreateCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newModifyCmd())
	cmd.AddCommand(newRelateCmd())
	cmd.AddCommand(newUnrelateCmd())
	cmd.AddCommand(newLsCmd())
	cmd.AddCommand(newRelatedCmd())
	cmd.AddCommand(newPutCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// loadCLIContext resolves the effective configuration from the override
// chain and builds the logger.
func loadCLIContext(cmd *cobra.Command, flags CLIFlags) (*CLIContext, error) {
	cli := config.CLIOverrides{ConfigPath: flags.ConfigPath}

	// Only pass --endpoint to the resolver if the user explicitly set it.
	if cmd.Flags().Changed("endpoint") {
		cli.Endpoint = &flags.Endpoint
	}

	if f := cmd.Flags().Lookup("bandwidth-limit"); f != nil && f.Changed {
		bw := f.Value.String()
		cli.BandwidthLimit = &bw
	}

	resolved, err := config.Resolve(config.ReadEnvOverrides(), cli)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	errOut := cmd.ErrOrStderr()

	return &CLIContext{
		Flags:  flags,
		Cfg:    resolved,
		Logger: buildLogger(resolved, flags, errOut),
		Out:    cmd.OutOrStdout(),
		Err:    errOut,
	}, nil
}

// buildLogger creates an slog.Logger from the resolved config and CLI
// flags. The config-file level is the baseline; --verbose and --quiet
// override it. Format "auto" logs text to a terminal and JSON otherwise.
func buildLogger(cfg *config.Resolved, flags CLIFlags, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	format := "auto"

	if cfg != nil {
		switch cfg.Logging.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "error":
			level = slog.LevelError
		}

		format = cfg.Logging.LogFormat
	}

	if flags.Verbose {
		level = slog.LevelDebug
	}

	if flags.Quiet {
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if format == "json" || (format == "auto" && !isTerminal(w)) {
		return slog.New(slog.NewJSONHandler(w, opts))
	}

	return slog.New(slog.NewTextHandler(w, opts))
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// newClient builds a client from the resolved configuration. The returned
// close function releases the credential store and must always be called.
func newClient(ctx context.Context, cc *CLIContext) (*zentty.Client, func() error, error) {
	cfg := cc.Cfg
	closeFn := func() error { return nil }

	if cfg.Endpoint == "" {
		return nil, closeFn, fmt.Errorf("%w (set endpoint in %s, %s, or --endpoint)",
			zentty.ErrMissingEndpoint, cfg.ConfigPath, config.EnvEndpoint)
	}

	store, closeFn, err := openStore(ctx, cfg.Credentials, cc.Logger)
	if err != nil {
		return nil, closeFn, err
	}

	client, err := zentty.New(zentty.Config{
		Endpoint:       cfg.Endpoint,
		SessionCode:    cfg.SessionCode,
		Store:          store,
		HTTPClient:     &http.Client{Timeout: cfg.Timeout},
		Logger:         cc.Logger,
		UserAgent:      userAgent(cfg),
		CacheSize:      cfg.Cache.Size,
		BandwidthLimit: cfg.BandwidthBytesPerSec,
	})
	if err != nil {
		return nil, closeFn, err
	}

	return client, closeFn, nil
}

func userAgent(cfg *config.Resolved) string {
	if cfg.Network.UserAgent != "" {
		return cfg.Network.UserAgent
	}

	return "zentty-go/" + version
}

// openStore opens the configured credential backend. A nil store means
// the credential lives only in memory for this process.
func openStore(ctx context.Context, cfg config.CredentialsConfig, logger *slog.Logger) (zentty.CredentialStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case config.BackendNone:
		return nil, noop, nil
	case config.BackendMemory:
		return credstore.NewMemory(), noop, nil
	case config.BackendFile:
		path := cfg.CredentialsPath()
		if path == "" {
			return nil, noop, errors.New("cannot determine credentials file path")
		}

		return credstore.NewFile(path), noop, nil
	case config.BackendSQLite:
		path := cfg.CredentialsPath()
		if path == "" {
			return nil, noop, errors.New("cannot determine credentials database path")
		}

		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, noop, fmt.Errorf("creating credentials directory: %w", err)
		}

		db, err := credstore.OpenSQLite(ctx, path, logger)
		if err != nil {
			return nil, noop, err
		}

		return db, db.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown credentials backend %q", cfg.Backend)
	}
}
