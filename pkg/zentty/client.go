package zentty

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/tonimelisma/zentty-go/internal/transport"
)

// DefaultUserAgent is sent when Config.UserAgent is empty.
const DefaultUserAgent = "zentty-go/0.1"

// burstMultiplier sizes the limiter bucket relative to the per-second rate.
const burstMultiplier = 2

// Config configures a Client. Endpoint is required.
type Config struct {
	// Endpoint is the URL of the service's query endpoint.
	Endpoint string
	// SessionCode, when set, takes precedence over a stored credential.
	SessionCode string
	// Store persists the credential; nil disables persistence.
	Store CredentialStore

	HTTPClient *http.Client
	Logger     *slog.Logger
	UserAgent  string
	// CacheSize bounds the query result cache; 0 uses the default.
	CacheSize int
	// BandwidthLimit caps upload throughput in bytes per second; 0 is unlimited.
	BandwidthLimit int64
}

// Client is the entry point to the content-graph service. It owns the
// session credential and the transport; every remote operation goes through
// it. Safe for concurrent use, although changing identity while an upload is
// in flight makes the remaining chunks go out under the new identity.
type Client struct {
	transport *transport.Transport
	creds     *credentials
	limiter   *rate.Limiter
	logger    *slog.Logger

	mu   sync.RWMutex
	auth string
}

// New creates a Client. It fails with ErrMissingEndpoint when cfg.Endpoint
// is empty.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, ErrMissingEndpoint
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		creds:  newCredentials(cfg.Store, logger),
		logger: logger,
	}

	if cfg.SessionCode != "" {
		c.auth = encodeSessionCode(cfg.SessionCode)
		c.creds.save(c.auth)
	} else {
		c.auth = c.creds.load()
	}

	tr, err := transport.New(cfg.Endpoint, cfg.HTTPClient, cfg.CacheSize, logger)
	if err != nil {
		return nil, fmt.Errorf("zentty: %w", err)
	}

	ua := cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}

	tr.Use(transport.RequestMetadata(ua), transport.BasicAuth(c.Auth))
	c.transport = tr

	if cfg.BandwidthLimit > 0 {
		burst := max(int(cfg.BandwidthLimit)*burstMultiplier, ChunkSize)
		c.limiter = rate.NewLimiter(rate.Limit(cfg.BandwidthLimit), burst)
	}

	logger.Debug("client created",
		slog.String("endpoint", cfg.Endpoint),
		slog.Bool("authenticated", c.auth != ""),
		slog.Int64("bandwidth_limit", cfg.BandwidthLimit),
	)

	return c, nil
}

// Auth returns the current Basic credential, or "" when logged out.
func (c *Client) Auth() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.auth
}

// SetAuth replaces the credential verbatim, without session-code derivation.
// An empty token clears the credential and the stored copy.
func (c *Client) SetAuth(token string) {
	c.setCredential(token)
}

// SessionCode returns the credential derived from the current session code.
// When nothing is held in memory the store is consulted again, so a login
// made by another process becomes visible.
func (c *Client) SessionCode() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.auth == "" {
		c.auth = c.creds.load()
	}

	return c.auth
}

// SetSessionCode derives and stores the credential for sessionCode. An empty
// code logs out locally: the in-memory and stored credential are cleared.
func (c *Client) SetSessionCode(sessionCode string) {
	if sessionCode == "" {
		c.setCredential("")
		return
	}

	c.setCredential(encodeSessionCode(sessionCode))
}

// setCredential updates memory and store, and drops cached results because
// they may have been fetched under another identity.
func (c *Client) setCredential(tok string) {
	c.mu.Lock()
	c.auth = tok
	c.mu.Unlock()

	c.creds.save(tok)
	c.transport.ResetCache()

	c.logger.Debug("credential changed", slog.Bool("authenticated", tok != ""))
}

// do sends op with the network-only fetch policy and decodes the root field
// named after the operation into out.
func (c *Client) do(ctx context.Context, op *transport.Operation, out any) error {
	op.FetchPolicy = transport.NetworkOnly

	data, err := c.transport.Do(ctx, op)
	if err != nil {
		return err
	}

	return decodeRoot(data, op.Name, out)
}

// decodeRoot extracts data[field] into out.
func decodeRoot(data json.RawMessage, field string, out any) error {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("zentty: decoding %s response: %w", field, err)
	}

	raw, ok := root[field]
	if !ok {
		return fmt.Errorf("zentty: %s missing from response", field)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("zentty: decoding %s: %w", field, err)
	}

	return nil
}

// setIfNotEmpty adds key to vars when value is non-empty. Omitted variables
// reach the server as absent, which is how optional arguments are expressed.
func setIfNotEmpty(vars map[string]any, key, value string) {
	if value != "" {
		vars[key] = value
	}
}
