package zentty

import (
	"encoding/base64"
	"log/slog"
)

// AuthTokenKey is the name under which the session credential is persisted.
const AuthTokenKey = "auth_token"

// CredentialStore persists named credential strings across process restarts.
// Get returns "" for an unset key. Implementations live in internal/credstore;
// callers may supply their own.
type CredentialStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// credentials is the best-effort view of a CredentialStore used by Client.
// A nil store is a no-op and store errors are logged, never returned.
type credentials struct {
	store  CredentialStore
	logger *slog.Logger
}

func newCredentials(store CredentialStore, logger *slog.Logger) *credentials {
	return &credentials{store: store, logger: logger}
}

// load returns the stored credential, or "" when unavailable.
func (c *credentials) load() string {
	if c.store == nil {
		return ""
	}

	tok, err := c.store.Get(AuthTokenKey)
	if err != nil {
		c.logger.Warn("reading stored credential failed",
			slog.String("key", AuthTokenKey),
			slog.String("error", err.Error()),
		)

		return ""
	}

	return tok
}

// save stores tok, or deletes the key when tok is empty.
func (c *credentials) save(tok string) {
	if c.store == nil {
		return
	}

	var err error
	if tok == "" {
		err = c.store.Delete(AuthTokenKey)
	} else {
		err = c.store.Set(AuthTokenKey, tok)
	}

	if err != nil {
		c.logger.Warn("persisting credential failed",
			slog.String("key", AuthTokenKey),
			slog.Bool("clear", tok == ""),
			slog.String("error", err.Error()),
		)
	}
}

// encodeSessionCode derives the Basic credential for a session code: the
// code used as a username with an empty password.
func encodeSessionCode(sessionCode string) string {
	return base64.StdEncoding.EncodeToString([]byte(sessionCode + ":"))
}
