// Package credstore provides key-value backends for persisting the client's
// session credential across process restarts: an in-memory map, a JSON file
// (via tokenfile), and an embedded SQLite database. All backends satisfy
// zentty.CredentialStore; the facade treats every backend as best-effort.
package credstore
