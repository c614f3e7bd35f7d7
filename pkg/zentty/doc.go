// Package zentty is a client for the Zentty content-graph service.
//
// A Client authenticates with a session code, sent as HTTP Basic credentials
// ("<sessionCode>:" base64-encoded), and exposes the service's operations:
// user registration and login, entity CRUD, labeled relationships between
// entities, and chunked file upload with progress reporting.
//
//	c, err := zentty.New(zentty.Config{Endpoint: "https://example.com/graphql"})
//	if err != nil { ... }
//	if _, err := c.LoginUser(ctx, zentty.LoginUserParams{Identifier: "ann", Password: pw}); err != nil { ... }
//	err = c.UploadFile(ctx, zentty.UploadFileParams{EntityID: id, File: f}, func(p zentty.Progress) { ... })
//
// The session credential can be persisted with any CredentialStore; the
// internal/credstore package provides memory, file, and SQLite backends.
package zentty
