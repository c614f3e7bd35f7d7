package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"sort"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// maxErrorBody caps how much of a failed response body is kept in an Error.
const maxErrorBody = 64 * 1024

// Transport sends operations to a single endpoint. Configure middlewares with
// Use before the first Do; Do itself is safe for concurrent use.
type Transport struct {
	endpoint string
	base     *http.Client
	client   *http.Client
	mws      []Middleware
	cache    *ResultCache
	logger   *slog.Logger
}

// request is the JSON body of a non-binary operation.
type request struct {
	OperationName string         `json:"operationName"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
}

// response is the envelope every reply is decoded into.
type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// New creates a Transport for endpoint. httpClient is copied, never mutated;
// when it has no cookie jar, one backed by the public suffix list is attached
// so session cookies travel with every request. cacheSize <= 0 uses
// DefaultCacheSize.
func New(endpoint string, httpClient *http.Client, cacheSize int, logger *slog.Logger) (*Transport, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	base := *httpClient
	if base.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("transport: creating cookie jar: %w", err)
		}

		base.Jar = jar
	}

	cache, err := NewResultCache(cacheSize)
	if err != nil {
		return nil, err
	}

	t := &Transport{
		endpoint: endpoint,
		base:     &base,
		cache:    cache,
		logger:   logger,
	}
	t.rebuild()

	return t, nil
}

// Use appends middlewares. They run in registration order before dispatch.
func (t *Transport) Use(mws ...Middleware) {
	t.mws = append(t.mws, mws...)
	t.rebuild()
}

func (t *Transport) rebuild() {
	rt := t.base.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}

	c := *t.base
	c.Transport = chain(rt, t.mws)
	t.client = &c
}

// Cache returns the query result cache.
func (t *Transport) Cache() *ResultCache {
	return t.cache
}

// ResetCache discards every cached query result. Called whenever the
// caller's identity changes, since cached data may belong to someone else.
// Queries in flight during the reset do not store their results.
func (t *Transport) ResetCache() {
	t.logger.Debug("resetting result cache", slog.Int("entries", t.cache.Len()))
	t.cache.Reset()
}

// Do sends op and returns the response's "data" object.
func (t *Transport) Do(ctx context.Context, op *Operation) (json.RawMessage, error) {
	var key string

	// Captured before dispatch so a reset during the request wins.
	gen := t.cache.Generation()

	if op.Kind == Query {
		k, err := cacheKey(op)
		if err != nil {
			return nil, err
		}

		key = k

		if op.FetchPolicy == CacheFirst {
			if data, ok := t.cache.Get(key); ok {
				t.logger.Debug("cache hit", slog.String("operation", op.Name))
				return data, nil
			}
		}
	}

	body, contentType, err := encode(op)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("transport: creating request: %w", err)
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("transport: %s canceled: %w", op.Name, ctx.Err())
		}

		t.logger.Error("request failed",
			slog.String("operation", op.Name),
			slog.String("error", err.Error()),
		)

		return nil, fmt.Errorf("transport: %s request failed: %w", op.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		errBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if readErr != nil {
			errBody = []byte("(failed to read response body)")
		}

		t.logger.Warn("request returned error status",
			slog.String("operation", op.Name),
			slog.Int("status", resp.StatusCode),
		)

		return nil, &Error{
			StatusCode: resp.StatusCode,
			RequestID:  resp.Header.Get("X-Request-ID"),
			Message:    strings.TrimSpace(string(errBody)),
			Err:        classifyStatus(resp.StatusCode),
		}
	}

	var env response
	if decErr := json.NewDecoder(resp.Body).Decode(&env); decErr != nil {
		return nil, fmt.Errorf("transport: decoding %s response: %w", op.Name, decErr)
	}

	if len(env.Errors) > 0 {
		return nil, &GraphQLErrors{Operation: op.Name, Errors: env.Errors}
	}

	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return nil, fmt.Errorf("%w (%s)", ErrEmptyData, op.Name)
	}

	t.logger.Debug("request succeeded",
		slog.String("operation", op.Name),
		slog.String("kind", op.Kind.String()),
		slog.Int("status", resp.StatusCode),
	)

	if op.Kind == Query && !t.cache.PutAt(key, env.Data, gen) {
		t.logger.Debug("dropping result fetched before cache reset", slog.String("operation", op.Name))
	}

	return env.Data, nil
}

// binaryPart is a Binary variable pulled out of the JSON variables.
type binaryPart struct {
	field string
	data  Binary
}

// encode serializes op. Variables holding Binary values are split out; if
// there are none the body is JSON, otherwise multipart with the binary
// payloads as separate parts and the remaining variables JSON-encoded.
func encode(op *Operation) (io.Reader, string, error) {
	vars := make(map[string]any, len(op.Variables))

	var parts []binaryPart

	for name, v := range op.Variables {
		if b, ok := v.(Binary); ok {
			parts = append(parts, binaryPart{field: strings.TrimPrefix(name, "_"), data: b})
			continue
		}

		vars[name] = v
	}

	if len(parts) == 0 {
		data, err := json.Marshal(request{OperationName: op.Name, Query: op.Query, Variables: vars})
		if err != nil {
			return nil, "", fmt.Errorf("transport: encoding %s: %w", op.Name, err)
		}

		return bytes.NewReader(data), "application/json", nil
	}

	sort.Slice(parts, func(i, j int) bool { return parts[i].field < parts[j].field })

	varsJSON, err := json.Marshal(vars)
	if err != nil {
		return nil, "", fmt.Errorf("transport: encoding %s variables: %w", op.Name, err)
	}

	debugJSON, err := json.Marshal(op.DebugName)
	if err != nil {
		return nil, "", fmt.Errorf("transport: encoding %s debug name: %w", op.Name, err)
	}

	var buf bytes.Buffer

	w := multipart.NewWriter(&buf)

	if err := writeMultipart(w, op, parts, debugJSON, varsJSON); err != nil {
		return nil, "", fmt.Errorf("transport: building %s multipart body: %w", op.Name, err)
	}

	return &buf, w.FormDataContentType(), nil
}

// writeMultipart writes the parts in wire order: operationName, binary
// payloads, debugName, query, variables.
func writeMultipart(w *multipart.Writer, op *Operation, parts []binaryPart, debugJSON, varsJSON []byte) error {
	if err := w.WriteField("operationName", op.Name); err != nil {
		return err
	}

	for _, p := range parts {
		fw, err := w.CreateFormFile(p.field, "blob")
		if err != nil {
			return err
		}

		if _, err := fw.Write(p.data); err != nil {
			return err
		}
	}

	if err := w.WriteField("debugName", string(debugJSON)); err != nil {
		return err
	}

	if err := w.WriteField("query", op.Query); err != nil {
		return err
	}

	if err := w.WriteField("variables", string(varsJSON)); err != nil {
		return err
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("closing writer: %w", err)
	}

	return nil
}
