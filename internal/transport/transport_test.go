package transport

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransport(t *testing.T, url string) *Transport {
	t.Helper()

	tr, err := New(url, http.DefaultClient, 0, slog.Default())
	require.NoError(t, err)

	return tr
}

func TestDo_JSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "getEntity", body.OperationName)
		assert.Equal(t, "query getEntity($id: String!) { getEntity(id: $id) { _id } }", body.Query)
		assert.Equal(t, map[string]any{"id": "e1"}, body.Variables)

		_, _ = w.Write([]byte(`{"data":{"getEntity":{"_id":"e1"}}}`))
	}))
	defer srv.Close()

	tr := newTestTransport(t, srv.URL)
	data, err := tr.Do(context.Background(), &Operation{
		Name:      "getEntity",
		Query:     "query getEntity($id: String!) { getEntity(id: $id) { _id } }",
		Variables: map[string]any{"id": "e1"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"getEntity":{"_id":"e1"}}`, string(data))
}

func TestDo_NilVariablesEncodeAsObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"variables":{}`)

		_, _ = w.Write([]byte(`{"data":{"getUser":{"_id":"u1"}}}`))
	}))
	defer srv.Close()

	tr := newTestTransport(t, srv.URL)
	_, err := tr.Do(context.Background(), &Operation{Name: "getUser", Query: "query { getUser { _id } }"})
	require.NoError(t, err)
}

func TestDo_MultipartWhenBinaryPresent(t *testing.T) {
	chunk := []byte{0x00, 0x01, 0xfe, 0xff, 'a', 'b'}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mr, err := r.MultipartReader()
		require.NoError(t, err)

		var names []string
		values := make(map[string]string)

		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}

			require.NoError(t, err)

			data, err := io.ReadAll(part)
			require.NoError(t, err)

			names = append(names, part.FormName())
			values[part.FormName()] = string(data)

			if part.FormName() == "chunk" {
				assert.Equal(t, "application/octet-stream", part.Header.Get("Content-Type"))
			}
		}

		assert.Equal(t, []string{"operationName", "chunk", "debugName", "query", "variables"}, names)
		assert.Equal(t, "appendFileChunk", values["operationName"])
		assert.Equal(t, string(chunk), values["chunk"])
		assert.Equal(t, `""`, values["debugName"])
		assert.Contains(t, values["query"], "appendFileChunk(entityID: $entityID)")
		assert.JSONEq(t, `{"entityID":"e1"}`, values["variables"])

		_, _ = w.Write([]byte(`{"data":{"appendFileChunk":false}}`))
	}))
	defer srv.Close()

	tr := newTestTransport(t, srv.URL)
	data, err := tr.Do(context.Background(), &Operation{
		Name:  "appendFileChunk",
		Kind:  Mutation,
		Query: "mutation appendFileChunk($entityID: String!) { appendFileChunk(entityID: $entityID) }",
		Variables: map[string]any{
			"entityID": "e1",
			"_chunk":   Binary(chunk),
		},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"appendFileChunk":false}`, string(data))
}

func TestDo_ErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		sentinel error
	}{
		{"bad request", http.StatusBadRequest, ErrBadRequest},
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"forbidden", http.StatusForbidden, ErrForbidden},
		{"not found", http.StatusNotFound, ErrNotFound},
		{"too large", http.StatusRequestEntityTooLarge, ErrTooLarge},
		{"throttled", http.StatusTooManyRequests, ErrThrottled},
		{"server error", http.StatusBadGateway, ErrServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("X-Request-ID", "req-1")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`boom`))
			}))
			defer srv.Close()

			tr := newTestTransport(t, srv.URL)
			_, err := tr.Do(context.Background(), &Operation{Name: "op", Query: "query { x }"})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)

			var tErr *Error
			require.ErrorAs(t, err, &tErr)
			assert.Equal(t, tt.status, tErr.StatusCode)
			assert.Equal(t, "req-1", tErr.RequestID)
			assert.Equal(t, "boom", tErr.Message)
		})
	}
}

func TestDo_NoRetry(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	tr := newTestTransport(t, srv.URL)
	_, err := tr.Do(context.Background(), &Operation{Name: "op", Query: "query { x }"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDo_GraphQLErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":null,"errors":[{"message":"not allowed"},{"message":"second"}]}`))
	}))
	defer srv.Close()

	tr := newTestTransport(t, srv.URL)
	_, err := tr.Do(context.Background(), &Operation{Name: "getUser", Query: "query { getUser { _id } }"})
	require.Error(t, err)

	var gqlErr *GraphQLErrors
	require.ErrorAs(t, err, &gqlErr)
	assert.Equal(t, "getUser", gqlErr.Operation)
	require.Len(t, gqlErr.Errors, 2)
	assert.Equal(t, "not allowed", gqlErr.Errors[0].Message)
	assert.Contains(t, err.Error(), "not allowed; second")
}

func TestDo_EmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":null}`))
	}))
	defer srv.Close()

	tr := newTestTransport(t, srv.URL)
	_, err := tr.Do(context.Background(), &Operation{Name: "op", Query: "query { x }"})
	assert.ErrorIs(t, err, ErrEmptyData)
}

func TestDo_InvalidJSONResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	tr := newTestTransport(t, srv.URL)
	_, err := tr.Do(context.Background(), &Operation{Name: "op", Query: "query { x }"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding op response")
}

func TestDo_NetworkError(t *testing.T) {
	tr := newTestTransport(t, "http://127.0.0.1:1")
	_, err := tr.Do(context.Background(), &Operation{Name: "op", Query: "query { x }"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op request failed")
}

func TestDo_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"x":1}}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr := newTestTransport(t, srv.URL)
	_, err := tr.Do(ctx, &Operation{Name: "op", Query: "query { x }"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDo_CookiesSentBack(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.SetCookie(w, &http.Cookie{Name: "sid", Value: "cookie-value", Path: "/"})
		} else {
			c, err := r.Cookie("sid")
			require.NoError(t, err)
			assert.Equal(t, "cookie-value", c.Value)
		}

		_, _ = w.Write([]byte(`{"data":{"x":1}}`))
	}))
	defer srv.Close()

	tr := newTestTransport(t, srv.URL)

	for range 2 {
		_, err := tr.Do(context.Background(), &Operation{Name: "op", Kind: Mutation, Query: "mutation { x }"})
		require.NoError(t, err)
	}

	assert.Equal(t, int32(2), calls.Load())
}

func TestNew_DoesNotMutateCallerClient(t *testing.T) {
	hc := &http.Client{}

	_, err := New("http://example.invalid", hc, 0, nil)
	require.NoError(t, err)
	assert.Nil(t, hc.Jar)
	assert.Nil(t, hc.Transport)
}

func TestDo_CacheFirstServesCachedResult(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"data":{"getEntity":{"_id":"e1"}}}`))
	}))
	defer srv.Close()

	tr := newTestTransport(t, srv.URL)
	op := &Operation{
		Name:        "getEntity",
		Query:       "query getEntity($id: String!) { getEntity(id: $id) { _id } }",
		Variables:   map[string]any{"id": "e1"},
		FetchPolicy: CacheFirst,
	}

	_, err := tr.Do(context.Background(), op)
	require.NoError(t, err)

	data, err := tr.Do(context.Background(), op)
	require.NoError(t, err)
	assert.JSONEq(t, `{"getEntity":{"_id":"e1"}}`, string(data))
	assert.Equal(t, int32(1), calls.Load())

	tr.ResetCache()
	assert.Equal(t, 0, tr.Cache().Len())

	_, err = tr.Do(context.Background(), op)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDo_NetworkOnlyBypassesCache(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"data":{"getUser":{"_id":"u1"}}}`))
	}))
	defer srv.Close()

	tr := newTestTransport(t, srv.URL)
	op := &Operation{Name: "getUser", Query: "query { getUser { _id } }"}

	for range 3 {
		_, err := tr.Do(context.Background(), op)
		require.NoError(t, err)
	}

	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 1, tr.Cache().Len())
}

func TestDo_MutationsAreNotCached(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"createEntity":{"_id":"e1"}}}`))
	}))
	defer srv.Close()

	tr := newTestTransport(t, srv.URL)
	_, err := tr.Do(context.Background(), &Operation{Name: "createEntity", Kind: Mutation, Query: "mutation { x }"})
	require.NoError(t, err)
	assert.Equal(t, 0, tr.Cache().Len())
}

func TestDo_ResetDuringRequestDropsResult(t *testing.T) {
	var tr *Transport

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Identity changes while the query is on the wire.
		tr.ResetCache()
		_, _ = w.Write([]byte(`{"data":{"getUser":{"_id":"u1"}}}`))
	}))
	defer srv.Close()

	tr = newTestTransport(t, srv.URL)

	data, err := tr.Do(context.Background(), &Operation{Name: "getUser", Query: "query { getUser { _id } }"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"getUser":{"_id":"u1"}}`, string(data))
	assert.Equal(t, 0, tr.Cache().Len())
}

func TestResultCache_PutAtRespectsGeneration(t *testing.T) {
	c, err := NewResultCache(4)
	require.NoError(t, err)

	gen := c.Generation()
	assert.True(t, c.PutAt("a", json.RawMessage(`1`), gen))

	c.Reset()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, gen+1, c.Generation())

	assert.False(t, c.PutAt("b", json.RawMessage(`2`), gen))
	assert.Equal(t, 0, c.Len())

	assert.True(t, c.PutAt("b", json.RawMessage(`2`), c.Generation()))

	got, ok := c.Get("b")
	require.True(t, ok)
	assert.JSONEq(t, `2`, string(got))
}
