package zentty

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// recordedRequest is one operation received by fakeServer.
type recordedRequest struct {
	Operation string
	Query     string
	Variables map[string]any
	Auth      string
	Chunk     []byte
	Multipart bool
}

// fakeServer is an httptest server that decodes JSON and multipart operation
// bodies, records them, and answers with the handler registered for the
// operation name.
type fakeServer struct {
	t        *testing.T
	srv      *httptest.Server
	mu       sync.Mutex
	requests []recordedRequest
	handlers map[string]func(req recordedRequest) (status int, body string)
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()

	fs := &fakeServer{
		t:        t,
		handlers: make(map[string]func(recordedRequest) (int, string)),
	}
	fs.srv = httptest.NewServer(http.HandlerFunc(fs.serve))
	t.Cleanup(fs.srv.Close)

	return fs
}

// on registers a handler returning data for op.
func (fs *fakeServer) on(op string, h func(req recordedRequest) (int, string)) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.handlers[op] = h
}

// reply registers a fixed 200 response with the given data object.
func (fs *fakeServer) reply(op, data string) {
	fs.on(op, func(recordedRequest) (int, string) {
		return http.StatusOK, `{"data":` + data + `}`
	})
}

func (fs *fakeServer) recorded() []recordedRequest {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	return append([]recordedRequest(nil), fs.requests...)
}

func (fs *fakeServer) count(op string) int {
	n := 0

	for _, r := range fs.recorded() {
		if r.Operation == op {
			n++
		}
	}

	return n
}

func (fs *fakeServer) serve(w http.ResponseWriter, r *http.Request) {
	rec := recordedRequest{Auth: r.Header.Get("Authorization")}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		rec.Multipart = true
		require.NoError(fs.t, r.ParseMultipartForm(32<<20))

		rec.Operation = r.FormValue("operationName")
		rec.Query = r.FormValue("query")
		require.NoError(fs.t, json.Unmarshal([]byte(r.FormValue("variables")), &rec.Variables))

		if f, _, err := r.FormFile("chunk"); err == nil {
			data, readErr := io.ReadAll(f)
			require.NoError(fs.t, readErr)
			f.Close()

			rec.Chunk = data
		}
	} else {
		var body struct {
			OperationName string         `json:"operationName"`
			Query         string         `json:"query"`
			Variables     map[string]any `json:"variables"`
		}
		require.NoError(fs.t, json.NewDecoder(r.Body).Decode(&body))

		rec.Operation = body.OperationName
		rec.Query = body.Query
		rec.Variables = body.Variables
	}

	fs.mu.Lock()
	fs.requests = append(fs.requests, rec)
	h := fs.handlers[rec.Operation]
	fs.mu.Unlock()

	if h == nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`unknown operation ` + rec.Operation))

		return
	}

	status, body := h(rec)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
