package transport

import (
	"net/http"

	"github.com/google/uuid"
)

// Middleware decorates the round tripper that dispatches requests. Each
// middleware must call next exactly once to pass the request on.
type Middleware func(next http.RoundTripper) http.RoundTripper

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip calls f(req).
func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// BasicAuth returns a middleware that sets "Authorization: Basic <cred>" on
// every request when credential() is non-empty. The credential is read at
// dispatch time so identity changes apply to the next request.
func BasicAuth(credential func() string) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			cred := credential()
			if cred == "" {
				return next.RoundTrip(req)
			}

			r := cloneRequest(req)
			r.Header.Set("Authorization", "Basic "+cred)

			return next.RoundTrip(r)
		})
	}
}

// RequestMetadata returns a middleware that stamps the User-Agent and a
// fresh X-Request-ID on every request. A caller-provided X-Request-ID is
// kept.
func RequestMetadata(userAgent string) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			r := cloneRequest(req)

			if userAgent != "" {
				r.Header.Set("User-Agent", userAgent)
			}

			if r.Header.Get("X-Request-ID") == "" {
				r.Header.Set("X-Request-ID", uuid.NewString())
			}

			return next.RoundTrip(r)
		})
	}
}

// cloneRequest returns a shallow copy of req with its own header map,
// creating one if req has none. RoundTrippers must not mutate their input.
func cloneRequest(req *http.Request) *http.Request {
	r := req.Clone(req.Context())
	if r.Header == nil {
		r.Header = make(http.Header)
	}

	return r
}

// chain wraps base with middlewares so that mws[0] runs first.
func chain(base http.RoundTripper, mws []Middleware) http.RoundTripper {
	rt := base
	for i := len(mws) - 1; i >= 0; i-- {
		rt = mws[i](rt)
	}

	return rt
}
