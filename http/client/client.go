package client

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/costtrail/authbroker"
)

// A Broker coordinates session tokens on behalf of the Transport.
//
// *broker.Broker satisfies this interface.
type Broker interface {
	// EnsureAuthenticated returns the current session token, triggering an
	// exchange first when none is held. A zero token means the request
	// proceeds unauthenticated.
	EnsureAuthenticated(ctx context.Context) (authbroker.SessionToken, error)

	// RevokeAuthorization reports an authoritative 401/403 observed on an
	// authenticated request.
	RevokeAuthorization()
}

// A Transport decorates an http.RoundTripper so that every outgoing request
// carries the current session token as a bearer credential.
//
// Requests to the authentication and liveness endpoints themselves bypass the
// Broker; otherwise those calls would wait on the very exchange they serve.
//
// A 401 or 403 response on an authenticated request revokes the held token so the next request
// re-exchanges instead of retrying a known-bad credential. The response is
// still returned to the caller unmodified. Transport-level failures are
// surfaced as-is; retry policy belongs to the caller.
type Transport struct {
	base          http.RoundTripper
	broker        Broker
	bypass        []string
	onAuthFailure func(*http.Response)
}

// An OptFn is a functional option configuring a Transport when constructing a new one.
type OptFn func(*Transport)

// WithBase sets the http.RoundTripper the Transport decorates.
func WithBase(rt http.RoundTripper) OptFn {
	return func(t *Transport) {
		t.base = rt
	}
}

// WithBypass adds path prefixes whose requests skip the Broker entirely.
func WithBypass(prefixes ...string) OptFn {
	return func(t *Transport) {
		t.bypass = append(t.bypass, prefixes...)
	}
}

// WithAuthFailureHandler sets a callback invoked whenever an authenticated
// request comes back 401 or 403, after the held token has been revoked.
//
// The callback must not consume the response body.
func WithAuthFailureHandler(fn func(*http.Response)) OptFn {
	return func(t *Transport) {
		t.onAuthFailure = fn
	}
}

// NewTransport constructs a Transport dispatching through b.
func NewTransport(b Broker, opts ...OptFn) *Transport {
	t := &Transport{
		base:   http.DefaultTransport,
		broker: b,
		bypass: []string{"/api/auth", "/health"},
	}
	for _, opt := range opts {
		opt(t)
	}

	return t
}

// New constructs an *http.Client whose requests dispatch through a Transport.
func New(b Broker, opts ...OptFn) *http.Client {
	return &http.Client{Transport: NewTransport(b, opts...)}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	if t.bypassed(r.URL.Path) {
		return t.base.RoundTrip(r)
	}

	// RoundTrippers must not mutate the caller's request
	req := r.Clone(r.Context())
	req.Header.Set("X-Request-Id", uuid.NewString())

	tok, _ := t.broker.EnsureAuthenticated(req.Context())
	if !tok.IsZero() {
		req.Header.Set("Authorization", "Bearer "+tok.Value)
	}

	res, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	// only an authenticated request's 401/403 says anything about the held
	// token; an unauthenticated one is just the backend declining anonymous
	// access
	if !tok.IsZero() && (res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden) {
		t.broker.RevokeAuthorization()
		if t.onAuthFailure != nil {
			t.onAuthFailure(res)
		}
	}

	return res, nil
}

// bypassed reports whether path belongs to the auth or liveness endpoints.
func (t *Transport) bypassed(path string) bool {
	for _, prefix := range t.bypass {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	return false
}
