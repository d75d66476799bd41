package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/costtrail/authbroker"
	"github.com/costtrail/authbroker/logger"
)

const (
	// DefaultPath is where the authorization backend exchanges identity
	// tokens for session tokens.
	DefaultPath = "/api/auth/token"

	// DefaultTimeout bounds a single exchange round trip.
	DefaultTimeout = 10 * time.Second
)

// Availability is the subset of the liveness prober the Exchanger consults
// before going to the network.
type Availability interface {
	Available(ctx context.Context) bool
	DemoMode() bool
}

// An Exchanger turns an identity token into a session token by submitting it
// to the authorization backend.
//
// Exchanging is idempotent per identity token: two exchanges with the same
// still-valid token against a healthy backend both succeed, and the store is
// only ever updated atomically with a complete token.
type Exchanger struct {
	client *http.Client
	base   string
	path   string
	prober Availability
	store  *authbroker.TokenStore
	l      logger.Logger
}

// An OptFn is a functional option configuring an Exchanger when constructing a new one.
type OptFn func(*Exchanger)

// WithClient sets the *http.Client exchanges are issued with.
func WithClient(c *http.Client) OptFn {
	return func(e *Exchanger) {
		e.client = c
	}
}

// WithLogger sets the logger.Logger the Exchanger logs with.
func WithLogger(l logger.Logger) OptFn {
	return func(e *Exchanger) {
		e.l = l
	}
}

// WithPath sets the exchange endpoint path.
func WithPath(path string) OptFn {
	return func(e *Exchanger) {
		e.path = path
	}
}

// New constructs an Exchanger against the backend at baseURL.
//
// Successful exchanges write the resulting session token into store.
func New(baseURL string, prober Availability, store *authbroker.TokenStore, opts ...OptFn) (*Exchanger, error) {
	if baseURL == "" || prober == nil || store == nil {
		return nil, fmt.Errorf("%w: exchange requires a base URL, a prober and a store", authbroker.ErrBadConfig)
	}

	e := &Exchanger{
		client: &http.Client{Timeout: DefaultTimeout},
		base:   strings.TrimSuffix(baseURL, "/"),
		path:   DefaultPath,
		prober: prober,
		store:  store,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.l == nil {
		e.l = logger.New()
	}

	return e, nil
}

type tokenRequest struct {
	Token string `json:"token"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	DemoMode    bool   `json:"demo_mode"`
}

// Exchange submits the identity token to the backend and returns the session
// token the backend issues for it.
//
// An empty identity token fails with ErrNoIdentityToken before any network
// call. An unreachable backend fails with ErrBackendUnreachable; the broker
// never substitutes an implicit identity for a failed exchange. The one
// explicit fallback: a backend reporting demo mode yields a synthetic,
// non-authoritative token.
//
// A 4xx status is a terminal RejectionError, not retried with the same token.
// Any other non-2xx status and transport-level failures count as backend
// outage.
func (e *Exchanger) Exchange(ctx context.Context, tok authbroker.IdentityToken) (authbroker.SessionToken, error) {
	if tok.Empty() {
		return authbroker.SessionToken{}, authbroker.ErrNoIdentityToken
	}

	// diagnostic only; validating the token is the backend's job
	e.l.Debug("exchanging identity token", &logger.LogContext{
		Data: map[string]any{"shape": tok.Shape().String()},
	})

	if !e.prober.Available(ctx) {
		return authbroker.SessionToken{}, authbroker.ErrBackendUnreachable
	}

	if e.prober.DemoMode() {
		st := authbroker.NewSyntheticToken()
		e.store.Set(st)
		e.l.Warn("backend in demo mode, issuing synthetic session token", nil)
		return st, nil
	}

	body, err := json.Marshal(tokenRequest{Token: string(tok)})
	if err != nil {
		return authbroker.SessionToken{}, fmt.Errorf("%w: %s", authbroker.ErrUnknown, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.base+e.path, bytes.NewReader(body))
	if err != nil {
		return authbroker.SessionToken{}, fmt.Errorf("%w: %s", authbroker.ErrUnknown, err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := e.client.Do(req)
	if err != nil {
		return authbroker.SessionToken{}, fmt.Errorf("%w: %s", authbroker.ErrBackendUnreachable, err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode >= http.StatusOK && res.StatusCode <= 299:
	case res.StatusCode >= http.StatusBadRequest && res.StatusCode <= 499:
		return authbroker.SessionToken{}, authbroker.RejectionError{Status: res.StatusCode}
	default:
		return authbroker.SessionToken{}, fmt.Errorf("%w: HTTP %d", authbroker.ErrBackendUnreachable, res.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(res.Body).Decode(&tr); err != nil {
		return authbroker.SessionToken{}, fmt.Errorf("%w: %s", authbroker.ErrMalformedResponse, err)
	}

	if tr.AccessToken == "" {
		return authbroker.SessionToken{}, fmt.Errorf("%w: no session credential in response", authbroker.ErrMalformedResponse)
	}

	st := authbroker.SessionToken{Value: tr.AccessToken, Kind: authbroker.KindAuthoritative}
	if tr.DemoMode {
		st.Kind = authbroker.KindSynthetic
	}

	e.store.Set(st)
	return st, nil
}
