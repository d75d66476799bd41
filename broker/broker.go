package broker

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	// TODO(lp): configurable env files
	_ "github.com/joho/godotenv/autoload"

	"github.com/costtrail/authbroker"
	"github.com/costtrail/authbroker/exchange"
	httpclient "github.com/costtrail/authbroker/http/client"
	"github.com/costtrail/authbroker/identity"
	"github.com/costtrail/authbroker/logger"
	"github.com/costtrail/authbroker/probe"
)

const (
	// DefaultWaitCeiling bounds how long a caller waits on another caller's
	// in-flight exchange before proceeding unauthenticated.
	DefaultWaitCeiling = 3 * time.Second

	// eagerExchangeTimeout bounds the exchange triggered by an identity
	// session turning authenticated.
	eagerExchangeTimeout = 10 * time.Second
)

// A SessionStatus is the externally observable state of the broker's session.
type SessionStatus int

const (
	StatusUnauthenticated SessionStatus = iota
	StatusExchanging
	StatusAuthenticated
	StatusDemo
)

func (s SessionStatus) String() string {
	return map[SessionStatus]string{
		StatusUnauthenticated: "unauthenticated",
		StatusExchanging:      "exchanging",
		StatusAuthenticated:   "authenticated",
		StatusDemo:            "demo",
	}[s]
}

// An exchangeService performs the identity-for-session token exchange.
//
// *exchange.Exchanger satisfies this interface.
type exchangeService interface {
	Exchange(ctx context.Context, tok authbroker.IdentityToken) (authbroker.SessionToken, error)
}

// A Broker coordinates authentication for the process.
//
// It owns the session token store and guarantees that, for any window of
// concurrent EnsureAuthenticated calls, exactly one exchange network
// operation is issued. Everything the surrounding application needs is
// exposed through Status, IsAuthenticated, AuthErr and Client; the store
// itself is never handed out.
type Broker struct {
	baseURL string
	env     authbroker.Environment
	window  time.Duration
	ceiling time.Duration
	hc      *http.Client

	l      logger.Logger
	store  *authbroker.TokenStore
	prober exchange.Availability
	exch   exchangeService
	src    identity.Source

	mu       sync.Mutex
	inflight chan struct{}
	lastErr  error
}

// New constructs a Broker from the provided options.
//
// Environment variables supply defaults: AUTH_BACKEND_URL, ENVIRONMENT,
// AUTH_EXCHANGE_WAIT_CEILING and AUTH_PROBE_WINDOW. Options supplied to New
// overwrite them. An identity source is always required; a base URL is
// required unless an exchanger is injected.
func New(opts ...OptFn) (*Broker, error) {
	b := &Broker{
		baseURL: authbroker.EnvVarOrString("AUTH_BACKEND_URL", ""),
		env:     authbroker.EnvVarOrEnv("ENVIRONMENT", authbroker.Development),
		window:  authbroker.EnvVarOrDuration("AUTH_PROBE_WINDOW", probe.DefaultWindow),
		ceiling: authbroker.EnvVarOrDuration("AUTH_EXCHANGE_WAIT_CEILING", DefaultWaitCeiling),
		store:   authbroker.NewTokenStore(),
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.l == nil {
		b.l = logger.New(logger.WithEnv(b.env.String()))
	}

	if b.src == nil {
		return nil, fmt.Errorf("%w: an identity source is required", authbroker.ErrBadConfig)
	}

	if b.exch == nil {
		if b.baseURL == "" {
			return nil, fmt.Errorf("%w: a backend base URL is required", authbroker.ErrBadConfig)
		}

		if b.prober == nil {
			popts := []probe.OptFn{probe.WithWindow(b.window)}
			if b.hc != nil {
				popts = append(popts, probe.WithClient(b.hc))
			}

			p, err := probe.New(b.baseURL, popts...)
			if err != nil {
				return nil, err
			}
			b.prober = p
		}

		eopts := []exchange.OptFn{exchange.WithLogger(b.l)}
		if b.hc != nil {
			eopts = append(eopts, exchange.WithClient(b.hc))
		}

		e, err := exchange.New(b.baseURL, b.prober, b.store, eopts...)
		if err != nil {
			return nil, err
		}
		b.exch = e
	}

	return b, nil
}

// EnsureAuthenticated returns the current session token, running an exchange
// first when none is held.
//
// When another caller's exchange is already in flight, no second exchange
// starts; the caller waits on its completion up to the wait ceiling and then
// proceeds unauthenticated with a zero token. That bounds worst-case request
// latency at the cost of the occasional unauthenticated call during a slow
// exchange.
func (b *Broker) EnsureAuthenticated(ctx context.Context) (authbroker.SessionToken, error) {
	if tok, ok := b.store.Current(); ok {
		return tok, nil
	}

	b.mu.Lock()
	if b.inflight != nil {
		done := b.inflight
		b.mu.Unlock()
		return b.await(ctx, done)
	}

	// an exchange may have settled between the fast-path read and acquiring
	// the lock; re-check before issuing a redundant exchange
	if tok, ok := b.store.Current(); ok {
		b.mu.Unlock()
		return tok, nil
	}

	done := make(chan struct{})
	b.inflight = done
	b.mu.Unlock()

	tok, err := b.runExchange(ctx)

	// release happens on every exit path; shared state is updated before the
	// broadcast so waiters observe the settled outcome
	b.mu.Lock()
	b.lastErr = err
	b.inflight = nil
	b.mu.Unlock()
	close(done)

	return tok, err
}

// runExchange performs the single in-flight exchange attempt.
func (b *Broker) runExchange(ctx context.Context) (authbroker.SessionToken, error) {
	itok, err := b.src.IdentityToken(ctx)
	if err != nil {
		return authbroker.SessionToken{}, err
	}

	tok, err := b.exch.Exchange(ctx, itok)
	if err != nil {
		b.l.Error("token exchange failed", &logger.LogContext{Error: err})
		return authbroker.SessionToken{}, err
	}

	return tok, nil
}

// await blocks a follower on the leader's in-flight exchange.
func (b *Broker) await(ctx context.Context, done <-chan struct{}) (authbroker.SessionToken, error) {
	t := time.NewTimer(b.ceiling)
	defer t.Stop()

	select {
	case <-done:
		if tok, ok := b.store.Current(); ok {
			return tok, nil
		}
		return authbroker.SessionToken{}, b.AuthErr()
	case <-t.C:
		// ceiling elapsed: proceed unauthenticated rather than blocking
		// indefinitely; the leader still completes and settles shared state
		return authbroker.SessionToken{}, nil
	case <-ctx.Done():
		return authbroker.SessionToken{}, ctx.Err()
	}
}

// HandleSessionChange reacts to a transition of the third-party identity
// session.
//
// An identity session ending always destroys the current session token; one
// beginning eagerly triggers an exchange so the first API call finds a token
// waiting.
func (b *Broker) HandleSessionChange(s identity.Status) {
	switch s {
	case identity.StatusUnauthenticated:
		b.store.Clear()
		b.mu.Lock()
		b.lastErr = nil
		b.mu.Unlock()
		b.l.Info("identity session ended, session token destroyed", nil)
	case identity.StatusAuthenticated:
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), eagerExchangeTimeout)
			defer cancel()
			b.EnsureAuthenticated(ctx)
		}()
	}
}

// RevokeAuthorization reports an authoritative 401/403 observed on an
// authenticated request. The held token is destroyed so the next call
// re-exchanges rather than looping on a stale credential.
func (b *Broker) RevokeAuthorization() {
	b.store.Clear()
	b.mu.Lock()
	b.lastErr = authbroker.ErrAuthorizationRevoked
	b.mu.Unlock()
	b.l.Warn("authorization revoked by backend", nil)
}

// Status reports the externally observable session state.
//
// StatusDemo is only ever entered through the backend's explicit demo-mode
// flag; no call site can mistake it for StatusAuthenticated.
func (b *Broker) Status() SessionStatus {
	if tok, ok := b.store.Current(); ok {
		if tok.Kind == authbroker.KindSynthetic {
			return StatusDemo
		}
		return StatusAuthenticated
	}

	b.mu.Lock()
	exchanging := b.inflight != nil
	b.mu.Unlock()

	if exchanging {
		return StatusExchanging
	}

	return StatusUnauthenticated
}

// IsAuthenticated reports whether an authoritative session token is held.
func (b *Broker) IsAuthenticated() bool {
	tok, ok := b.store.Current()
	return ok && tok.Authoritative()
}

// AuthErr returns the classified error of the most recently settled exchange,
// or nil.
func (b *Broker) AuthErr() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

// Client returns an *http.Client dispatching every request through the
// broker: bearer credentials attached, exchanges triggered on demand,
// 401/403 revocations handled.
func (b *Broker) Client(opts ...httpclient.OptFn) *http.Client {
	return httpclient.New(b, opts...)
}
