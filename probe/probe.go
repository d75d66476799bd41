package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/costtrail/authbroker"
)

const (
	// DefaultPath is where the authorization backend answers liveness checks.
	DefaultPath = "/health"

	// DefaultWindow is how long a probe result is reused before a fresh
	// round trip is allowed.
	DefaultWindow = 5 * time.Second

	// DefaultTimeout bounds how long a single probe may block.
	DefaultTimeout = 4 * time.Second
)

// A Prober checks whether the authorization backend is reachable.
//
// Probes are throttled: at most one network round trip is issued per window,
// shared by all callers within that window. The cached result is reused for
// everything else, cached failures included, so a downed backend is not
// hammered.
type Prober struct {
	client *http.Client
	base   string
	path   string
	lim    *rate.Limiter

	// probeMu serializes round trips so concurrent callers in one window
	// share a single probe; mu alone guards the cached state so status
	// reads never wait on an in-flight round trip.
	probeMu sync.Mutex

	mu         sync.Mutex
	checked    bool
	lastResult bool
	demoMode   bool
}

// An OptFn is a functional option configuring a Prober when constructing a new one.
type OptFn func(*Prober)

// WithClient sets the *http.Client the Prober issues probes with.
func WithClient(c *http.Client) OptFn {
	return func(p *Prober) {
		p.client = c
	}
}

// WithPath sets the liveness endpoint path.
func WithPath(path string) OptFn {
	return func(p *Prober) {
		p.path = path
	}
}

// WithTimeout bounds how long a single probe may block.
func WithTimeout(d time.Duration) OptFn {
	return func(p *Prober) {
		p.client.Timeout = d
	}
}

// WithWindow sets the throttle window.
func WithWindow(d time.Duration) OptFn {
	return func(p *Prober) {
		p.lim = rate.NewLimiter(rate.Every(d), 1)
	}
}

// New constructs a Prober against the backend at baseURL.
func New(baseURL string, opts ...OptFn) (*Prober, error) {
	if baseURL == "" {
		return nil, fmt.Errorf(`%w: baseURL cannot be ""`, authbroker.ErrBadConfig)
	}

	p := &Prober{
		client: &http.Client{Timeout: DefaultTimeout},
		base:   strings.TrimSuffix(baseURL, "/"),
		path:   DefaultPath,
		lim:    rate.NewLimiter(rate.Every(DefaultWindow), 1),
	}
	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// Path returns the liveness endpoint path the Prober targets.
func (p *Prober) Path() string { return p.path }

type healthResponse struct {
	DemoMode bool `json:"demo_mode"`
}

// Available reports whether the authorization backend is reachable.
//
// Within a throttle window the cached result is returned without any network
// call. The cache advances on every probe regardless of outcome, failure
// included.
func (p *Prober) Available(ctx context.Context) bool {
	p.probeMu.Lock()
	defer p.probeMu.Unlock()

	p.mu.Lock()
	if !p.lim.Allow() && p.checked {
		defer p.mu.Unlock()
		return p.lastResult
	}
	prevDemo := p.demoMode
	p.mu.Unlock()

	// the round trip runs outside mu so DemoMode and LastResult stay
	// responsive while a probe is in flight
	ok, demo := p.check(ctx, prevDemo)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastResult, p.demoMode = ok, demo
	p.checked = true
	return p.lastResult
}

// DemoMode reports whether the last successful probe flagged the backend as
// operating in reduced/demo mode.
//
// DemoMode never triggers a probe of its own; pair it with Available.
func (p *Prober) DemoMode() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.demoMode
}

// LastResult returns the cached probe result and whether a probe has run yet.
func (p *Prober) LastResult() (bool, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastResult, p.checked
}

// check issues the probe round trip. Any transport error or non-2xx status
// means unavailable, keeping the previously seen demo flag. A 2xx body may
// carry the demo-mode flag; an unreadable body counts as fully operational.
func (p *Prober) check(ctx context.Context, prevDemo bool) (ok, demo bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.base+p.path, nil)
	if err != nil {
		return false, prevDemo
	}

	res, err := p.client.Do(req)
	if err != nil {
		return false, prevDemo
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode > 299 {
		return false, prevDemo
	}

	var h healthResponse
	if err := json.NewDecoder(res.Body).Decode(&h); err != nil {
		return true, false
	}

	return true, h.DemoMode
}
