package broker

import (
	"net/http"
	"time"

	"github.com/costtrail/authbroker"
	"github.com/costtrail/authbroker/exchange"
	"github.com/costtrail/authbroker/identity"
	"github.com/costtrail/authbroker/logger"
)

// An OptFn is a functional option configuring a Broker when constructing a new one.
type OptFn func(*Broker)

// WithBaseURL sets the authorization backend the Broker exchanges against.
func WithBaseURL(u string) OptFn {
	return func(b *Broker) {
		b.baseURL = u
	}
}

// WithEnv sets the Environment the Broker operates in.
func WithEnv(env authbroker.Environment) OptFn {
	return func(b *Broker) {
		b.env = env
	}
}

// WithExchanger injects the exchange service, bypassing construction of the
// default Exchanger and Prober.
func WithExchanger(e exchangeService) OptFn {
	return func(b *Broker) {
		b.exch = e
	}
}

// WithHTTPClient sets the *http.Client used for probes and exchanges.
func WithHTTPClient(c *http.Client) OptFn {
	return func(b *Broker) {
		b.hc = c
	}
}

// WithIdentitySource sets where the Broker obtains identity tokens.
func WithIdentitySource(src identity.Source) OptFn {
	return func(b *Broker) {
		b.src = src
	}
}

// WithLogger sets the logger.Logger the Broker and its components log with.
func WithLogger(l logger.Logger) OptFn {
	return func(b *Broker) {
		b.l = l
	}
}

// WithProber injects the liveness prober consulted before exchanges.
func WithProber(p exchange.Availability) OptFn {
	return func(b *Broker) {
		b.prober = p
	}
}

// WithProbeWindow sets the liveness probe throttle window.
func WithProbeWindow(d time.Duration) OptFn {
	return func(b *Broker) {
		b.window = d
	}
}

// WithStore sets the TokenStore the Broker coordinates around.
//
// Only useful when injecting an exchanger that writes to the same store.
func WithStore(s *authbroker.TokenStore) OptFn {
	return func(b *Broker) {
		b.store = s
	}
}

// WithWaitCeiling bounds how long a caller waits on an in-flight exchange
// before proceeding unauthenticated.
func WithWaitCeiling(d time.Duration) OptFn {
	return func(b *Broker) {
		b.ceiling = d
	}
}
