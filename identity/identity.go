package identity

import (
	"context"

	"github.com/costtrail/authbroker"
)

// A Status is the externally observable state of the third-party identity session.
type Status int

const (
	StatusLoading Status = iota
	StatusAuthenticated
	StatusUnauthenticated
)

func (s Status) String() string {
	return map[Status]string{
		StatusLoading:         "loading",
		StatusAuthenticated:   "authenticated",
		StatusUnauthenticated: "unauthenticated",
	}[s]
}

// A Source supplies identity tokens once a user completes third-party sign-in.
//
// The broker only ever consumes a Source; how the token is obtained is the
// provider's concern.
type Source interface {
	Status() Status
	IdentityToken(ctx context.Context) (authbroker.IdentityToken, error)
}

// A StaticSource is a Source holding a fixed token and status.
//
// Useful for CLIs holding a pre-issued token and for tests.
type StaticSource struct {
	Token authbroker.IdentityToken
	State Status
}

func (s StaticSource) Status() Status { return s.State }

func (s StaticSource) IdentityToken(_ context.Context) (authbroker.IdentityToken, error) {
	return s.Token, nil
}
