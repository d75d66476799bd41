package authbroker

import (
	"errors"
	"fmt"
)

var (
	ErrBadConfig            = errors.New("bad config")
	ErrNoIdentityToken      = errors.New("no identity token")
	ErrBackendUnreachable   = errors.New("backend unreachable")
	ErrBackendRejected      = errors.New("backend rejected")
	ErrMalformedResponse    = errors.New("malformed response")
	ErrAuthorizationRevoked = errors.New("authorization revoked")
	ErrUnknown              = errors.New("unknown")
)

// A RejectionError is a terminal rejection of an identity token by the
// authorization backend.
//
// A RejectionError is never retried with the same identity token;
// the user must sign in again to obtain a fresh one.
//
// RejectionError matches ErrBackendRejected under [errors.Is].
type RejectionError struct {
	Status int
}

func (e RejectionError) Error() string {
	return fmt.Sprintf("%s: HTTP %d", ErrBackendRejected, e.Status)
}

func (e RejectionError) Unwrap() error { return ErrBackendRejected }

// ErrorKind maps err to the sentinel of the broker's error taxonomy it
// belongs to, so the UI can pick a remedial action ("please sign in" vs.
// "service unavailable" vs. "session expired") without inspecting raw
// transport errors.
//
// A nil err maps to nil; anything outside the taxonomy maps to ErrUnknown.
func ErrorKind(err error) error {
	if err == nil {
		return nil
	}

	for _, sentinel := range []error{
		ErrBadConfig,
		ErrNoIdentityToken,
		ErrBackendUnreachable,
		ErrBackendRejected,
		ErrMalformedResponse,
		ErrAuthorizationRevoked,
	} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}

	return ErrUnknown
}
