package authbroker

import (
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// The value logged in place of a credential.
const MaskedTokenValue = "xxxxxx"

// An IdentityToken is the opaque, short-lived proof of identity issued by the
// third-party sign-in provider once a user completes sign-in.
//
// The broker consumes an IdentityToken as single-use input to an exchange and
// never persists one. Expiry tracking belongs to the issuer, not the broker.
type IdentityToken string

func (t IdentityToken) Empty() bool { return strings.TrimSpace(string(t)) == "" }

// String masks the underlying credential so an IdentityToken cannot leak
// through log messages or formatted errors.
func (t IdentityToken) String() string { return MaskedTokenValue }

// A TokenShape is a diagnostic classification of an identity token's apparent
// format.
//
// Shape informs log messages only. Validation of the token is solely the
// authorization backend's responsibility; no broker behavior branches on it.
type TokenShape int

const (
	ShapeUnknown TokenShape = iota
	ShapeJWT
	ShapeOpaque
)

func (s TokenShape) String() string {
	return map[TokenShape]string{
		ShapeUnknown: "unknown",
		ShapeJWT:     "jwt",
		ShapeOpaque:  "opaque",
	}[s]
}

// Shape classifies the apparent format of the IdentityToken.
func (t IdentityToken) Shape() TokenShape {
	if t.Empty() {
		return ShapeUnknown
	}

	if _, _, err := jwt.NewParser().ParseUnverified(string(t), jwt.MapClaims{}); err == nil {
		return ShapeJWT
	}

	return ShapeOpaque
}

// A TokenKind distinguishes session tokens issued by a fully operating backend
// from synthetic ones handed out while the backend runs in demo mode.
type TokenKind int

const (
	// KindAuthoritative marks a session token issued for a verified identity.
	KindAuthoritative TokenKind = iota

	// KindSynthetic marks a non-authoritative token from the demo-mode branch.
	// No call site may treat it as proof of identity.
	KindSynthetic
)

func (k TokenKind) String() string {
	if k == KindSynthetic {
		return "synthetic"
	}
	return "authoritative"
}

const syntheticPrefix = "synthetic-demo-"

// A SessionToken is the application-issued credential proving an
// already-verified identity to backend services.
//
// At most one SessionToken is current per process at any time; the
// [*TokenStore] enforces that.
type SessionToken struct {
	Value string
	Kind  TokenKind
}

func (t SessionToken) IsZero() bool { return t.Value == "" }

// Authoritative reports whether t proves a verified identity.
// Synthetic demo tokens are never authoritative.
func (t SessionToken) Authoritative() bool { return !t.IsZero() && t.Kind == KindAuthoritative }

// String masks the underlying credential so a SessionToken cannot leak
// through log messages or formatted errors.
func (t SessionToken) String() string {
	if t.IsZero() {
		return ""
	}
	return t.Kind.String() + ":" + MaskedTokenValue
}

// NewSyntheticToken constructs the recognizably non-authoritative SessionToken
// used when the backend reports it is operating in demo mode.
//
// The value prefix keeps synthetic tokens distinguishable on the wire as well,
// for consumers that only ever see the bearer string.
func NewSyntheticToken() SessionToken {
	return SessionToken{Value: syntheticPrefix + uuid.NewString(), Kind: KindSynthetic}
}
