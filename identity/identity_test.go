package identity_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/costtrail/authbroker"
	"github.com/costtrail/authbroker/identity"
)

func TestStaticSource(t *testing.T) {
	// Arrange
	src := identity.StaticSource{
		Token: authbroker.IdentityToken("idtok-abc"),
		State: identity.StatusAuthenticated,
	}

	// Act
	tok, err := src.IdentityToken(context.Background())

	// Assert
	require.Nil(t, err)
	require.Equal(t, authbroker.IdentityToken("idtok-abc"), tok)
	require.Equal(t, identity.StatusAuthenticated, src.Status())
}

func TestNewGoogleProvider(t *testing.T) {
	// Act
	_, err := identity.NewGoogleProvider("", "", "")

	// Assert
	require.ErrorIs(t, err, authbroker.ErrBadConfig)

	// Act
	p, err := identity.NewGoogleProvider("client", "secret", "https://example.com/callback")

	// Assert
	require.Nil(t, err)
	require.Equal(t, identity.StatusUnauthenticated, p.Status())

	// Act
	_, err = p.IdentityToken(context.Background())

	// Assert
	require.ErrorIs(t, err, authbroker.ErrNoIdentityToken)
}

func TestGoogleProviderAuthCodeURL(t *testing.T) {
	// Arrange
	p, err := identity.NewGoogleProvider("client", "secret", "https://example.com/callback")
	require.Nil(t, err)

	// Act
	u := p.AuthCodeURL("state-123")

	// Assert
	require.Contains(t, u, "accounts.google.com")
	require.Contains(t, u, "state-123")
}
