package authbroker_test

import (
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"

	"github.com/costtrail/authbroker"
)

func TestIdentityTokenShape(t *testing.T) {
	// Arrange
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user@example.com"}).
		SignedString([]byte("test-key"))
	require.Nil(t, err)

	tcs := []struct {
		name     string
		tok      authbroker.IdentityToken
		expected authbroker.TokenShape
	}{
		{"Zero", authbroker.IdentityToken(""), authbroker.ShapeUnknown},
		{"Whitespace", authbroker.IdentityToken("   "), authbroker.ShapeUnknown},
		{"Opaque", authbroker.IdentityToken("idtok-abc"), authbroker.ShapeOpaque},
		{"JWT", authbroker.IdentityToken(signed), authbroker.ShapeJWT},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Act + Assert
			require.Equal(t, tc.expected, tc.tok.Shape())
		})
	}
}

func TestIdentityTokenString(t *testing.T) {
	// Arrange
	tok := authbroker.IdentityToken("idtok-abc")

	// Act + Assert
	require.Equal(t, authbroker.MaskedTokenValue, tok.String())
	require.NotContains(t, tok.String(), "idtok")
}

func TestSessionTokenAuthoritative(t *testing.T) {
	// Arrange + Act + Assert
	require.False(t, authbroker.SessionToken{}.Authoritative())
	require.True(t, authbroker.SessionToken{Value: "sess-123"}.Authoritative())
	require.False(t, authbroker.NewSyntheticToken().Authoritative())
}

func TestNewSyntheticToken(t *testing.T) {
	// Act
	tok := authbroker.NewSyntheticToken()

	// Assert
	require.Equal(t, authbroker.KindSynthetic, tok.Kind)
	require.True(t, strings.HasPrefix(tok.Value, "synthetic-demo-"))
	require.NotContains(t, tok.String(), tok.Value)
}
