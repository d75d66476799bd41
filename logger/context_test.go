package logger_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/costtrail/authbroker/logger"
)

func TestLogContextMarshalText(t *testing.T) {
	// Arrange
	lc := logger.LogContext{}

	// Act
	b, err := lc.MarshalText()

	// Assert
	require.Nil(t, err)
	require.Equal(t, []byte("{}"), b)

	// Arrange
	lc = logger.LogContext{Data: map[string]any{"test": "data"}}

	// Act
	b, err = lc.MarshalText()

	// Assert
	require.Nil(t, err)
	require.Equal(t, `{"data":{"test":"data"}}`, string(b))

	// Arrange
	lc = logger.LogContext{Error: errors.New("test")}

	// Act
	b, err = lc.MarshalText()

	// Assert
	require.Nil(t, err)
	require.Equal(t, `{"error":"test"}`, string(b))
}

func TestLogContextMasksAuthorization(t *testing.T) {
	// Arrange
	r := httptest.NewRequest(http.MethodGet, "https://example.com/api/expenses", nil)
	r.Header.Set("Authorization", "Bearer sess-123")
	lc := logger.LogContext{Request: r}

	// Act
	b, err := lc.MarshalText()

	// Assert
	require.Nil(t, err)

	m := make(map[string]any)
	require.Nil(t, json.Unmarshal(b, &m))

	req, ok := m["request"].(map[string]any)
	require.True(t, ok)

	header, ok := req["header"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, []any{"Bearer xxxxxx"}, header["Authorization"])
	require.NotContains(t, string(b), "sess-123")

	// the caller's request header is untouched
	require.Equal(t, "Bearer sess-123", r.Header.Get("Authorization"))
}
