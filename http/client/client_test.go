package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/costtrail/authbroker"
	"github.com/costtrail/authbroker/http/client"
)

// stubBroker records how the Transport drives it.
type stubBroker struct {
	tok     authbroker.SessionToken
	err     error
	ensures int64
	revokes int64
}

func (b *stubBroker) EnsureAuthenticated(_ context.Context) (authbroker.SessionToken, error) {
	atomic.AddInt64(&b.ensures, 1)
	return b.tok, b.err
}

func (b *stubBroker) RevokeAuthorization() {
	atomic.AddInt64(&b.revokes, 1)
	b.tok = authbroker.SessionToken{}
}

func TestTransportAttachesBearer(t *testing.T) {
	// Arrange
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer sess-123", r.Header.Get("Authorization"))
		require.NotEmpty(t, r.Header.Get("X-Request-Id"))
	}))
	defer srv.Close()

	b := &stubBroker{tok: authbroker.SessionToken{Value: "sess-123"}}
	c := client.New(b)

	// Act
	res, err := c.Get(srv.URL + "/api/expenses")

	// Assert
	require.Nil(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, int64(1), atomic.LoadInt64(&b.ensures))
}

func TestTransportProceedsUnauthenticated(t *testing.T) {
	// Arrange
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.Header.Get("Authorization"))
	}))
	defer srv.Close()

	b := &stubBroker{err: authbroker.ErrBackendUnreachable}
	c := client.New(b)

	// Act
	res, err := c.Get(srv.URL + "/api/expenses")

	// Assert
	require.Nil(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
}

func TestTransportBypassesAuthEndpoints(t *testing.T) {
	// Arrange
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.Header.Get("Authorization"))
	}))
	defer srv.Close()

	b := &stubBroker{tok: authbroker.SessionToken{Value: "sess-123"}}
	c := client.New(b)

	// Act
	for _, path := range []string{"/api/auth/token", "/health"} {
		res, err := c.Get(srv.URL + path)
		require.Nil(t, err)
		res.Body.Close()
	}

	// Assert: the broker is never consulted for its own endpoints
	require.Equal(t, int64(0), atomic.LoadInt64(&b.ensures))
}

func TestTransportBypassOpt(t *testing.T) {
	// Arrange
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.Header.Get("Authorization"))
	}))
	defer srv.Close()

	b := &stubBroker{tok: authbroker.SessionToken{Value: "sess-123"}}
	c := client.New(b, client.WithBypass("/metrics"))

	// Act
	res, err := c.Get(srv.URL + "/metrics")

	// Assert
	require.Nil(t, err)
	res.Body.Close()
	require.Equal(t, int64(0), atomic.LoadInt64(&b.ensures))
}

func TestTransportRevokesOnUnauthorized(t *testing.T) {
	for _, code := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		// Arrange
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))

		b := &stubBroker{tok: authbroker.SessionToken{Value: "sess-123"}}

		var failures int64
		c := client.New(b, client.WithAuthFailureHandler(func(_ *http.Response) {
			atomic.AddInt64(&failures, 1)
		}))

		// Act
		res, err := c.Get(srv.URL + "/api/expenses")

		// Assert: the response reaches the caller and the token is revoked
		require.Nil(t, err)
		res.Body.Close()
		require.Equal(t, code, res.StatusCode)
		require.Equal(t, int64(1), atomic.LoadInt64(&b.revokes))
		require.Equal(t, int64(1), atomic.LoadInt64(&failures))

		// Act: the next request re-triggers the broker rather than
		// reusing the revoked token
		res, err = c.Get(srv.URL + "/api/expenses")

		// Assert
		require.Nil(t, err)
		res.Body.Close()
		require.Equal(t, int64(2), atomic.LoadInt64(&b.ensures))

		srv.Close()
	}
}

func TestTransportDoesNotRevokeOnUnauthenticatedRequest(t *testing.T) {
	// Arrange: the broker holds no token, so the request goes out anonymous
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	b := &stubBroker{}

	var failures int64
	c := client.New(b, client.WithAuthFailureHandler(func(_ *http.Response) {
		atomic.AddInt64(&failures, 1)
	}))

	// Act
	res, err := c.Get(srv.URL + "/api/expenses")

	// Assert: a 401 for a session that never existed revokes nothing
	require.Nil(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	require.Equal(t, int64(0), atomic.LoadInt64(&b.revokes))
	require.Equal(t, int64(0), atomic.LoadInt64(&failures))
}

func TestTransportSurfacesTransportErrors(t *testing.T) {
	// Arrange
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	b := &stubBroker{tok: authbroker.SessionToken{Value: "sess-123"}}
	c := client.New(b)

	// Act
	_, err := c.Get(srv.URL + "/api/expenses")

	// Assert: no retry, no revocation, error surfaced as-is
	require.NotNil(t, err)
	require.Equal(t, int64(1), atomic.LoadInt64(&b.ensures))
	require.Equal(t, int64(0), atomic.LoadInt64(&b.revokes))
}

func TestTransportDoesNotMutateCallerRequest(t *testing.T) {
	// Arrange
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	b := &stubBroker{tok: authbroker.SessionToken{Value: "sess-123"}}
	transport := client.NewTransport(b)

	r, err := http.NewRequest(http.MethodGet, srv.URL+"/api/expenses", nil)
	require.Nil(t, err)

	// Act
	res, err := transport.RoundTrip(r)

	// Assert
	require.Nil(t, err)
	res.Body.Close()
	require.Empty(t, r.Header.Get("Authorization"))
	require.Empty(t, r.Header.Get("X-Request-Id"))
}

func TestTransportSyntheticTokenStillAttaches(t *testing.T) {
	// Arrange: demo sessions ride the same header, recognizably prefixed
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.Header.Get("Authorization"), "Bearer synthetic-demo-")
	}))
	defer srv.Close()

	b := &stubBroker{tok: authbroker.NewSyntheticToken()}
	c := client.New(b)

	// Act
	res, err := c.Get(srv.URL + "/api/expenses")

	// Assert
	require.Nil(t, err)
	res.Body.Close()
}
