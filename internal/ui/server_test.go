package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/harmonize/internal/ui/features"
	"github.com/leapstack-labs/harmonize/internal/ui/router"
)

// newTestServer logs nowhere: workbenches may close after the test returns.
func newTestServer(t *testing.T, port int) *Server {
	t.Helper()
	s := NewServer(Config{
		Service:        &features.FakeService{},
		Port:           port,
		SessionSecret:  "test-secret-key-32-bytes-long!!",
		Logger:         nil,
		MaxSessions:    4,
		SessionTTL:     time.Hour,
		StatusInterval: time.Hour,
		CodeLanguage:   "python",
	})
	t.Cleanup(s.registry.Close)
	return s
}

func TestServer_Handler(t *testing.T) {
	s := newTestServer(t, 0)
	handler, err := s.Handler()
	require.NoError(t, err)

	t.Run("healthz", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		var health router.HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
		assert.Equal(t, "ok", health.Status)
		assert.Equal(t, 0, health.Sessions)
	})

	t.Run("static", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/app.css", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), ".modal")
		assert.NotEmpty(t, rec.Header().Get("Cache-Control"))
	})

	t.Run("page starts a session", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, s.Sessions())
		cookie := rec.Result().Cookies()
		require.Len(t, cookie, 1)
		assert.True(t, cookie[0].HttpOnly)
		assert.Equal(t, "/", cookie[0].Path)
	})

	t.Run("unknown route", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServer_ServeStopsOnCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	s := newTestServer(t, port)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url) //nolint:noctx
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, 1, s.Sessions())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(6 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	assert.Equal(t, 0, s.Sessions(), "sessions are closed on shutdown")
}
