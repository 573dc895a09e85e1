package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/futig/rag-assistant/internal/api/web"
	"github.com/futig/rag-assistant/internal/config"
	"github.com/futig/rag-assistant/internal/integration/rag"
	"github.com/futig/rag-assistant/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubBackend struct {
	err error
}

func (b stubBackend) Ping(context.Context) error {
	return b.err
}

func newTestServer(t *testing.T, backend HealthChecker) *httptest.Server {
	t.Helper()

	logger := zaptest.NewLogger(t)
	connector := rag.NewMockConnector(logger, 0)
	registry := session.NewRegistry(context.Background(), config.SessionConfig{TTL: time.Hour, CleanupInterval: time.Hour},
		func(ctx context.Context, id string) *session.Session {
			return session.New(ctx, id, connector, logger)
		}, logger)

	h := web.NewHandler(registry, web.Options{MaxUploadSize: 1 << 20, Location: time.UTC})
	server := httptest.NewServer(SetupRouter(h, backend, logger))
	t.Cleanup(func() {
		server.Close()
		registry.Close()
	})

	return server
}

func get(t *testing.T, url string) (int, []byte) {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestHealth_BackendReachable(t *testing.T) {
	server := newTestServer(t, stubBackend{})

	status, body := get(t, server.URL+"/health")
	require.Equal(t, http.StatusOK, status)

	var health healthResponse
	require.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "reachable", health.Backend)
}

func TestHealth_BackendDown(t *testing.T) {
	server := newTestServer(t, stubBackend{err: errors.New("connection refused")})

	status, body := get(t, server.URL+"/health")
	require.Equal(t, http.StatusServiceUnavailable, status)

	var health healthResponse
	require.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, "degraded", health.Status)
	assert.Equal(t, "connection refused", health.Error)
}

func TestRouter_ServesMetricsDocsAndPage(t *testing.T) {
	server := newTestServer(t, stubBackend{})

	status, body := get(t, server.URL+"/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "go_goroutines")

	status, body = get(t, server.URL+"/docs/swagger.yaml")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "openapi")

	status, _ = get(t, server.URL+"/")
	assert.Equal(t, http.StatusOK, status)

	status, _ = get(t, server.URL+"/nope")
	assert.Equal(t, http.StatusNotFound, status)
}
