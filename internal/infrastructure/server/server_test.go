package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/WalletShell/backend/internal/infrastructure/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Logging.Level = "error"
	cfg.Reputation.Enabled = false
	cfg.RateLimit.Enabled = false
	cfg.Keychain.Path = ":memory:"
	cfg.Keychain.Secret = "test-secret"
	cfg.Schedule.TokenListRefresh = ""
	return cfg
}

func TestNewServerRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv, err := NewServer(testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var health map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health["status"])

	w = httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/networks", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sessions/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNewServerTriggerAndAccept(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv, err := NewServer(testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	body, err := json.Marshal(map[string]any{"kind": "switch_chain", "chain_id": 10})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/requests", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusAccepted, w.Code)

	var created map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	sessionID := created["session_id"]
	require.NotEmpty(t, sessionID)

	w = httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sessions/"+sessionID, nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestNewServerRejectsBadNetworkFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Networks.File = "/nonexistent/networks.yaml"
	_, err := NewServer(cfg)
	assert.Error(t, err)
}
