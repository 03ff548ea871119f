package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Server config
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	// Admission timers
	assert.Equal(t, 500*time.Millisecond, cfg.Admission.PushSyncDelay)
	assert.Equal(t, 300*time.Millisecond, cfg.Admission.CallbackDelay)

	// Deeplink routing is production by default
	assert.False(t, cfg.Deeplink.TestMode)
	assert.Equal(t, 10*time.Second, cfg.Deeplink.DedupTTL)

	// Reputation is on, fail-open, never auto-rejecting
	assert.True(t, cfg.Reputation.Enabled)
	assert.False(t, cfg.Reputation.AutoReject)

	assert.Equal(t, "mainnet", cfg.Networks.DefaultNetwork)
	assert.Equal(t, 10*time.Second, cfg.Schedule.ExplorerReloadDelay)
}

// Load must agree with Default when the environment is empty.
func TestLoadMatchesDefault(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":                   "9000",
		"HOST":                   "127.0.0.1",
		"CORS_ORIGINS":           "http://localhost:3000,ws://localhost:3000",
		"LOG_LEVEL":              "debug",
		"LOG_DEV":                "true",
		"RATE_LIMIT_RPS":         "500",
		"RATE_LIMIT_BURST":       "1000",
		"RATE_LIMIT_ENABLED":     "false",
		"PUSH_SYNC_DELAY":        "750ms",
		"CALLBACK_DELAY":         "1s",
		"DEEPLINK_TEST_MODE":     "true",
		"REPUTATION_AUTO_REJECT": "true",
		"REPUTATION_LIST_URL":    "http://scams.local/list",
		"NETWORKS_FILE":          "/etc/walletshell/networks.yaml",
		"DEFAULT_NETWORK":        "optimism",
		"TOKEN_LIST_REFRESH":     "@every 5m",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, []string{"http://localhost:3000", "ws://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, 500, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 1000, cfg.RateLimit.Burst)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 750*time.Millisecond, cfg.Admission.PushSyncDelay)
	assert.Equal(t, time.Second, cfg.Admission.CallbackDelay)
	assert.True(t, cfg.Deeplink.TestMode)
	assert.True(t, cfg.Reputation.AutoReject)
	assert.Equal(t, "http://scams.local/list", cfg.Reputation.ListURL)
	assert.Equal(t, "/etc/walletshell/networks.yaml", cfg.Networks.File)
	assert.Equal(t, "optimism", cfg.Networks.DefaultNetwork)
	assert.Equal(t, "@every 5m", cfg.Schedule.TokenListRefresh)
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("CALLBACK_DELAY", "soon")

	_, err := Load()
	assert.Error(t, err)

	cfg := LoadOrDefault()
	assert.Equal(t, 300*time.Millisecond, cfg.Admission.CallbackDelay)
}
