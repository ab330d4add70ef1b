package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("REDIS_URL", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "localhost:6379", cfg.RedisURL)
	assert.Equal(t, 30, cfg.RateLimitRequests)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.True(t, cfg.EnableMetrics)
	assert.False(t, cfg.PubNubEnabled())
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raffle.yaml")
	err := os.WriteFile(path, []byte(`
environment: production
redis_url: redis://cache:6379/2
rate_limit_requests: 5
rate_limit_window: 10s
pubnub_publish_key: pub
pubnub_subscribe_key: sub
metrics_interval: 1m
`), 0o600)
	require.NoError(t, err)

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("RATE_LIMIT_REQUESTS", "7")
	t.Setenv("ENABLE_METRICS", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "redis://cache:6379/2", cfg.RedisURL)
	assert.Equal(t, 7, cfg.RateLimitRequests)
	assert.Equal(t, 10*time.Second, cfg.RateLimitWindow)
	assert.Equal(t, time.Minute, cfg.MetricsInterval)
	assert.False(t, cfg.EnableMetrics)
	assert.True(t, cfg.PubNubEnabled())
	// Untouched keys keep their defaults.
	assert.Equal(t, "9090", cfg.MetricsPort)
}

func TestLoadConfig_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rate_limit_window: [not a duration"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = LoadConfig()
	assert.Error(t, err)
}

func TestGetEnvHelpers_FallBackOnGarbage(t *testing.T) {
	t.Setenv("X_INT", "twelve")
	t.Setenv("X_BOOL", "maybe")
	t.Setenv("X_DUR", "soon")

	assert.Equal(t, 3, getEnvAsInt("X_INT", 3))
	assert.True(t, getEnvAsBool("X_BOOL", true))
	assert.Equal(t, time.Second, getEnvAsDuration("X_DUR", time.Second))
}

func TestBreakerSettings(t *testing.T) {
	cfg := Default()
	cfg.BreakerMinRequests = 3
	cfg.BreakerTimeout = 5 * time.Second

	s := cfg.BreakerSettings()
	assert.Equal(t, uint32(3), s.MinRequests)
	assert.Equal(t, 5*time.Second, s.Timeout)
	assert.Equal(t, 0.6, s.FailureRatio)
}
