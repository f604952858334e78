package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, defaultPort, cfg.HTTP.Port)
	assert.Equal(t, ":5000", cfg.Addr())
	assert.Equal(t, defaultRequestTimeout, cfg.HTTP.RequestTimeout)
	assert.Equal(t, []string{"*"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, defaultReaperInterval, cfg.Reaper.Interval)
	assert.Equal(t, defaultInactivityTimeout, cfg.Reaper.InactivityTimeout)
	assert.Equal(t, defaultSweepTimeout, cfg.Reaper.SweepTimeout)
	assert.Equal(t, defaultExchange, cfg.AMQP.Exchange)
	assert.Empty(t, cfg.AMQP.URL)
	assert.Equal(t, defaultLogLevel, cfg.LogLevel)
}

func TestLoadWithFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
log_level: "debug"
http:
  port: 7000
  request_timeout: "3s"
storage:
  driver: "badger"
  badger_path: "/tmp/chat"
reaper:
  interval: "30s"
  inactivity_timeout: "20s"
`), 0o644))

	t.Setenv("CHAT_HTTP_PORT", "6000")
	t.Setenv("CHAT_REAPER_INACTIVITY_TIMEOUT", "45s")

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 6000, cfg.HTTP.Port)
	assert.Equal(t, 3*time.Second, cfg.HTTP.RequestTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, DriverBadger, cfg.Storage.Driver)
	assert.Equal(t, "/tmp/chat", cfg.Storage.BadgerPath)
	assert.Equal(t, 30*time.Second, cfg.Reaper.Interval)
	assert.Equal(t, 45*time.Second, cfg.Reaper.InactivityTimeout)
}

func TestLoadFallbackVariables(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://other/db")
	t.Setenv("PORT", "8081")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://other/db", cfg.Storage.DSN)
	assert.Equal(t, 8081, cfg.HTTP.Port)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("CHAT_STORAGE_DRIVER", "mongo")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage.driver")
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	err := Config{Storage: StorageConfig{Driver: DriverBadger}}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http.port")
	assert.Contains(t, err.Error(), "storage.badger_path")
	assert.Contains(t, err.Error(), "reaper.interval")
	assert.Contains(t, err.Error(), "reaper.inactivity_timeout")
}
