package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STAFFDASH_CONFIG", "")
	t.Setenv("STAFFDASH_GATEWAY_URL", "")
	t.Setenv("STAFFDASH_PAGE_SIZE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000/api", cfg.GatewayURL)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 100, cfg.PageSize)
	assert.Equal(t, 4, cfg.FanOutLimit)
	assert.Equal(t, 50, cfg.FanOutWarn)
	assert.Equal(t, 30*24*time.Hour, cfg.ExpiryWindow)
	assert.Equal(t, 8585, cfg.ServerPort)
	assert.Equal(t, "admin", cfg.Role)
	assert.Equal(t, "none", cfg.TraceExporter)
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "staffdash.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
gateway:
  url: https://staffing.example.com/api
  timeout: 5s
session:
  role: Worker
  owner_id: w-17
fetch:
  page_size: 25
  expiry_window_days: 14
log:
  level: debug
`), 0o600))

	t.Setenv("STAFFDASH_CONFIG", path)
	t.Setenv("STAFFDASH_PAGE_SIZE", "50")
	t.Setenv("STAFFDASH_ROLE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://staffing.example.com/api", cfg.GatewayURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "worker", cfg.Role)
	assert.Equal(t, "w-17", cfg.OwnerID)
	assert.Equal(t, 50, cfg.PageSize, "environment wins over file")
	assert.Equal(t, 14*24*time.Hour, cfg.ExpiryWindow)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("STAFFDASH_CONFIG", "")
	t.Setenv("STAFFDASH_FANOUT_LIMIT", "zero")
	_, err := Load()
	assert.ErrorContains(t, err, "STAFFDASH_FANOUT_LIMIT")

	t.Setenv("STAFFDASH_FANOUT_LIMIT", "")
	t.Setenv("STAFFDASH_TIMEOUT", "soon")
	_, err = Load()
	assert.ErrorContains(t, err, "STAFFDASH_TIMEOUT")

	t.Setenv("STAFFDASH_TIMEOUT", "")
	t.Setenv("STAFFDASH_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = Load()
	assert.Error(t, err)
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"ERROR":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLogLevel(in), in)
	}
}

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, Logging{Level: slog.LevelInfo, Service: "staffdash"})

	logger.Debug("hidden")
	logger.With("token", "s3cret").Warn("collection fetch failed", "collection", "workers", "Authorization", "Bearer s3cret")

	assert.NotContains(t, stderr.String(), "hidden")
	assert.Contains(t, stderr.String(), "collection=workers")
	assert.Contains(t, file.String(), `"collection":"workers"`)
	assert.Contains(t, file.String(), `"service":"staffdash"`)
	assert.NotContains(t, stderr.String(), "s3cret")
	assert.NotContains(t, file.String(), "s3cret")
	assert.Contains(t, file.String(), `"token":"[redacted]"`)
}

func TestSetupLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "staffdash.log")
	cfg := &Config{LogFile: path, LogLevel: slog.LevelDebug}
	logger, cleanup := SetupLogger(cfg.Logging("staffdash-server"))
	logger.Debug("snapshot published", "generation", 3)
	require.NoError(t, cleanup())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"generation":3`)
	assert.Contains(t, string(data), `"service":"staffdash-server"`)

	_, cleanup = SetupLogger(Logging{Level: slog.LevelInfo})
	assert.NoError(t, cleanup())
}
