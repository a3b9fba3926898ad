package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.pilab.hu/hospital/config"
	"go.pilab.hu/hospital/storage"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8000/api", cfg.APIBaseURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "127.0.0.1:3000", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, storage.BackendBolt, cfg.StorageBackend)
	assert.Equal(t, "storage.db", filepath.Base(cfg.BoltPath))
	assert.Equal(t, "hospital", cfg.RedisPrefix)
	assert.True(t, cfg.MetricsEnabled)
	assert.Zero(t, cfg.AnalyticsCacheTTL)
	assert.False(t, cfg.TraceStdout)
	assert.Empty(t, cfg.AuditLog)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("HOSPITAL_API_BASE_URL", "https://readmit.example.com/api/")
	t.Setenv("HOSPITAL_REQUEST_TIMEOUT", "10s")
	t.Setenv("HOSPITAL_STORAGE_BACKEND", "REDIS")
	t.Setenv("HOSPITAL_REDIS_ADDR", "cache:6380")
	t.Setenv("HOSPITAL_ANALYTICS_CACHE_TTL", "1m")

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "https://readmit.example.com/api", cfg.APIBaseURL)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, storage.BackendRedis, cfg.StorageBackend)
	assert.Equal(t, "cache:6380", cfg.RedisAddr)
	assert.Equal(t, time.Minute, cfg.AnalyticsCacheTTL)
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage_backend: memory\nhttp_addr: 127.0.0.1:4000\n"), 0o600))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, storage.BackendMemory, cfg.StorageBackend)
	assert.Equal(t, "127.0.0.1:4000", cfg.HTTPAddr)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("missing explicit file", func(t *testing.T) {
		_, err := config.LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		t.Setenv("HOSPITAL_STORAGE_BACKEND", "sqlite")

		_, err := config.LoadConfig("")
		assert.ErrorIs(t, err, config.ErrUnknownStorageBackend)
	})
}
