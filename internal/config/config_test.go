package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 30*time.Second, cfg.Autosave.Interval)
	assert.True(t, cfg.Autosave.Enabled)
	assert.Equal(t, 0, cfg.History.MaxDepth)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
storage:
  driver: file
  dir: /tmp/forms
autosave:
  interval: 10s
history:
  max_depth: 50
observability:
  log_level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.Equal(t, "/tmp/forms", cfg.Storage.Dir)
	assert.Equal(t, 10*time.Second, cfg.Autosave.Interval)
	assert.Equal(t, 50, cfg.History.MaxDepth)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
	// Untouched sections keep their defaults.
	assert.Equal(t, "/metrics", cfg.Observability.Metrics.Path)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults().Server, cfg.Server)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Driver)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unclosed"))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FORMCRAFT_ADDR", ":7070")
	t.Setenv("FORMCRAFT_STORAGE_DRIVER", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("FORMCRAFT_AUTOSAVE_INTERVAL", "5s")
	t.Setenv("FORMCRAFT_TEMPLATES_DIR", "/templates")
	t.Setenv("FORMCRAFT_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "redis", cfg.Storage.Driver)
	assert.Equal(t, "redis:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, 5*time.Second, cfg.Autosave.Interval)
	assert.Equal(t, "/templates", cfg.Templates.Dir)
	assert.Equal(t, "warn", cfg.Observability.LogLevel)
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	cfg := Defaults()
	cfg.Server.Addr = ""
	cfg.Storage.Driver = "s3"
	cfg.Autosave.Interval = 0
	cfg.History.MaxDepth = -1

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "server.addr is required")
	assert.Contains(t, msg, `storage.driver "s3"`)
	assert.Contains(t, msg, "autosave.interval must be positive")
	assert.Contains(t, msg, "history.max_depth must not be negative")
}

func TestValidate_FileDriverNeedsDir(t *testing.T) {
	cfg := Defaults()
	cfg.Storage.Driver = "file"
	cfg.Storage.Dir = ""
	assert.ErrorContains(t, cfg.Validate(), "storage.dir is required")
}
