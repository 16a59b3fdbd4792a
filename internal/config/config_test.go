package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "calcsteps.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_NoFile(t *testing.T) {
	t.Setenv(EnvPath, "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, `
cache_size: 64
max_order: 5
dependent: u
limit:
  epsilon: 0.001
  decimals: 6
log:
  level: debug
  format: json
server:
  transport: http
  addr: 127.0.0.1:9000
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.CacheSize)
	assert.Equal(t, 5, cfg.MaxOrder)
	assert.Equal(t, "u", cfg.Dependent)
	assert.Equal(t, 0.001, cfg.Limit.Epsilon)
	assert.Equal(t, 6, cfg.Limit.Decimals)
	assert.Equal(t, 1e6, cfg.Limit.Surrogate, "unset keys keep defaults")
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "http", cfg.Server.Transport)
}

func TestLoad_PathFromEnv(t *testing.T) {
	t.Setenv(EnvPath, writeFile(t, "cache_size: 8\n"))
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.CacheSize)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "max_order: 5\n")
	t.Setenv("CALCSTEPS_MAX_ORDER", "7")
	t.Setenv("CALCSTEPS_LOG_LEVEL", "WARN")
	t.Setenv("CALCSTEPS_LIMIT_SURROGATE", "1e4")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.MaxOrder)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 1e4, cfg.Limit.Surrogate)
}

func TestApplyEnv_BadNumbers(t *testing.T) {
	env := map[string]string{"CALCSTEPS_CACHE_SIZE": "many", "CALCSTEPS_LIMIT_EPSILON": "tiny"}
	cfg := Default()
	err := applyEnv(&cfg, func(k string) (string, bool) { v, ok := env[k]; return v, ok })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CALCSTEPS_CACHE_SIZE")
	assert.Contains(t, err.Error(), "CALCSTEPS_LIMIT_EPSILON")
}

func TestValidate_Rejects(t *testing.T) {
	cases := map[string]func(*Config){
		"max order":  func(c *Config) { c.MaxOrder = 0 },
		"dependent":  func(c *Config) { c.Dependent = "2y" },
		"epsilon":    func(c *Config) { c.Limit.Epsilon = 0 },
		"log level":  func(c *Config) { c.Log.Level = "loud" },
		"transport":  func(c *Config) { c.Server.Transport = "grpc" },
		"cache size": func(c *Config) { c.CacheSize = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	l := Log{Level: "debug", Format: "json"}.Logger(&buf)
	l.Debug("hello", "k", 1)
	assert.True(t, strings.HasPrefix(buf.String(), "{"))
	assert.Contains(t, buf.String(), `"k":1`)

	buf.Reset()
	l = Log{Level: "warn", Format: "text"}.Logger(&buf)
	l.Info("dropped")
	assert.Empty(t, buf.String())
	assert.Equal(t, slog.LevelWarn, Log{Level: "warn"}.SlogLevel())
}
