package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/sandbag/internal/factory"
)

func env(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(env(nil))
	require.NoError(t, err)

	assert.Equal(t, factory.StorageTypeMemory, cfg.StorageType)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 8, cfg.Retry.MaxAttempts)
	assert.Nil(t, cfg.factoryConfig(nil).RedisConfig)
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := loadConfig(env(map[string]string{
		"STORAGE_TYPE":       "redis",
		"REDIS_URL":          "redis://localhost:6379/1",
		"PORT":               "9090",
		"LOG_LEVEL":          "debug",
		"RETRY_MAX_ATTEMPTS": "3",
	}))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)

	fc := cfg.factoryConfig(nil)
	require.NotNil(t, fc.RedisConfig)
	assert.Equal(t, "redis://localhost:6379/1", fc.RedisConfig.URL)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	tests := map[string]map[string]string{
		"redis without url": {"STORAGE_TYPE": "redis"},
		"bad port":          {"PORT": "http"},
		"bad level":         {"LOG_LEVEL": "loud"},
		"bad retries":       {"RETRY_MAX_ATTEMPTS": "0"},
	}
	for name, values := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := loadConfig(env(values))
			assert.Error(t, err)
		})
	}
}

func TestNewLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	cfg := config{LogLevel: slog.LevelInfo, LogFile: path}

	var stdout bytes.Buffer
	logger, closeLog := cfg.newLogger(&stdout)
	logger.Info("hello", slog.String("k", "v"))
	require.NoError(t, closeLog())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, stdout.String(), `"k":"v"`)
}
