package main

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mcoot/sandbag/internal/api"
	"github.com/mcoot/sandbag/internal/factory"
	"github.com/mcoot/sandbag/internal/services/retry"
	redisstorage "github.com/mcoot/sandbag/internal/storage/redis"
)

// config is the server configuration read from the environment
type config struct {
	StorageType string
	RedisURL    string
	Port        int
	LogLevel    slog.Level
	LogFile     string
	Retry       retry.Config
}

// loadConfig reads the server configuration through getenv
func loadConfig(getenv func(string) string) (config, error) {
	cfg := config{
		StorageType: getenv("STORAGE_TYPE"),
		RedisURL:    getenv("REDIS_URL"),
		Port:        api.DefaultServerConfig().Port,
		LogLevel:    slog.LevelInfo,
		LogFile:     getenv("LOG_FILE"),
		Retry:       retry.DefaultConfig(),
	}
	if cfg.StorageType == "" {
		cfg.StorageType = factory.StorageTypeMemory
	}
	if cfg.StorageType == factory.StorageTypeRedis && cfg.RedisURL == "" {
		return config{}, fmt.Errorf("REDIS_URL required when STORAGE_TYPE=redis")
	}

	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return config{}, fmt.Errorf("invalid PORT %q", v)
		}
		cfg.Port = port
	}

	if v := getenv("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(strings.ToUpper(v))); err != nil {
			return config{}, fmt.Errorf("invalid LOG_LEVEL %q: %w", v, err)
		}
	}

	if v := getenv("RETRY_MAX_ATTEMPTS"); v != "" {
		attempts, err := strconv.Atoi(v)
		if err != nil || attempts <= 0 {
			return config{}, fmt.Errorf("invalid RETRY_MAX_ATTEMPTS %q", v)
		}
		cfg.Retry.MaxAttempts = attempts
	}

	return cfg, nil
}

// factoryConfig builds the application factory config
func (c config) factoryConfig(logger *slog.Logger) factory.Config {
	fc := factory.Config{
		Logger:      logger,
		StorageType: c.StorageType,
		Retry:       c.Retry,
	}
	if c.StorageType == factory.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = c.RedisURL
		fc.RedisConfig = &redisCfg
	}
	return fc
}

// newLogger builds the JSON logger, teeing into a rotating file when
// LOG_FILE is set. The returned func closes the file.
func (c config) newLogger(stdout io.Writer) (*slog.Logger, func() error) {
	var out io.Writer = stdout
	closer := func() error { return nil }
	if c.LogFile != "" {
		file := &lumberjack.Logger{
			Filename:   c.LogFile,
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     14,
		}
		out = io.MultiWriter(stdout, file)
		closer = file.Close
	}
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: c.LogLevel})), closer
}
