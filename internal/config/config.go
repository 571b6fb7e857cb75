// Package config loads staffdash settings from the environment, an optional
// .env file, and an optional YAML file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration values.
type Config struct {
	// Resource service
	GatewayURL string
	Timeout    time.Duration

	// Session
	Token   string
	UserID  string
	Role    string
	OwnerID string

	// Fetching
	PageSize     int
	FanOutLimit  int
	FanOutWarn   int
	ExpiryWindow time.Duration

	// Server
	ServerPort int

	// Logging and tracing
	LogFile       string
	LogLevel      slog.Level
	TraceExporter string
}

// fileConfig is the YAML file layout. Environment variables override it.
type fileConfig struct {
	Gateway struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"gateway"`
	Session struct {
		Token   string `yaml:"token"`
		UserID  string `yaml:"user_id"`
		Role    string `yaml:"role"`
		OwnerID string `yaml:"owner_id"`
	} `yaml:"session"`
	Fetch struct {
		PageSize         int `yaml:"page_size"`
		FanOutLimit      int `yaml:"fanout_limit"`
		FanOutWarn       int `yaml:"fanout_warn"`
		ExpiryWindowDays int `yaml:"expiry_window_days"`
	} `yaml:"fetch"`
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		File  string `yaml:"file"`
		Level string `yaml:"level"`
	} `yaml:"log"`
	Trace struct {
		Exporter string `yaml:"exporter"`
	} `yaml:"trace"`
}

// Load reads configuration. A .env file in the working directory is loaded
// first if present; STAFFDASH_CONFIG may name a YAML file supplying defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	var fc fileConfig
	if path := os.Getenv("STAFFDASH_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	return fromEnv(fc)
}

func fromEnv(fc fileConfig) (Config, error) {
	timeout, err := time.ParseDuration(getEnv("STAFFDASH_TIMEOUT", or(fc.Gateway.Timeout, "30s")))
	if err != nil {
		return Config{}, fmt.Errorf("STAFFDASH_TIMEOUT: %w", err)
	}

	cfg := Config{
		GatewayURL: getEnv("STAFFDASH_GATEWAY_URL", or(fc.Gateway.URL, "http://localhost:3000/api")),
		Timeout:    timeout,

		Token:   getEnv("STAFFDASH_TOKEN", fc.Session.Token),
		UserID:  getEnv("STAFFDASH_USER_ID", fc.Session.UserID),
		Role:    strings.ToLower(getEnv("STAFFDASH_ROLE", or(fc.Session.Role, "admin"))),
		OwnerID: getEnv("STAFFDASH_OWNER_ID", fc.Session.OwnerID),

		LogFile:       getEnv("STAFFDASH_LOG_FILE", or(fc.Log.File, "/tmp/staffdash.log")),
		LogLevel:      parseLogLevel(getEnv("STAFFDASH_LOG_LEVEL", or(fc.Log.Level, "INFO"))),
		TraceExporter: getEnv("STAFFDASH_TRACE_EXPORTER", or(fc.Trace.Exporter, "none")),
	}

	var expiryDays int
	for _, f := range []struct {
		key string
		dst *int
		def int
	}{
		{"STAFFDASH_PAGE_SIZE", &cfg.PageSize, orInt(fc.Fetch.PageSize, 100)},
		{"STAFFDASH_FANOUT_LIMIT", &cfg.FanOutLimit, orInt(fc.Fetch.FanOutLimit, 4)},
		{"STAFFDASH_FANOUT_WARN", &cfg.FanOutWarn, orInt(fc.Fetch.FanOutWarn, 50)},
		{"STAFFDASH_SERVER_PORT", &cfg.ServerPort, orInt(fc.Server.Port, 8585)},
		{"STAFFDASH_EXPIRY_WINDOW_DAYS", &expiryDays, orInt(fc.Fetch.ExpiryWindowDays, 30)},
	} {
		v, err := getEnvInt(f.key, f.def)
		if err != nil {
			return Config{}, err
		}
		*f.dst = v
	}
	cfg.ExpiryWindow = time.Duration(expiryDays) * 24 * time.Hour
	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, val)
	}
	return n, nil
}

func or(val, fallback string) string {
	if val != "" {
		return val
	}
	return fallback
}

func orInt(val, fallback int) int {
	if val > 0 {
		return val
	}
	return fallback
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
