package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	slogmulti "github.com/samber/slog-multi"
)

// Logging says where one staffdash binary logs.
type Logging struct {
	File    string
	Level   slog.Level
	Service string
}

// Logging returns the log settings for service.
func (c *Config) Logging(service string) Logging {
	return Logging{File: c.LogFile, Level: c.LogLevel, Service: service}
}

// redacted lists attribute keys whose values never reach a log.
var redacted = map[string]bool{
	"token":         true,
	"authorization": true,
	"password":      true,
	"secret":        true,
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if redacted[strings.ToLower(a.Key)] {
		return slog.String(a.Key, "[redacted]")
	}
	return a
}

// SetupLogger logs text to stderr and JSON to l.File. The CLI and the server
// share the file, so its records carry the service name and pid.
// An empty File, or one that cannot be opened, logs to stderr only.
func SetupLogger(l Logging) (*slog.Logger, func() error) {
	if l.File == "" {
		return slog.New(textHandler(os.Stderr, l.Level)), func() error { return nil }
	}

	if dir := filepath.Dir(l.File); dir != "." {
		_ = os.MkdirAll(dir, 0o755)
	}
	file, err := os.OpenFile(l.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger := slog.New(textHandler(os.Stderr, l.Level))
		logger.Warn("log file unavailable, logging to stderr only", "file", l.File, "error", err)
		return logger, func() error { return nil }
	}
	return SetupLoggerWithWriters(os.Stderr, file, l), file.Close
}

// SetupLoggerWithWriters is SetupLogger over arbitrary writers.
func SetupLoggerWithWriters(stderr, file io.Writer, l Logging) *slog.Logger {
	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{
		Level:       l.Level,
		ReplaceAttr: redact,
	}).WithAttrs([]slog.Attr{
		slog.String("service", l.Service),
		slog.Int("pid", os.Getpid()),
	})
	return slog.New(slogmulti.Fanout(textHandler(stderr, l.Level), fileHandler))
}

func textHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level, ReplaceAttr: redact})
}
