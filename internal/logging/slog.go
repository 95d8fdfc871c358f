package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var (
	opLogger atomic.Pointer[slog.Logger]
	logLevel = new(slog.LevelVar)
)

func init() {
	logLevel.Set(slog.LevelInfo)
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	opLogger.Store(slog.New(handler))
}

// Op returns the operational logger shared by the grid components.
func Op() *slog.Logger {
	return opLogger.Load()
}

// New builds a logger writing to w at the shared level.
// format "json" selects the JSON handler, anything else the text handler.
func New(w io.Writer, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: logLevel}
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// SetLogger replaces the operational logger. A nil logger is ignored.
func SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	opLogger.Store(logger)
}

// SetLevel changes the level of the default handler.
func SetLevel(level slog.Level) {
	logLevel.Set(level)
}

// SetLevelFromString sets the log level from a string.
// Valid values: "debug", "info", "warn", "error". Unknown values fall back to info.
func SetLevelFromString(level string) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		logLevel.Set(slog.LevelDebug)
	case "warn", "warning":
		logLevel.Set(slog.LevelWarn)
	case "error":
		logLevel.Set(slog.LevelError)
	default:
		logLevel.Set(slog.LevelInfo)
	}
}

// Level returns the current level of the default handler.
func Level() slog.Level {
	return logLevel.Level()
}

// Or returns logger when it is not nil, otherwise the operational logger.
func Or(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return Op()
}
