package main

import (
	"encoding/json"
	"log/slog"
	"os"
	"strings"
)

// loggingConf is the pass-through logging configuration file the kernel
// resolves for us (default <config-dir>/logging.json). Only the level is
// applied after startup; the handler format is fixed when the process
// starts.
type loggingConf struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

var logLevel = new(slog.LevelVar)

func setupLogger(level, format string) *slog.Logger {
	logLevel.Set(parseLevel(level))

	opts := &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: strings.EqualFold(level, "debug"),
	}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler).With(
		"service", appName,
		"version", version,
		"pid", os.Getpid(),
	)
}

// applyLoggingConf adjusts the log level from the resolved logging config
// file, if one exists. A missing file is not an error.
func applyLoggingConf(path string, logger *slog.Logger) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("logging config unreadable", "path", path, "error", err)
		}
		return
	}
	var lc loggingConf
	if err := json.Unmarshal(data, &lc); err != nil {
		logger.Warn("logging config invalid", "path", path, "error", err)
		return
	}
	if lc.Level != "" {
		logLevel.Set(parseLevel(lc.Level))
		logger.Info("log level applied from logging config", "path", path, "level", lc.Level)
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
