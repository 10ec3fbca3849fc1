package logging

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// InitLogger initializes the structured logger on stdout based on environment configuration
func InitLogger() {
	InitLoggerTo(os.Stdout)
}

// InitLoggerTo is InitLogger writing to w. The console client logs to stderr
// so that stdout carries only the display.
//
// When LOG_FILE is set, logs are also written to that file with rotation
// (LOG_FILE_MAX_MB, LOG_FILE_MAX_BACKUPS, LOG_FILE_MAX_AGE_DAYS).
func InitLoggerTo(w io.Writer) {
	if file := fileWriter(); file != nil {
		w = io.MultiWriter(w, file)
	}
	slog.SetDefault(NewLogger(w))

	slog.Info("logger initialized",
		"level", getLogLevel().String(),
		"format", getLogFormat(),
	)
}

// NewLogger builds a logger for w from LOG_LEVEL and LOG_FORMAT.
func NewLogger(w io.Writer) *slog.Logger {
	logLevel := getLogLevel()
	logFormat := getLogFormat()

	var handler slog.Handler

	handlerOpts := &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: true, // Include file and line number
	}

	switch logFormat {
	case "json":
		handler = slog.NewJSONHandler(w, handlerOpts)
	default:
		handler = slog.NewTextHandler(w, handlerOpts)
	}

	return slog.New(handler)
}

// getLogLevel reads the LOG_LEVEL environment variable and returns the corresponding slog.Level
func getLogLevel() slog.Level {
	levelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// getLogFormat reads the LOG_FORMAT environment variable and returns the format
func getLogFormat() string {
	format := strings.ToLower(os.Getenv("LOG_FORMAT"))
	switch format {
	case "json":
		return "json"
	case "text", "":
		return "text"
	default:
		return "text"
	}
}

// fileWriter returns a rotating file writer for LOG_FILE, or nil if unset.
func fileWriter() *lumberjack.Logger {
	path := os.Getenv("LOG_FILE")
	if path == "" {
		return nil
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    getEnvInt("LOG_FILE_MAX_MB", 10),
		MaxBackups: getEnvInt("LOG_FILE_MAX_BACKUPS", 3),
		MaxAge:     getEnvInt("LOG_FILE_MAX_AGE_DAYS", 28),
	}
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return defaultValue
}
