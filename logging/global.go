package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/giygas/chargemaster-api/config"
)

type LoggingService struct {
	Logger *slog.Logger
	file   *RotatingLogger
}

// Close releases the log file, if any
func (s *LoggingService) Close() error {
	if s == nil || s.file == nil {
		return nil
	}
	return s.file.Close()
}

// Options configures the global logger
type Options struct {
	LogDir         string
	Env            config.Environment
	LogLevel       string
	Verbose        bool
	RetentionWeeks int
	MaxFileSize    int64
}

var (
	DefaultLoggingService *LoggingService
	initMu                sync.Mutex
)

// InitLogger initializes the global logger with development defaults. An
// empty logDir logs to the console only.
func InitLogger(logDir string) {
	InitLoggerWithOptions(Options{
		LogDir:         logDir,
		Env:            config.EnvDevelopment,
		RetentionWeeks: 4,
		MaxFileSize:    defaultMaxFileSize,
	})
}

// InitLoggerWithConfig initializes the global logger from the app configuration
func InitLoggerWithConfig(cfg *config.Config) {
	InitLoggerWithOptions(Options{
		LogDir:         cfg.LogDir,
		Env:            cfg.Env,
		LogLevel:       cfg.LogLevel,
		RetentionWeeks: cfg.LogRetentionWeeks,
		MaxFileSize:    cfg.MaxLogFileSize,
	})
}

// InitLoggerWithOptions replaces the global logger, closing the previous log file
func InitLoggerWithOptions(opts Options) {
	initMu.Lock()
	defer initMu.Unlock()

	previous := DefaultLoggingService
	DefaultLoggingService = newLoggingService(opts)
	slog.SetDefault(DefaultLoggingService.Logger)

	if previous != nil {
		_ = previous.Close()
	}
}

// ResetForTest installs a logger writing to logDir and restores console only
// logging when the test ends
func ResetForTest(t testing.TB, logDir string, env config.Environment, logLevel string, retentionWeeks int, maxFileSize int64) {
	t.Helper()

	InitLoggerWithOptions(Options{
		LogDir:         logDir,
		Env:            env,
		LogLevel:       logLevel,
		Verbose:        testing.Verbose(),
		RetentionWeeks: retentionWeeks,
		MaxFileSize:    maxFileSize,
	})

	t.Cleanup(func() {
		InitLoggerWithOptions(Options{Env: config.EnvTest})
	})
}

func newLoggingService(opts Options) *LoggingService {
	console := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: GetConsoleLogLevel(opts.Env, opts.LogLevel, opts.Verbose),
	})

	if opts.LogDir == "" {
		return &LoggingService{Logger: slog.New(console)}
	}

	file := NewRotatingLoggerWithSizeLimit(opts.LogDir, max(opts.RetentionWeeks, 1), opts.MaxFileSize)
	if err := file.Open(); err != nil {
		logger := slog.New(console)
		logger.Error("Failed to open log file, logging to console only", "dir", opts.LogDir, "error", err)
		return &LoggingService{Logger: logger}
	}
	file.StartCleanup()

	// console gets text, the file gets JSON for parsing
	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{
		Level: GetFileLogLevel(),
	})

	return &LoggingService{
		Logger: slog.New(&multiHandler{handlers: []slog.Handler{console, fileHandler}}),
		file:   file,
	}
}

// parseLogLevel maps a LOG_LEVEL value to a slog level, defaulting to info
func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetConsoleLogLevel picks the console level. Tests stay quiet unless run
// verbose and ignore LOG_LEVEL; elsewhere LOG_LEVEL wins over the per
// environment default.
func GetConsoleLogLevel(env config.Environment, logLevel string, verbose bool) slog.Level {
	if env == config.EnvTest {
		if verbose {
			return slog.LevelInfo
		}
		return slog.LevelError
	}

	if logLevel != "" {
		return parseLogLevel(logLevel)
	}

	switch env {
	case config.EnvProduction, config.EnvStaging:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// GetFileLogLevel is the level of the file handler; files keep everything
func GetFileLogLevel() slog.Level {
	return slog.LevelDebug
}

// Package-level functions for direct access

func logger(fallbackLevel slog.Level) *slog.Logger {
	if s := DefaultLoggingService; s != nil && s.Logger != nil {
		return s.Logger
	}
	// Fallback to console logger if not initialized
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: fallbackLevel}))
}

func Info(msg string, args ...any) {
	logger(slog.LevelInfo).Info(msg, args...)
}

func Error(msg string, args ...any) {
	logger(slog.LevelError).Error(msg, args...)
}

func Warn(msg string, args ...any) {
	logger(slog.LevelWarn).Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	logger(slog.LevelDebug).Debug(msg, args...)
}

// multiHandler fans a record out to several handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}
