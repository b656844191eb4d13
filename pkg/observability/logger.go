// Package observability provides the structured logging, metrics and
// health checking shared by the rota API server, worker and CLI.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// LogFormat selects the log output format.
type LogFormat string

const (
	// LogFormatText is human-readable, for terminals.
	LogFormatText LogFormat = "text"
	// LogFormatJSON is line-delimited JSON, for log shippers.
	LogFormatJSON LogFormat = "json"
)

// LogLevel is the minimum level a record needs to be emitted.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogConfig configures a logger.
type LogConfig struct {
	Level  LogLevel
	Format LogFormat
	// Output defaults to os.Stderr.
	Output io.Writer
	// AddSource attaches the emitting file and line to each record.
	AddSource bool
	// ServiceName and ServiceVersion ride on every record so one log
	// stream can mix processes.
	ServiceName    string
	ServiceVersion string
}

// DefaultLogConfig is the development default: text to stderr.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:       LogLevelInfo,
		Format:      LogFormatText,
		Output:      os.Stderr,
		ServiceName: "rota",
	}
}

// ProductionLogConfig is the production default: JSON to stdout with
// source locations.
func ProductionLogConfig() LogConfig {
	return LogConfig{
		Level:       LogLevelInfo,
		Format:      LogFormatJSON,
		Output:      os.Stdout,
		AddSource:   true,
		ServiceName: "rota",
	}
}

// NewLogger builds a slog.Logger from the config. Every record carries
// the service attributes plus any correlation id, request id and
// authenticated subject found on the context, so one grep by
// correlation id follows a request through the API, the outbox and the
// worker.
func NewLogger(cfg LogConfig) *slog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     slogLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	var inner slog.Handler
	if cfg.Format == LogFormatJSON {
		inner = slog.NewJSONHandler(cfg.Output, opts)
	} else {
		inner = slog.NewTextHandler(cfg.Output, opts)
	}

	var attrs []slog.Attr
	if cfg.ServiceName != "" {
		attrs = append(attrs, slog.String("service", cfg.ServiceName))
	}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, slog.String("version", cfg.ServiceVersion))
	}

	return slog.New(&contextHandler{handler: inner, attrs: attrs})
}

// LoggerFromEnv builds a logger from the environment:
//
//	APP_ENV=production  switches to the production defaults
//	LOG_LEVEL           debug, info, warn, error
//	ROTA_LOG_FORMAT     text, json
//	ROTA_VERSION        stamped on every record
func LoggerFromEnv() *slog.Logger {
	cfg := DefaultLogConfig()
	if os.Getenv("APP_ENV") == "production" {
		cfg = ProductionLogConfig()
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Level = LogLevel(level)
	}
	if format := os.Getenv("ROTA_LOG_FORMAT"); format != "" {
		cfg.Format = LogFormat(format)
	}
	if version := os.Getenv("ROTA_VERSION"); version != "" {
		cfg.ServiceVersion = version
	}

	return NewLogger(cfg)
}

func slogLevel(level LogLevel) slog.Level {
	switch level {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// contextHandler decorates every record with the service attributes and
// whatever identity the context carries.
type contextHandler struct {
	handler slog.Handler
	attrs   []slog.Attr
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(h.attrs...)

	if id := CorrelationIDFromContext(ctx); id != "" {
		r.AddAttrs(slog.String(CorrelationIDKey, id))
	}
	if id := RequestIDFromContext(ctx); id != "" {
		r.AddAttrs(slog.String(RequestIDKey, id))
	}
	if subject := SubjectFromContext(ctx); subject != "" {
		r.AddAttrs(slog.String(SubjectKey, subject))
	}

	return h.handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{handler: h.handler.WithAttrs(attrs), attrs: h.attrs}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{handler: h.handler.WithGroup(name), attrs: h.attrs}
}
