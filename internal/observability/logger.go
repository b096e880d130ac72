// Package observability wires structured logging, Prometheus metrics and
// HTTP middleware.
package observability

import (
	"context"
	"io"
	"log/slog"

	"github.com/hpkotak/sqlbud/internal/config"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

// NewLogger builds the process logger from the general config section.
// Logging is off unless enable_logging is set.
func NewLogger(cfg config.General, writer io.Writer) *slog.Logger {
	if writer == nil || !cfg.EnableLogging {
		writer = io.Discard
	}
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.LogJSON {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}
	return slog.New(handler).With(slog.String("service", "sqlbud"))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) string {
	value, ok := ctx.Value(requestIDKey).(string)
	if !ok {
		return ""
	}
	return value
}
