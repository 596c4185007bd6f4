package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

type ctxKey string

const correlationIDKey ctxKey = "correlationID"

// NewCorrelationID creates a new UUID used to correlate a command invocation
// with its eventual OAuth callback and log lines.
func NewCorrelationID() string {
	return uuid.NewString()
}

// WithCorrelationID returns a new context containing the correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationIDFromContext extracts the correlation ID from the context, if present.
func CorrelationIDFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(correlationIDKey)
	if v == nil {
		return "", false
	}
	if id, ok := v.(string); ok {
		return id, true
	}
	return "", false
}

// FromContext returns a logger that includes the correlation_id attribute when present.
func FromContext(ctx context.Context) *slog.Logger {
	if id, ok := CorrelationIDFromContext(ctx); ok {
		return slog.Default().With(AttrKeyCorrelationID, id)
	}
	return slog.Default()
}

// Init configures the process-wide default slog logger from config.
func Init(cfg Config) {
	InitWithWriter(cfg, os.Stdout)
}

// InitWithWriter configures the default logger writing to w. Used by tests to
// capture output.
func InitWithWriter(cfg Config, w io.Writer) {
	opts := &slog.HandlerOptions{
		Level:     cfg.LogLevel(),
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	if cfg.IsJSON() {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler.WithAttrs(cfg.BaseAttributes()))
	slog.SetDefault(logger)
}
