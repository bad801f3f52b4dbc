// Package logger is the process-wide structured logger built on log/slog.
//
// Request handlers should log through WithCtx so every line carries the
// request id set by the request-id middleware:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("ticket approved", "ticket_id", id)
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

var L = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

// Setup replaces the base logger: JSON for production, human-readable text otherwise.
func Setup(environment string) *slog.Logger {
	return SetupWriter(os.Stdout, environment)
}

func SetupWriter(w io.Writer, environment string) *slog.Logger {
	var handler slog.Handler
	switch environment {
	case "production", "prod":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	default:
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	L = slog.New(handler)
	slog.SetDefault(L)
	return L
}

type ctxKey struct{}

// WithCtx returns the request-scoped logger stored in ctx, or the base logger.
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
			return log
		}
	}
	return L
}

// Inject stores log in ctx. Called by the request-id middleware.
func Inject(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}
