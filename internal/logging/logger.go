// Package logging configures log/slog for the server and the CLI and derives
// request- and job-scoped loggers from a context.
//
// Request ids come from chi's RequestID middleware; job ids are attached with
// WithJob so every log line of a migration can be correlated, including the
// background import that outlives its request.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey struct{}

// Setup installs the default logger, writing to stdout.
//
// level: "debug", "info", "warn", "error" (default "info").
// format: "text" or "json" (default "text"). Use json in production.
func Setup(level, format string) {
	slog.SetDefault(New(os.Stdout, level, format))
}

// SetupStderr is Setup for commands whose stdout is their output.
func SetupStderr(level, format string) {
	slog.SetDefault(New(os.Stderr, level, format))
}

// New builds a logger writing to w.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel converts a level name to slog.Level; unknown names are info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// FromContext returns the default logger with the request id and job id
// found in ctx.
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	if jobID, ok := ctx.Value(ctxKey{}).(string); ok {
		logger = logger.With("job_id", jobID)
	}
	return logger
}

// WithFields returns FromContext(ctx) with extra attributes.
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}

// WithJob returns a context whose loggers carry jobID.
func WithJob(ctx context.Context, jobID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, jobID)
}

// ForJob returns a logger tagged with jobID.
func ForJob(ctx context.Context, jobID string) *slog.Logger {
	return FromContext(WithJob(ctx, jobID))
}
