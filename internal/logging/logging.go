// Package logging wraps the standard library logger with correlation-id
// prefixing, matching the plain log.Printf style the rest of the repo
// uses rather than pulling in a structured logger.
package logging

import (
	"context"
	"log"
	"os"

	"kirk-crawl/internal/corr"
)

// Logger is a minimal correlation-aware wrapper over *log.Logger.
type Logger struct {
	base *log.Logger
}

// Default is the package-level logger, writing to stderr.
var Default = New()

// New creates a Logger writing to stderr with the standard library's
// date/time prefix (log.LstdFlags).
func New() *Logger {
	return &Logger{base: log.New(os.Stderr, "", log.LstdFlags)}
}

// Infof logs an informational message, tagging it with the correlation
// id found in ctx (or a freshly generated one).
func (l *Logger) Infof(ctx context.Context, format string, args ...any) {
	l.logf(ctx, "INFO", format, args...)
}

// Warnf logs a warning-level message.
func (l *Logger) Warnf(ctx context.Context, format string, args ...any) {
	l.logf(ctx, "WARN", format, args...)
}

// Errorf logs an error-level message.
func (l *Logger) Errorf(ctx context.Context, format string, args ...any) {
	l.logf(ctx, "ERROR", format, args...)
}

func (l *Logger) logf(ctx context.Context, level, format string, args ...any) {
	id := corr.FromContext(ctx)
	l.base.Printf("[%s] correlation_id=%s "+format, append([]any{level, id}, args...)...)
}
