// Package kerrors defines the acquisition core's error taxonomy: typed
// kinds carrying a correlation id, covering the fuller set of failure
// kinds the acquisition core distinguishes (network, validation,
// bot-block, captcha, timeout, and so on).
package kerrors

import (
	"errors"
	"fmt"

	"kirk-crawl/internal/corr"
)

// Kind classifies an error for the purposes of recoverability and
// surfacing.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindRobotsSitemap Kind = "robots_sitemap"
	KindNavigation    Kind = "navigation"
	KindBotBlock      Kind = "bot_block"
	KindCaptcha       Kind = "captcha"
	KindAction        Kind = "action"
	KindLLM           Kind = "llm"
	KindCacheIO       Kind = "cache_io"
	KindManifestIO    Kind = "manifest_io"
	KindProvider      Kind = "provider"
)

// Error is the concrete error type used across the core. It always
// carries a correlation id so every user-facing failure can be traced
// back through logs produced during the same request.
type Error struct {
	Kind          Kind
	Message       string
	CorrelationID string
	Context       map[string]any
	Cause         error
}

func (e *Error) Error() string {
	if e.CorrelationID == "" {
		return e.Message
	}
	return fmt.Sprintf("%s [correlation_id=%s]", e.Message, e.CorrelationID)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error of the given kind, generating a correlation id.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, CorrelationID: newID()}
}

// Wrap builds an Error of the given kind around an existing cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, CorrelationID: newID(), Cause: cause}
}

// WithContext attaches debugging context and returns the same error
// for chaining.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithCorrelationID overrides the auto-generated correlation id, used
// when an error needs to be tagged with a request's existing id.
func (e *Error) WithCorrelationID(id string) *Error {
	if id != "" {
		e.CorrelationID = id
	}
	return e
}

// Is supports errors.Is comparisons against a sentinel Kind-only Error.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind
	}
	return false
}

func newID() string {
	return corr.New()
}
