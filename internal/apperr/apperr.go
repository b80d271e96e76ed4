// Package apperr defines the error kinds surfaced by the request-dispatch
// engine, so handlers can switch on kind instead of matching error strings.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the purpose of HTTP/SSE surfacing policy.
type Kind string

const (
	InvalidInput       Kind = "INVALID_INPUT"
	Unauthenticated    Kind = "UNAUTHENTICATED"
	PathEscape         Kind = "PATH_ESCAPE"
	ProviderTimeout    Kind = "PROVIDER_TIMEOUT"
	ProviderRejected   Kind = "PROVIDER_REJECTED"
	VectorBackendError Kind = "VECTOR_BACKEND_ERROR"
	StepCapExceeded    Kind = "STEP_CAP_EXCEEDED"
	StoreError         Kind = "STORE_ERROR"
)

// Error wraps an underlying error with a Kind so callers can recover the
// classification with errors.As without inspecting message text.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error with no underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a Kind to an existing error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf recovers the Kind of err if it (or something it wraps) is an *Error.
// Unrecognised errors report an empty Kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
