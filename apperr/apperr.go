// Package apperr defines the error taxonomy shared by repositories,
// services and the HTTP layer. Errors carry a Kind that the gateway maps
// to a response status; causes are wrapped and inspectable with errors.Is.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for propagation and retry policy.
type Kind int

const (
	// KindInvalidArgument covers missing/empty queries, non-positive
	// pagination bounds and malformed identifiers. Not retryable.
	KindInvalidArgument Kind = iota + 1
	// KindNotFound covers absent tracks, users or asset references.
	KindNotFound
	// KindUnauthorized covers scoped operations the caller may not perform.
	KindUnauthorized
	// KindTransientStore covers connection, timeout and pool-exhaustion
	// failures. Safe for the caller to retry with backoff.
	KindTransientStore
	// KindInconsistent marks a derived read disagreeing with its backing
	// event log. Logged for reconciliation, never surfaced as a hard failure.
	KindInconsistent
)

// Error is a classified application error.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error without a cause.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf creates a classified error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies an existing error, keeping it inspectable via Unwrap.
func Wrap(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the Kind of err, or 0 if err carries no classification.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsKind reports whether err carries the given Kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error to the response status the gateway should send.
// Unclassified errors map to 500.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalidArgument:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindTransientStore:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
