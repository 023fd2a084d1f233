// Package apperror defines the error type carried from services to the HTTP layer.
package apperror

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// FieldError describes one failed validation rule.
type FieldError struct {
	Field   string `json:"campo"`
	Message string `json:"mensagem"`
}

// Error is an error with an HTTP status and a client-facing message.
type Error struct {
	Status  int
	Message string
	Details []FieldError
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Wrap returns a copy of e that records cause.
func (e *Error) Wrap(cause error) *Error {
	out := *e
	out.Cause = cause
	return &out
}

// New creates an error with the given status and message.
func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

func BadRequest(message string) *Error   { return New(http.StatusBadRequest, message) }
func Unauthorized(message string) *Error { return New(http.StatusUnauthorized, message) }
func Forbidden(message string) *Error    { return New(http.StatusForbidden, message) }
func NotFound(message string) *Error     { return New(http.StatusNotFound, message) }
func Unavailable(message string) *Error  { return New(http.StatusServiceUnavailable, message) }

// Conflict reports a uniqueness or state violation. It is rendered as 400.
func Conflict(message string) *Error { return New(http.StatusBadRequest, message) }

// Internal creates a 500 error. The cause is logged, never rendered.
func Internal(message string, cause error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: message, Cause: cause}
}

// Validation creates a 400 error listing every failed field.
func Validation(details []FieldError) *Error {
	return &Error{Status: http.StatusBadRequest, Message: "validation failed", Details: details}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// StatusOf returns the HTTP status for err, 500 when it is not an *Error.
func StatusOf(err error) int {
	if e, ok := As(err); ok {
		return e.Status
	}
	return http.StatusInternalServerError
}

// Rule maps a backend message fragment to a client error.
// An empty Message forwards the backend message unchanged.
type Rule struct {
	Match   string
	Status  int
	Message string
}

// Classify turns a backend error into an *Error using the first rule whose
// Match is contained (case-insensitively) in the backend message.
// Unmatched errors become a 500 with the fallback message.
func Classify(err error, rules []Rule, fallback string) error {
	if err == nil {
		return nil
	}
	if e, ok := As(err); ok {
		return e
	}
	msg := BackendMessage(err)
	lower := strings.ToLower(msg)
	for _, r := range rules {
		if strings.Contains(lower, strings.ToLower(r.Match)) {
			out := r.Message
			if out == "" {
				out = msg
			}
			return &Error{Status: r.Status, Message: out, Cause: err}
		}
	}
	return Internal(fallback, err)
}

// BackendMessage returns the message raised by a stored procedure, or err.Error().
func BackendMessage(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Message
	}
	return err.Error()
}
