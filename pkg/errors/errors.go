package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios. Review commands rely on this
// taxonomy: none of these are retried and none are swallowed.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrInactiveAccount    = New("ACCOUNT_INACTIVE", http.StatusForbidden, "account is inactive")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")

	// ErrPermissionDenied marks a command the actor lacks capability for.
	// The UI should not have offered the action; the core re-checks anyway.
	ErrPermissionDenied = New("PERMISSION_DENIED", http.StatusForbidden, "permission denied")

	// ErrFieldLocked and ErrDocumentLocked mark manual mutations against
	// KYC-verified records. Surfaced as a "not modifiable" state, never as
	// a transient fault.
	ErrFieldLocked    = New("FIELD_LOCKED", http.StatusConflict, "field is locked by automated verification")
	ErrDocumentLocked = New("DOCUMENT_LOCKED", http.StatusConflict, "document is locked by automated verification")

	// ErrInvalidState marks a transition not permitted from the current
	// status; ErrTerminalState marks any transition out of a terminal one.
	ErrInvalidState  = New("INVALID_STATE", http.StatusConflict, "operation not permitted in current state")
	ErrTerminalState = New("TERMINAL_STATE", http.StatusConflict, "application is in a terminal state")

	// ErrUpstream propagates collaborator failures untouched. Retry policy,
	// if any, belongs to the transport layer.
	ErrUpstream = New("UPSTREAM_FAILURE", http.StatusBadGateway, "upstream collaborator failed")

	// ErrCacheMiss signals a cache read found nothing. Internal only.
	ErrCacheMiss = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Is reports whether err matches the target predefined error by code.
func Is(err error, target *Error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return target != nil && e.Code == target.Code
}
