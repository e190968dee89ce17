// Package domainerrors provides coded errors for the service layer.
//
// Services construct these at the boundary between domain logic and
// callers; transports map codes to status codes without string matching.
// Stores do NOT use this package; they return pkg/platform/sentinel
// errors, which services translate into coded errors.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for callers.
type Code string

const (
	// CodeBadRequest marks a structurally malformed request.
	CodeBadRequest Code = "bad_request"
	// CodeInvalidInput marks a well-formed request with an unacceptable value.
	CodeInvalidInput Code = "invalid_input"
	// CodeValidation marks a failed field-level validation.
	CodeValidation Code = "validation"
	// CodeNotFound marks a missing entity.
	CodeNotFound Code = "not_found"
	// CodeConflict marks a uniqueness or concurrent-update conflict.
	CodeConflict Code = "conflict"
	// CodeUnauthorized marks missing, invalid, or expired credentials.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden marks an authenticated caller lacking permission.
	CodeForbidden Code = "forbidden"
	// CodeInvalidState marks an operation disallowed by the entity's
	// current lifecycle state.
	CodeInvalidState Code = "invalid_state"
	// CodeTenantMismatch marks an operation crossing a tenant boundary.
	CodeTenantMismatch Code = "tenant_mismatch"
	// CodeInvariantViolation marks a broken domain invariant.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeUnavailable marks a transient infrastructure failure; callers
	// may retry. Never conflated with not_found (fail closed).
	CodeUnavailable Code = "unavailable"
	// CodeInternal marks an unexpected failure.
	CodeInternal Code = "internal"
)

// Error carries a code, a caller-safe message, and an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs a coded error with a caller-safe message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a coded error with a formatted caller-safe message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error, preserving the
// chain for errors.Is/As.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether err, or any error in its chain, carries code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.Err
		if err == nil {
			return false
		}
	}
	return false
}

// CodeOf returns the outermost code in err's chain, or CodeInternal when
// err carries no code.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// Is reports whether err matches target or any of extras.
func Is(err, target error, extras ...error) bool {
	if errors.Is(err, target) {
		return true
	}
	for _, e := range extras {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
