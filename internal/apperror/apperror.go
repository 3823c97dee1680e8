// Package apperror defines the typed errors every layer of the service speaks.
//
// ERROR KINDS:
// Each AppError wraps exactly one sentinel ("kind"). Inner components create
// and propagate these unchanged; only the HTTP handler layer inspects the kind
// (via errors.Is) to pick a status code. Nothing below the handler knows about
// HTTP.
//
//	ErrNotFound           → referenced row does not exist
//	ErrValidation         → malformed or out-of-range input
//	ErrConflict           → duplicate unique key where merging is wrong
//	ErrForbidden          → authenticated but not the owner
//	ErrUnauthenticated    → no identity supplied
//	ErrCatalogUnavailable → the external game catalog failed or timed out
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("Validation Error")
	ErrConflict           = errors.New("conflict")
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Cause   error  // Optional: lower-level error that triggered this one
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes both the kind and the cause so errors.Is can match either.
func (e *AppError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// NotFoundf is NotFound with a free-form message, for misses that are not
// keyed by a single id ("not following this user").
func NotFoundf(format string, args ...any) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf(format, args...),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Conflictf is Conflict with a free-form message ("already following this user").
func Conflictf(format string, args ...any) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf(format, args...),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthenticated is returned when an operation needs a principal and none was supplied.
func Unauthenticated(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: message,
	}
}

// CatalogUnavailable reports a failed or timed-out call to the external game
// catalog. The underlying transport error is kept as the cause for logging.
func CatalogUnavailable(provider string, cause error) *AppError {
	return &AppError{
		Err:     ErrCatalogUnavailable,
		Message: fmt.Sprintf("game catalog %s is unavailable", provider),
		Cause:   cause,
	}
}

// Kind returns the sentinel an error chain carries, or nil for errors that
// never went through this package (raw store failures, bugs).
func Kind(err error) error {
	for _, kind := range []error{
		ErrNotFound, ErrValidation, ErrConflict, ErrForbidden,
		ErrUnauthenticated, ErrCatalogUnavailable,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
