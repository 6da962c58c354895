package database

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnavailable means no connection could be obtained: the pool was never
	// initialised, has been closed, or the acquire timed out.
	ErrUnavailable = errors.New("database unavailable")

	// ErrConstraintViolation means a unique key already exists.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrNotFound means the requested row does not exist.
	ErrNotFound = errors.New("record not found")
)

// InitErrorKind classifies why a pool could not be initialised.
type InitErrorKind string

const (
	ConnectionRefused InitErrorKind = "connection_refused"
	AuthFailure       InitErrorKind = "auth_failure"
	SchemaError       InitErrorKind = "schema_error"
)

// InitError is returned by Factory.NewPool. Every kind means the pool is
// unavailable, so InitError matches ErrUnavailable.
type InitError struct {
	Kind InitErrorKind
	Err  error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("database init failed (%s): %v", e.Kind, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

func (e *InitError) Is(target error) bool {
	return target == ErrUnavailable
}

// ErrorType returns the structured error_type value used in logs and in the
// db_errors_total series.
func ErrorType(err error) string {
	var initErr *InitError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &initErr):
		return string(initErr.Kind)
	case errors.Is(err, ErrConstraintViolation):
		return "constraint_violation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "internal"
	}
}
