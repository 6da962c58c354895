package database

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/damianoneill/user-service/pkg/domain/database"
)

const (
	sqlStateUniqueViolation = "23505"
	sqlStateInvalidDatabase = "3D000"
	sqlStateClassAuth       = "28"
)

// classifyInit maps a failure while opening a pool to an InitErrorKind.
// Failures that are not connection or auth problems count as schema errors
// when they happen during bootstrap.
func classifyInit(err error, bootstrap bool) database.InitErrorKind {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, sqlStateClassAuth):
			return database.AuthFailure
		case pgErr.Code == sqlStateInvalidDatabase:
			return database.ConnectionRefused
		case bootstrap:
			return database.SchemaError
		}
		return database.ConnectionRefused
	}

	var connErr *pgconn.ConnectError
	var netErr net.Error
	switch {
	case errors.As(err, &connErr),
		errors.As(err, &netErr),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, database.ErrUnavailable):
		return database.ConnectionRefused
	case bootstrap:
		return database.SchemaError
	default:
		return database.ConnectionRefused
	}
}

// translate maps driver errors to the domain sentinels. Errors that already
// carry ErrUnavailable pass through unchanged.
func translate(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return database.ErrNotFound
	case errors.As(err, &pgErr) && pgErr.Code == sqlStateUniqueViolation:
		return &constraintError{constraint: pgErr.ConstraintName, err: err}
	default:
		return err
	}
}

type constraintError struct {
	constraint string
	err        error
}

func (e *constraintError) Error() string {
	if e.constraint == "" {
		return database.ErrConstraintViolation.Error()
	}
	return database.ErrConstraintViolation.Error() + ": " + e.constraint
}

func (e *constraintError) Is(target error) bool {
	return target == database.ErrConstraintViolation
}

func (e *constraintError) Unwrap() error {
	return e.err
}
