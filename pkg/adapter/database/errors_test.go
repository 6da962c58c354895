package database

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/damianoneill/user-service/pkg/domain/database"
)

func TestClassifyInit(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}

	tests := []struct {
		name      string
		err       error
		bootstrap bool
		want      database.InitErrorKind
	}{
		{
			name: "invalid password",
			err:  &pgconn.PgError{Code: "28P01"},
			want: database.AuthFailure,
		},
		{
			name: "invalid authorization during bootstrap",
			err:  fmt.Errorf("running bootstrap: %w", &pgconn.PgError{Code: "28000"}),
			want: database.AuthFailure, bootstrap: true,
		},
		{
			name: "missing database",
			err:  &pgconn.PgError{Code: "3D000"},
			want: database.ConnectionRefused,
		},
		{
			name: "dial refused",
			err:  fmt.Errorf("%w: %w", database.ErrUnavailable, refused),
			want: database.ConnectionRefused, bootstrap: true,
		},
		{
			name: "bare errno",
			err:  syscall.ECONNREFUSED,
			want: database.ConnectionRefused,
		},
		{
			name: "acquire timeout",
			err:  fmt.Errorf("%w: %w", database.ErrUnavailable, context.DeadlineExceeded),
			want: database.ConnectionRefused,
		},
		{
			name: "bad ddl",
			err:  &pgconn.PgError{Code: "42601"},
			want: database.SchemaError, bootstrap: true,
		},
		{
			name: "permission denied on ddl",
			err:  &pgconn.PgError{Code: "42501"},
			want: database.SchemaError, bootstrap: true,
		},
		{
			name: "unknown error outside bootstrap",
			err:  errors.New("something"),
			want: database.ConnectionRefused,
		},
		{
			name: "unknown error during bootstrap",
			err:  errors.New("something"),
			want: database.SchemaError, bootstrap: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyInit(tt.err, tt.bootstrap))
		})
	}
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))
	assert.ErrorIs(t, translate(pgx.ErrNoRows), database.ErrNotFound)

	dup := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	err := translate(dup)
	assert.ErrorIs(t, err, database.ErrConstraintViolation)
	assert.ErrorIs(t, err, dup)
	assert.Equal(t, "constraint violation: users_email_key", err.Error())

	unavailable := fmt.Errorf("%w: pool closed", database.ErrUnavailable)
	assert.Same(t, unavailable, translate(unavailable))

	other := &pgconn.PgError{Code: "22001"}
	assert.Same(t, other, translate(other))
}
