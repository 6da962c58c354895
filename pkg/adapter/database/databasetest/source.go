// Package databasetest provides an in-memory Source holding a users table,
// for tests that exercise the pool manager and repository without
// PostgreSQL.
package databasetest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	adapterdb "github.com/damianoneill/user-service/pkg/adapter/database"
	"github.com/damianoneill/user-service/pkg/domain/users"
)

// ErrRefused is returned by Acquire while the source is down.
var ErrRefused = &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}

// Source is a fake connection supplier. The zero value is not usable; call
// NewSource.
type Source struct {
	mu          sync.Mutex
	users       []users.User
	nextID      int64
	down        bool
	queryErr    error
	execErr     error
	outstanding int64
	acquired    int64
	doubles     int64
	closed      bool
	now         func() time.Time
}

var _ adapterdb.Source = (*Source)(nil)

func NewSource() *Source {
	return &Source{
		nextID: 1,
		now:    func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) },
	}
}

// SetDown makes Acquire fail with ErrRefused.
func (s *Source) SetDown(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down = down
}

// FailQueries makes every statement other than DDL fail with err. A nil err
// restores normal behaviour.
func (s *Source) FailQueries(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queryErr = err
}

// FailExec makes Exec fail with err, including SELECT 1 and DDL.
func (s *Source) FailExec(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.execErr = err
}

// Outstanding returns the number of leases not yet released.
func (s *Source) Outstanding() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outstanding
}

// Acquired returns the total number of successful acquires.
func (s *Source) Acquired() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acquired
}

// DoubleReleases counts leases released more than once.
func (s *Source) DoubleReleases() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doubles
}

func (s *Source) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Users returns a copy of the table.
func (s *Source) Users() []users.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]users.User(nil), s.users...)
}

func (s *Source) Acquire(ctx context.Context) (adapterdb.Lease, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.closed:
		return nil, errors.New("source closed")
	case s.down:
		return nil, ErrRefused
	}
	s.outstanding++
	s.acquired++
	return &conn{src: s}, nil
}

func (s *Source) Stat() adapterdb.SourceStat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return adapterdb.SourceStat{Total: int32(s.outstanding) + 1, Idle: 1}
}

func (s *Source) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

type conn struct {
	src      *Source
	released bool
}

func (c *conn) Release() {
	c.src.mu.Lock()
	defer c.src.mu.Unlock()
	if c.released {
		c.src.doubles++
		return
	}
	c.released = true
	c.src.outstanding--
}

func (c *conn) Exec(ctx context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	if err := ctx.Err(); err != nil {
		return pgconn.CommandTag{}, err
	}

	c.src.mu.Lock()
	defer c.src.mu.Unlock()
	if c.src.execErr != nil {
		return pgconn.CommandTag{}, c.src.execErr
	}

	switch stmt := normalize(sql); {
	case stmt == "SELECT 1":
		return pgconn.NewCommandTag("SELECT 1"), nil
	case strings.HasPrefix(stmt, "CREATE TABLE"):
		return pgconn.NewCommandTag("CREATE TABLE"), nil
	default:
		return pgconn.CommandTag{}, syntaxError(sql)
	}
}

func (c *conn) Query(ctx context.Context, sql string, _ ...any) (pgx.Rows, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.src.mu.Lock()
	defer c.src.mu.Unlock()
	if c.src.queryErr != nil {
		return nil, c.src.queryErr
	}

	if !strings.HasPrefix(normalize(sql), "SELECT ID, USERNAME, EMAIL, CREATED_AT FROM USERS ORDER BY ID") {
		return nil, syntaxError(sql)
	}

	vals := make([][]any, 0, len(c.src.users))
	for _, u := range c.src.users {
		vals = append(vals, userValues(u))
	}
	return &rows{vals: vals, idx: -1}, nil
}

func (c *conn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if err := ctx.Err(); err != nil {
		return &row{err: err}
	}

	c.src.mu.Lock()
	defer c.src.mu.Unlock()
	if c.src.queryErr != nil {
		return &row{err: c.src.queryErr}
	}

	stmt := normalize(sql)
	switch {
	case strings.HasPrefix(stmt, "INSERT INTO USERS") && len(args) == 2:
		return c.insert(fmt.Sprint(args[0]), fmt.Sprint(args[1]))
	case strings.HasPrefix(stmt, "SELECT ID, USERNAME, EMAIL, CREATED_AT FROM USERS WHERE ID") && len(args) == 1:
		id, ok := args[0].(int64)
		if !ok {
			return &row{err: fmt.Errorf("unexpected id type %T", args[0])}
		}
		for _, u := range c.src.users {
			if u.ID == id {
				return &row{vals: userValues(u)}
			}
		}
		return &row{err: pgx.ErrNoRows}
	default:
		return &row{err: syntaxError(sql)}
	}
}

// insert must be called with src.mu held.
func (c *conn) insert(username, email string) pgx.Row {
	for _, u := range c.src.users {
		switch {
		case u.Username == username:
			return &row{err: uniqueViolation("users_username_key")}
		case u.Email == email:
			return &row{err: uniqueViolation("users_email_key")}
		}
	}

	u := users.User{ID: c.src.nextID, Username: username, Email: email, CreatedAt: c.src.now()}
	c.src.nextID++
	c.src.users = append(c.src.users, u)
	return &row{vals: userValues(u)}
}

func userValues(u users.User) []any {
	return []any{u.ID, u.Username, u.Email, u.CreatedAt}
}

func normalize(sql string) string {
	return strings.ToUpper(strings.Join(strings.Fields(sql), " "))
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{
		Severity:       "ERROR",
		Code:           "23505",
		Message:        "duplicate key value violates unique constraint",
		ConstraintName: constraint,
	}
}

func syntaxError(sql string) error {
	return &pgconn.PgError{Severity: "ERROR", Code: "42601", Message: "syntax error in " + sql}
}
