// Package database defines the connection pool contract used by the
// lifecycle manager, the readiness probe and the user repository.
//
// A Pool hands out at most MaxConns handles at a time. Every handle must be
// released exactly once, on every exit path of the operation that acquired
// it; WithConn is the preferred way to get that guarantee.
package database

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/damianoneill/user-service/pkg/domain/options"
)

//go:generate mockgen -destination=mocks/mock_database.go -package=mocks github.com/damianoneill/user-service/pkg/domain/database Pool,Factory

// Conn is the query surface of a single pooled connection.
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Handle is an acquired connection. Release returns it to the pool and is
// safe to call more than once.
type Handle interface {
	Conn
	Release()
}

// ConnFunc is an operation scoped to one acquired connection.
type ConnFunc func(ctx context.Context, conn Conn) error

// Runner executes an operation on a pooled connection. Both Pool and the
// lifecycle manager satisfy it.
type Runner interface {
	WithConn(ctx context.Context, fn ConnFunc) error
}

// Stats is a point-in-time view of pool usage.
type Stats struct {
	// Outstanding is the number of handles currently held by callers.
	Outstanding int64
	// Idle is the number of open connections not in use.
	Idle int32
	// Total is the number of open connections.
	Total int32
	// Max is the configured upper bound on connections.
	Max int32
}

// Pool is a bounded set of reusable connections.
type Pool interface {
	Runner

	// Acquire blocks until a connection is free, the acquire timeout passes
	// or ctx is done. Errors satisfy errors.Is(err, ErrUnavailable).
	Acquire(ctx context.Context) (Handle, error)

	// Ping performs a trivial round-trip query.
	Ping(ctx context.Context) error

	// Stats reports current usage.
	Stats() Stats

	// Close drains in-flight handles and closes every connection. Calling
	// Close more than once is a no-op.
	Close(ctx context.Context) error
}

// Factory opens pools. NewPool also runs the configured bootstrap
// statements, so a returned pool always has its schema in place.
type Factory interface {
	NewPool(ctx context.Context, opts ...Option) (Pool, error)
}

// Options configures a pool.
type Options struct {
	// URL is a complete connection string. When set it takes precedence over
	// the individual endpoint fields.
	URL string

	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string

	// MinConns is the number of connections kept open when idle.
	MinConns int32
	// MaxConns bounds concurrent handles; it is also the acquire budget.
	MaxConns int32

	// AcquireTimeout bounds how long Acquire waits for a free connection.
	AcquireTimeout time.Duration
	// ConnectTimeout bounds establishing a single connection.
	ConnectTimeout time.Duration

	// Bootstrap statements run once after the pool opens. They must be
	// idempotent.
	Bootstrap []string
}

// Option modifies Options.
type Option = options.Option[Options]

// DefaultOptions returns the pool defaults.
func DefaultOptions() Options {
	return Options{
		Host:           "localhost",
		Port:           5432,
		User:           "postgres",
		Password:       "postgres",
		Name:           "user_service",
		SSLMode:        "disable",
		MinConns:       5,
		MaxConns:       20,
		AcquireTimeout: 5 * time.Second,
		ConnectTimeout: 5 * time.Second,
	}
}

// Validate checks pool bounds and timeouts.
func (o Options) Validate() error {
	if o.MaxConns < 1 {
		return fmt.Errorf("max connections must be at least 1, got %d", o.MaxConns)
	}
	if o.MinConns < 0 || o.MinConns > o.MaxConns {
		return fmt.Errorf("min connections must be between 0 and %d, got %d", o.MaxConns, o.MinConns)
	}
	if o.AcquireTimeout <= 0 {
		return fmt.Errorf("acquire timeout must be positive")
	}
	if o.URL == "" && o.Host == "" {
		return fmt.Errorf("database url or host is required")
	}
	return nil
}

// ConnString returns URL if set, otherwise a postgres:// URL assembled from
// the endpoint fields.
func (o Options) ConnString() string {
	if o.URL != "" {
		return o.URL
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(o.User, o.Password),
		Host:   o.Host + ":" + strconv.Itoa(o.Port),
		Path:   "/" + o.Name,
	}
	if o.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": []string{o.SSLMode}}.Encode()
	}
	return u.String()
}

// WithURL sets a complete connection string.
func WithURL(connString string) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.URL = connString
		return nil
	})
}

// WithEndpoint sets the database host and port.
func WithEndpoint(host string, port int) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		if port <= 0 || port > 65535 {
			return fmt.Errorf("invalid database port: %d", port)
		}
		o.Host = host
		o.Port = port
		return nil
	})
}

// WithCredentials sets the user and password.
func WithCredentials(user, password string) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.User = user
		o.Password = password
		return nil
	})
}

// WithDatabaseName sets the database to connect to.
func WithDatabaseName(name string) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.Name = name
		return nil
	})
}

// WithSSLMode sets the libpq sslmode parameter.
func WithSSLMode(mode string) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.SSLMode = mode
		return nil
	})
}

// WithPoolSize sets the minimum and maximum number of connections.
func WithPoolSize(minConns, maxConns int32) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.MinConns = minConns
		o.MaxConns = maxConns
		return nil
	})
}

// WithAcquireTimeout bounds how long Acquire may wait.
func WithAcquireTimeout(d time.Duration) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.AcquireTimeout = d
		return nil
	})
}

// WithConnectTimeout bounds establishing a single connection.
func WithConnectTimeout(d time.Duration) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.ConnectTimeout = d
		return nil
	})
}

// WithBootstrap appends idempotent statements run when the pool opens.
func WithBootstrap(statements ...string) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.Bootstrap = append(o.Bootstrap, statements...)
		return nil
	})
}
