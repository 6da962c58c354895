package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/damianoneill/user-service/pkg/domain/database"
	"github.com/damianoneill/user-service/pkg/domain/options"
)

// Factory opens pgx-backed pools.
type Factory struct{}

var _ database.Factory = (*Factory)(nil)

func NewFactory() *Factory {
	return &Factory{}
}

// NewPool builds a pgxpool from opts, verifies it with a round trip and runs
// the bootstrap statements. Every failure is a *database.InitError and leaves
// no pool behind.
func (f *Factory) NewPool(ctx context.Context, opts ...database.Option) (database.Pool, error) {
	o, err := options.Build(database.DefaultOptions(), opts...)
	if err != nil {
		return nil, fmt.Errorf("applying option: %w", err)
	}
	if err := o.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pool options: %w", err)
	}

	cfg, err := pgxpool.ParseConfig(o.ConnString())
	if err != nil {
		return nil, &database.InitError{Kind: database.ConnectionRefused, Err: fmt.Errorf("parsing connection string: %w", err)}
	}
	cfg.MinConns = o.MinConns
	cfg.MaxConns = o.MaxConns
	if o.ConnectTimeout > 0 {
		cfg.ConnConfig.ConnectTimeout = o.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, &database.InitError{Kind: classifyInit(err, false), Err: fmt.Errorf("creating pool: %w", err)}
	}

	return Open(ctx, NewPgxSource(pool), o)
}

// Open wraps src in a Manager, checks connectivity and runs o.Bootstrap
// through the manager's own acquire path.
func Open(ctx context.Context, src Source, o database.Options) (*Manager, error) {
	m := NewManager(src, o)

	if err := m.Ping(ctx); err != nil {
		m.abort()
		return nil, &database.InitError{Kind: classifyInit(err, false), Err: err}
	}

	for _, stmt := range o.Bootstrap {
		err := m.WithConn(ctx, func(ctx context.Context, conn database.Conn) error {
			_, err := conn.Exec(ctx, stmt)
			return err
		})
		if err != nil {
			m.abort()
			return nil, &database.InitError{Kind: classifyInit(err, true), Err: fmt.Errorf("running bootstrap: %w", err)}
		}
	}

	return m, nil
}

// abort closes a manager that never left Open. No handles can be out.
func (m *Manager) abort() {
	_ = m.Close(context.Background())
}
