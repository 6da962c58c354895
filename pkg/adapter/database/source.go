// Package database implements the connection pool contract on top of
// pgxpool, with a semaphore-bounded acquire path, scoped release and drain on
// close.
package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/damianoneill/user-service/pkg/domain/database"
)

// Lease is a connection borrowed from a Source.
type Lease interface {
	database.Conn
	Release()
}

// SourceStat reports connection counts of a Source.
type SourceStat struct {
	Total int32
	Idle  int32
}

// Source is the underlying connection supplier wrapped by Manager.
type Source interface {
	Acquire(ctx context.Context) (Lease, error)
	Stat() SourceStat
	Close()
}

// PgxSource adapts a pgxpool.Pool.
type PgxSource struct {
	pool *pgxpool.Pool
}

var _ Source = (*PgxSource)(nil)

func NewPgxSource(pool *pgxpool.Pool) *PgxSource {
	return &PgxSource{pool: pool}
}

func (s *PgxSource) Acquire(ctx context.Context) (Lease, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (s *PgxSource) Stat() SourceStat {
	st := s.pool.Stat()
	return SourceStat{Total: st.TotalConns(), Idle: st.IdleConns()}
}

func (s *PgxSource) Close() {
	s.pool.Close()
}
