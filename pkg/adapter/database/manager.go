package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/damianoneill/user-service/pkg/domain/database"
)

const tracerName = "github.com/damianoneill/user-service/pkg/adapter/database"

var errPoolClosed = errors.New("pool is closed")

// Manager bounds concurrent use of a Source to MaxConns handles and tracks
// every handle until it is released.
type Manager struct {
	src    Source
	opts   database.Options
	sem    *semaphore.Weighted
	tracer trace.Tracer

	outstanding atomic.Int64

	mu       sync.RWMutex
	closed   bool
	inflight sync.WaitGroup
}

var _ database.Pool = (*Manager)(nil)

// NewManager wraps src. opts must already be validated.
func NewManager(src Source, opts database.Options) *Manager {
	return &Manager{
		src:    src,
		opts:   opts,
		sem:    semaphore.NewWeighted(int64(opts.MaxConns)),
		tracer: otel.Tracer(tracerName),
	}
}

// Acquire waits for a free slot and a connection. The wait is bounded by the
// acquire timeout and ctx.
func (m *Manager) Acquire(ctx context.Context) (database.Handle, error) {
	ctx, span := m.tracer.Start(ctx, "db.acquire", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		err := fmt.Errorf("%w: %w", database.ErrUnavailable, errPoolClosed)
		recordError(span, err)
		return nil, err
	}
	m.inflight.Add(1)
	m.mu.RUnlock()

	h, err := m.acquire(ctx)
	if err != nil {
		m.inflight.Done()
		recordError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int64("db.pool.outstanding", m.outstanding.Load()))
	return h, nil
}

func (m *Manager) acquire(ctx context.Context) (database.Handle, error) {
	ctx, cancel := context.WithTimeout(ctx, m.opts.AcquireTimeout)
	defer cancel()

	if err := m.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: waiting for connection: %w", database.ErrUnavailable, err)
	}

	lease, err := m.src.Acquire(ctx)
	if err != nil {
		m.sem.Release(1)
		return nil, fmt.Errorf("%w: %w", database.ErrUnavailable, err)
	}

	m.outstanding.Add(1)
	return &handle{Lease: lease, done: m.release}, nil
}

func (m *Manager) release(l Lease) {
	l.Release()
	m.outstanding.Add(-1)
	m.sem.Release(1)
	m.inflight.Done()
}

// WithConn runs fn on an acquired connection and releases it on every exit
// path, including a panic in fn.
func (m *Manager) WithConn(ctx context.Context, fn database.ConnFunc) error {
	h, err := m.Acquire(ctx)
	if err != nil {
		return err
	}
	defer h.Release()

	return fn(ctx, h)
}

// Ping runs a trivial round-trip query.
func (m *Manager) Ping(ctx context.Context) error {
	return m.WithConn(ctx, func(ctx context.Context, conn database.Conn) error {
		if _, err := conn.Exec(ctx, "SELECT 1"); err != nil {
			return fmt.Errorf("ping: %w", err)
		}
		return nil
	})
}

func (m *Manager) Stats() database.Stats {
	st := m.src.Stat()
	return database.Stats{
		Outstanding: m.outstanding.Load(),
		Idle:        st.Idle,
		Total:       st.Total,
		Max:         m.opts.MaxConns,
	}
}

// Close rejects new acquires and waits for outstanding handles before
// closing the source. If ctx ends first the source is closed once the last
// handle comes back and Close returns ctx's error.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		m.inflight.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		m.src.Close()
		return nil
	case <-ctx.Done():
		go func() {
			<-drained
			m.src.Close()
		}()
		return fmt.Errorf("closing pool with %d handles in use: %w", m.outstanding.Load(), ctx.Err())
	}
}

type handle struct {
	Lease
	once sync.Once
	done func(Lease)
}

func (h *handle) Release() {
	h.once.Do(func() { h.done(h.Lease) })
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
