// Package lifecycle owns the connection pool and the service state derived
// from it, and answers the startup, liveness and readiness probes.
//
// The state starts as STARTING. Init moves it to READY or DEGRADED. After
// that only the readiness probe moves it, READY to DEGRADED on a failed
// round trip and back on a successful one. Close leaves it DEGRADED.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/damianoneill/user-service/pkg/domain/database"
	"github.com/damianoneill/user-service/pkg/domain/health"
	"github.com/damianoneill/user-service/pkg/domain/logging"
	"github.com/damianoneill/user-service/pkg/domain/metrics"
	"github.com/damianoneill/user-service/pkg/domain/options"
)

// ErrAlreadyInitialized is returned by every Init after the first.
var ErrAlreadyInitialized = errors.New("lifecycle: already initialized")

// Readiness failure reasons.
const (
	ReasonDatabaseUnavailable = "database_unavailable"
	ReasonDatabaseUnreachable = "database_unreachable"
)

// Options configures a Manager.
type Options struct {
	// ReadinessTimeout bounds the readiness round trip.
	ReadinessTimeout time.Duration

	// Pool is passed to the database factory on Init.
	Pool []database.Option
}

type Option = options.Option[Options]

func DefaultOptions() Options {
	return Options{ReadinessTimeout: 5 * time.Second}
}

// WithReadinessTimeout bounds the readiness round trip.
func WithReadinessTimeout(d time.Duration) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		if d <= 0 {
			return fmt.Errorf("readiness timeout must be positive")
		}
		o.ReadinessTimeout = d
		return nil
	})
}

// WithPoolOptions appends options used to open the pool.
func WithPoolOptions(opts ...database.Option) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.Pool = append(o.Pool, opts...)
		return nil
	})
}

// Manager holds the process's single pool and its service state.
type Manager struct {
	factory  database.Factory
	logger   logging.Logger
	recorder metrics.Recorder
	opts     Options

	state atomic.Int32

	mu      sync.RWMutex
	started bool
	closed  bool
	pool    database.Pool
}

var _ database.Runner = (*Manager)(nil)

// New returns a Manager in the STARTING state. A nil recorder discards
// metrics.
func New(factory database.Factory, logger logging.Logger, recorder metrics.Recorder, opts ...Option) (*Manager, error) {
	if factory == nil {
		return nil, fmt.Errorf("database factory is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	o, err := options.Build(DefaultOptions(), opts...)
	if err != nil {
		return nil, fmt.Errorf("applying option: %w", err)
	}
	if recorder == nil {
		recorder = metrics.NopRecorder{}
	}

	m := &Manager{
		factory:  factory,
		logger:   logger,
		recorder: recorder,
		opts:     o,
	}
	m.state.Store(int32(health.Starting))
	recorder.SetHealthy(false)
	return m, nil
}

// State returns the current service state.
func (m *Manager) State() health.State {
	return health.State(m.state.Load())
}

// Init opens the pool once. A failure leaves the service DEGRADED with no
// pool; it is not retried.
func (m *Manager) Init(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return ErrAlreadyInitialized
	}
	m.started = true
	m.mu.Unlock()

	pool, err := m.factory.NewPool(ctx, m.opts.Pool...)
	if err != nil {
		errorType := database.ErrorType(err)
		m.recorder.DBError(errorType)
		m.logger.ErrorWith("Database pool initialization failed", logging.Fields{
			"error":      err.Error(),
			"error_type": errorType,
		})
		m.setState(health.Degraded)
		return fmt.Errorf("initializing pool: %w", err)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		_ = pool.Close(ctx)
		return fmt.Errorf("initializing pool: %w: closed during init", database.ErrUnavailable)
	}
	// the pool and READY become visible together
	m.pool = pool
	from := m.swapState(health.Ready)
	m.mu.Unlock()

	stats := pool.Stats()
	m.logger.InfoWith("Database pool initialized", logging.Fields{
		"max_connections": stats.Max,
		"connections":     stats.Total,
	})
	m.announce(from, health.Ready)
	return nil
}

// Close closes the pool, if any, and leaves the service DEGRADED. It is
// safe to call more than once.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	pool := m.pool
	m.pool = nil
	m.closed = true
	from := m.swapState(health.Degraded)
	m.mu.Unlock()

	var err error
	if pool != nil {
		if err = pool.Close(ctx); err != nil {
			m.logger.ErrorWith("Closing database pool", logging.Fields{"error": err.Error()})
			err = fmt.Errorf("closing pool: %w", err)
		} else {
			m.logger.Info("Database pool closed")
		}
	}
	m.announce(from, health.Degraded)
	return err
}

// WithConn runs fn on a pooled connection. Without a pool it fails with
// database.ErrUnavailable.
func (m *Manager) WithConn(ctx context.Context, fn database.ConnFunc) error {
	pool := m.current()
	if pool == nil {
		return fmt.Errorf("%w: pool not initialized", database.ErrUnavailable)
	}
	return pool.WithConn(ctx, fn)
}

// Stats reports pool usage, or zero values without a pool.
func (m *Manager) Stats() database.Stats {
	if pool := m.current(); pool != nil {
		return pool.Stats()
	}
	return database.Stats{}
}

func (m *Manager) current() database.Pool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pool
}

func (m *Manager) setState(to health.State) {
	m.announce(m.swapState(to), to)
}

func (m *Manager) swapState(to health.State) health.State {
	return health.State(m.state.Swap(int32(to)))
}

// announce reports a state change made by swapState.
func (m *Manager) announce(from, to health.State) {
	m.recorder.SetHealthy(to == health.Ready)
	if from != to {
		m.logTransition(from, to)
	}
}

// transition moves from one state to another only if the service is
// currently in from.
func (m *Manager) transition(from, to health.State) {
	if m.state.CompareAndSwap(int32(from), int32(to)) {
		m.recorder.SetHealthy(to == health.Ready)
		m.logTransition(from, to)
	}
}

func (m *Manager) logTransition(from, to health.State) {
	fields := logging.Fields{"from": from.String(), "to": to.String()}
	if to == health.Degraded {
		m.logger.WarnWith("Service state changed", fields)
		return
	}
	m.logger.InfoWith("Service state changed", fields)
}
