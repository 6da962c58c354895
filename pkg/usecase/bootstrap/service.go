package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	domainconfig "github.com/damianoneill/user-service/pkg/domain/config"
	domainhttp "github.com/damianoneill/user-service/pkg/domain/http"
	domainlog "github.com/damianoneill/user-service/pkg/domain/logging"
	domaintracing "github.com/damianoneill/user-service/pkg/domain/tracing"
	"github.com/damianoneill/user-service/pkg/domain/users"
	"github.com/damianoneill/user-service/pkg/usecase/lifecycle"
)

// Service is the assembled user service: configuration, logger, tracer,
// pool lifecycle, user API and HTTP server.
type Service struct {
	logger    domainlog.LeveledLogger
	config    domainconfig.MaskedStore
	settings  Settings
	router    domainhttp.Router
	tracer    domaintracing.Provider
	lifecycle *lifecycle.Manager
	users     users.Service
	cache     users.Cache
	server    *http.Server
	deps      Dependencies
	hooks     *ServerHooks // Optional test hooks
	opts      Options
}

// NewService wires every component. It does not touch the database; Start
// does.
func NewService(opts Options, deps Dependencies, hooks *ServerHooks) (*Service, error) {
	if err := validateOptions(&opts, deps); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	svc := &Service{
		deps:  deps,
		hooks: hooks,
		opts:  opts,
	}

	steps := []func(Options) error{
		svc.initConfig,
		svc.initLogger,
		svc.initTracing,
		svc.initUsers,
		svc.initRouter,
	}
	for _, step := range steps {
		if err := step(opts); err != nil {
			svc.release()
			if svc.tracer != nil {
				_ = svc.tracer.Shutdown(context.Background())
			}
			return nil, err
		}
	}

	return svc, nil
}

// createServer creates a new HTTP server from the settings.
func (s *Service) createServer() *http.Server {
	cfg := s.settings.Server.HTTP
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

// Start initializes the pool and then serves until Shutdown. A pool failure
// is not fatal: the service serves in the DEGRADED state and readiness
// reports why.
func (s *Service) Start(ctx context.Context) error {
	if err := s.lifecycle.Init(ctx); err != nil && !errors.Is(err, lifecycle.ErrAlreadyInitialized) {
		s.logger.WarnWith("Serving without database", domainlog.Fields{
			"state": s.lifecycle.State().String(),
		})
	}

	s.server = s.createServer()

	s.logger.InfoWith("Starting server", domainlog.Fields{
		"address": s.server.Addr,
		"state":   s.lifecycle.State().String(),
	})

	listenAndServe := s.server.ListenAndServe
	if s.hooks != nil && s.hooks.ListenAndServe != nil {
		listenAndServe = s.hooks.ListenAndServe
	}

	if err := listenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown stops the server, then closes the pool, tracer, cache and
// router. Every step runs; the first error is returned.
func (s *Service) Shutdown(ctx context.Context) error {
	s.logger.Info("Starting graceful shutdown")

	ctx, cancel := context.WithTimeout(ctx, s.settings.Server.HTTP.ShutdownTimeout)
	defer cancel()

	var errs []error

	if s.server != nil {
		shutdown := s.server.Shutdown
		if s.hooks != nil && s.hooks.Shutdown != nil {
			shutdown = s.hooks.Shutdown
		}
		if err := shutdown(ctx); err != nil {
			s.logger.ErrorWith("Shutdown error", domainlog.Fields{
				"error": err.Error(),
			})
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
	}

	if err := s.lifecycle.Close(ctx); err != nil {
		s.logger.ErrorWith("Database pool close error", domainlog.Fields{
			"error": err.Error(),
		})
		errs = append(errs, fmt.Errorf("pool close: %w", err))
	}

	if s.tracer != nil {
		if err := s.tracer.Shutdown(ctx); err != nil {
			s.logger.ErrorWith("Tracer shutdown error", domainlog.Fields{
				"error": err.Error(),
			})
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
	}

	s.release()

	s.logger.Info("Server stopped")
	return errors.Join(errs...)
}

// release frees what NewService allocated besides the pool.
func (s *Service) release() {
	if s.cache != nil {
		s.cache.Close()
		s.cache = nil
	}
	if s.router != nil {
		_ = s.router.Close(context.Background())
	}
}

// Router returns the service's router
func (s *Service) Router() domainhttp.Router {
	return s.router
}

// Config returns the service's configuration store
func (s *Service) Config() domainconfig.Store {
	return s.config
}

// Settings returns the decoded configuration.
func (s *Service) Settings() Settings {
	return s.settings
}

// Logger returns the service's logger
func (s *Service) Logger() domainlog.Logger {
	return s.logger
}

// Users returns the user API for mounting handlers.
func (s *Service) Users() users.Service {
	return s.users
}

// Lifecycle returns the pool lifecycle manager.
func (s *Service) Lifecycle() *lifecycle.Manager {
	return s.lifecycle
}

// validateOptions ensures all required options are set and defaults are applied
func validateOptions(opts *Options, deps Dependencies) error {
	if opts.ServiceName == "" {
		return fmt.Errorf("service name is required")
	}

	switch {
	case deps.ConfigFactory == nil:
		return fmt.Errorf("config factory is required")
	case deps.LoggerFactory == nil:
		return fmt.Errorf("logger factory is required")
	case deps.RouterFactory == nil:
		return fmt.Errorf("router factory is required")
	case deps.DatabaseFactory == nil:
		return fmt.Errorf("database factory is required")
	case deps.NewUserRepository == nil:
		return fmt.Errorf("user repository constructor is required")
	}

	if opts.ExcludeFromLogging == nil {
		opts.ExcludeFromLogging = []string{"/internal/*", "/metrics"}
	}
	if opts.ExcludeFromTracing == nil {
		opts.ExcludeFromTracing = []string{"/internal/*", "/metrics"}
	}

	return nil
}
