package bootstrap

import (
	"fmt"
	"os"

	domainconfig "github.com/damianoneill/user-service/pkg/domain/config"
	"github.com/damianoneill/user-service/pkg/domain/database"
	domainhttp "github.com/damianoneill/user-service/pkg/domain/http"
	domainlog "github.com/damianoneill/user-service/pkg/domain/logging"
	domainmetrics "github.com/damianoneill/user-service/pkg/domain/metrics"
	domaintracing "github.com/damianoneill/user-service/pkg/domain/tracing"
	"github.com/damianoneill/user-service/pkg/usecase/lifecycle"
	usecase "github.com/damianoneill/user-service/pkg/usecase/users"
)

// Internal endpoints mounted when enabled.
const (
	LogConfigPath = "/internal/logging"
	ConfigPath    = "/internal/config"
)

func (s *Service) initConfig(opts Options) error {
	defaults := DefaultSettings()
	for k, v := range opts.ConfigDefaults {
		defaults[k] = v
	}

	cfgOpts := []domainconfig.Option{
		domainconfig.WithAutomaticEnv(),
		domainconfig.WithDefaults(defaults),
	}
	file := opts.ConfigFile
	if file == "" {
		file = os.Getenv(ConfigFileEnv)
	}
	if file != "" {
		cfgOpts = append(cfgOpts, domainconfig.WithConfigFile(file))
	}

	store, err := s.deps.ConfigFactory.NewStore(cfgOpts...)
	if err != nil {
		return fmt.Errorf("creating config store: %w", err)
	}
	s.config = store

	settings, err := LoadSettings(store)
	if err != nil {
		return err
	}
	s.settings = settings
	return nil
}

func (s *Service) initLogger(opts Options) error {
	logger, err := s.deps.LoggerFactory.NewLogger(
		domainlog.WithLevel(domainlog.Level(s.settings.Logging.Level)),
		domainlog.WithServiceName(opts.ServiceName),
		domainlog.WithServiceVersion(s.settings.Version),
		domainlog.WithEnvironment(s.settings.Environment),
	)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	s.logger = logger
	return nil
}

func (s *Service) initTracing(opts Options) error {
	t := s.settings.Tracing
	if t.Endpoint == "" || s.deps.TracerFactory == nil {
		return nil
	}

	exporter, err := domaintracing.ParseExporterType(t.Exporter)
	if err != nil {
		return err
	}
	provider, err := s.deps.TracerFactory.NewProvider(
		domaintracing.WithServiceName(opts.ServiceName),
		domaintracing.WithServiceVersion(s.settings.Version),
		domaintracing.WithCollectorEndpoint(t.Endpoint),
		domaintracing.WithExporterType(exporter),
		domaintracing.WithInsecure(true),
		domaintracing.WithSamplingRate(t.SampleRate),
		domaintracing.WithDefaultPropagators(),
	)
	if err != nil {
		return fmt.Errorf("creating tracer: %w", err)
	}
	s.tracer = provider
	s.logger.InfoWith("Tracing enabled", domainlog.Fields{
		"endpoint": t.Endpoint,
		"exporter": string(exporter),
	})
	return nil
}

// initUsers builds the lifecycle manager and everything behind /users.
func (s *Service) initUsers(opts Options) error {
	var recorder domainmetrics.Recorder = domainmetrics.NopRecorder{}
	var lc *lifecycle.Manager

	if s.metricsEnabled() {
		r, err := s.deps.MetricsFactory.NewRecorder(
			domainmetrics.WithService(opts.ServiceName, s.settings.Version),
			domainmetrics.WithPoolStats(func() database.Stats {
				if lc == nil {
					return database.Stats{}
				}
				return lc.Stats()
			}),
		)
		if err != nil {
			return fmt.Errorf("creating metrics recorder: %w", err)
		}
		recorder = r
	}

	lc, err := lifecycle.New(s.deps.DatabaseFactory, s.logger, recorder,
		lifecycle.WithPoolOptions(s.settings.PoolOptions(opts.Schema...)...),
	)
	if err != nil {
		return fmt.Errorf("creating lifecycle manager: %w", err)
	}
	s.lifecycle = lc

	if s.settings.Cache.Enabled && s.deps.NewUserCache != nil {
		c, err := s.deps.NewUserCache(s.settings.Cache.MaxCost)
		if err != nil {
			return fmt.Errorf("creating user cache: %w", err)
		}
		s.cache = c
	}

	svc, err := usecase.NewService(s.deps.NewUserRepository(lc), s.cache, recorder, s.logger)
	if err != nil {
		return fmt.Errorf("creating user service: %w", err)
	}
	s.users = svc
	return nil
}

func (s *Service) initRouter(opts Options) error {
	routerOpts := []domainhttp.Option{
		domainhttp.WithService(opts.ServiceName, s.settings.Version),
		domainhttp.WithLogger(s.logger),
		domainhttp.WithProbeHandlers(s.lifecycle.ProbeHandlers()),
		domainhttp.WithStateFunc(func() string { return s.lifecycle.State().String() }),
		domainhttp.WithObservabilityExclusions(opts.ExcludeFromLogging, opts.ExcludeFromTracing),
	}

	if s.metricsEnabled() {
		routerOpts = append(routerOpts, domainhttp.WithMetricsFactory(s.deps.MetricsFactory))
	}
	if s.tracer != nil {
		routerOpts = append(routerOpts, domainhttp.WithTracingProvider(s.tracer))
	}
	if rl := s.settings.Server.RateLimit; rl.RPS > 0 {
		routerOpts = append(routerOpts, domainhttp.WithRateLimit(rl.RPS, rl.Burst))
	}

	if opts.EnableLogConfig {
		if configurable, ok := s.logger.(domainlog.RuntimeConfigurable); ok {
			routerOpts = append(routerOpts, domainhttp.WithInternalHandler(LogConfigPath, configurable.GetConfigHandler()))
		}
	}
	if opts.EnableConfigViewer {
		routerOpts = append(routerOpts, domainhttp.WithInternalHandler(ConfigPath, s.config.GetConfigHandler(nil)))
	}

	router, err := s.deps.RouterFactory.NewRouter(routerOpts...)
	if err != nil {
		return fmt.Errorf("creating router: %w", err)
	}
	s.router = router
	return nil
}

func (s *Service) metricsEnabled() bool {
	return s.settings.Metrics.Enabled && s.deps.MetricsFactory != nil
}
