package bootstrap

import (
	"fmt"
	"time"

	domainconfig "github.com/damianoneill/user-service/pkg/domain/config"
	"github.com/damianoneill/user-service/pkg/domain/database"
	domainlog "github.com/damianoneill/user-service/pkg/domain/logging"
	domaintracing "github.com/damianoneill/user-service/pkg/domain/tracing"
)

// Settings is the typed service configuration. Every key has a default in
// DefaultSettings so environment variables reach Unmarshal.
type Settings struct {
	Version     string           `mapstructure:"version"`
	Environment string           `mapstructure:"environment"`
	Database    DatabaseSettings `mapstructure:"database"`
	Logging     LoggingSettings  `mapstructure:"logging"`
	Metrics     MetricsSettings  `mapstructure:"metrics"`
	Server      ServerSettings   `mapstructure:"server"`
	Cache       CacheSettings    `mapstructure:"cache"`
	Tracing     TracingSettings  `mapstructure:"tracing"`
}

type DatabaseSettings struct {
	// URL, when set, replaces the individual connection fields.
	URL            string        `mapstructure:"url"`
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	Name           string        `mapstructure:"name"`
	Pool           PoolSettings  `mapstructure:"pool"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type PoolSettings struct {
	MinSize        int32         `mapstructure:"min_size"`
	MaxSize        int32         `mapstructure:"max_size"`
	AcquireTimeout time.Duration `mapstructure:"acquire_timeout"`
}

type LoggingSettings struct {
	Level string `mapstructure:"level"`
}

type MetricsSettings struct {
	Enabled bool `mapstructure:"enabled"`
}

type ServerSettings struct {
	HTTP      HTTPSettings      `mapstructure:"http"`
	RateLimit RateLimitSettings `mapstructure:"rate_limit"`
}

type HTTPSettings struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// RateLimitSettings throttles the application routes. Zero RPS disables it.
type RateLimitSettings struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type CacheSettings struct {
	Enabled bool  `mapstructure:"enabled"`
	MaxCost int64 `mapstructure:"max_cost"`
}

// TracingSettings configures OTLP export. Tracing is off without an
// endpoint.
type TracingSettings struct {
	Endpoint   string  `mapstructure:"endpoint"`
	Exporter   string  `mapstructure:"exporter"`
	SampleRate float64 `mapstructure:"sample_rate"`
}

// DefaultSettings returns the default for every configuration key.
func DefaultSettings() map[string]interface{} {
	db := database.DefaultOptions()
	return map[string]interface{}{
		"version":     "1.0.0",
		"environment": "development",

		"database.url":                  "",
		"database.host":                 db.Host,
		"database.port":                 db.Port,
		"database.user":                 db.User,
		"database.password":             db.Password,
		"database.name":                 db.Name,
		"database.pool.min_size":        db.MinConns,
		"database.pool.max_size":        db.MaxConns,
		"database.pool.acquire_timeout": db.AcquireTimeout,
		"database.connect_timeout":      db.ConnectTimeout,

		"logging.level":   string(domainlog.InfoLevel),
		"metrics.enabled": true,

		"server.http.port":             8080,
		"server.http.read_timeout":     15 * time.Second,
		"server.http.write_timeout":    15 * time.Second,
		"server.http.shutdown_timeout": 15 * time.Second,
		"server.rate_limit.rps":        0.0,
		"server.rate_limit.burst":      0,

		"cache.enabled":  true,
		"cache.max_cost": 0,

		"tracing.endpoint":    "",
		"tracing.exporter":    string(domaintracing.GRPCExporter),
		"tracing.sample_rate": 1.0,
	}
}

// LoadSettings decodes and validates the store contents.
func LoadSettings(store domainconfig.Store) (Settings, error) {
	var s Settings
	if err := store.Unmarshal(&s); err != nil {
		return s, fmt.Errorf("decoding settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

func (s Settings) Validate() error {
	if p := s.Server.HTTP.Port; p < 1 || p > 65535 {
		return fmt.Errorf("server.http.port %d out of range", p)
	}
	if s.Server.HTTP.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.http.shutdown_timeout must be positive")
	}
	if s.Server.RateLimit.RPS < 0 || s.Server.RateLimit.Burst < 0 {
		return fmt.Errorf("server.rate_limit must not be negative")
	}
	if s.Database.Pool.MaxSize < 1 {
		return fmt.Errorf("database.pool.max_size must be at least 1")
	}
	if s.Database.Pool.MinSize < 0 || s.Database.Pool.MinSize > s.Database.Pool.MaxSize {
		return fmt.Errorf("database.pool.min_size must be between 0 and max_size")
	}
	if s.Database.Pool.AcquireTimeout <= 0 {
		return fmt.Errorf("database.pool.acquire_timeout must be positive")
	}
	if _, err := domainlog.ParseLevel(s.Logging.Level); err != nil {
		return err
	}
	if _, err := domaintracing.ParseExporterType(s.Tracing.Exporter); err != nil {
		return err
	}
	if r := s.Tracing.SampleRate; r < 0 || r > 1 {
		return fmt.Errorf("tracing.sample_rate %v must be between 0 and 1", r)
	}
	return nil
}

// PoolOptions converts the database settings to pool options.
func (s Settings) PoolOptions(schema ...string) []database.Option {
	d := s.Database
	opts := []database.Option{
		database.WithPoolSize(d.Pool.MinSize, d.Pool.MaxSize),
		database.WithAcquireTimeout(d.Pool.AcquireTimeout),
	}
	if d.ConnectTimeout > 0 {
		opts = append(opts, database.WithConnectTimeout(d.ConnectTimeout))
	}
	if d.URL != "" {
		opts = append(opts, database.WithURL(d.URL))
	} else {
		opts = append(opts,
			database.WithEndpoint(d.Host, d.Port),
			database.WithCredentials(d.User, d.Password),
			database.WithDatabaseName(d.Name),
		)
	}
	if len(schema) > 0 {
		opts = append(opts, database.WithBootstrap(schema...))
	}
	return opts
}
