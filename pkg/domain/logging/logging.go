// Package logging defines the structured logger shared by the service and
// its request middleware.
package logging

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/damianoneill/user-service/pkg/domain/options"
)

//go:generate mockgen -destination=mocks/mock_logger.go -package=mocks github.com/damianoneill/user-service/pkg/domain/logging Logger,LeveledLogger,RuntimeConfigurable,Factory

type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// ParseLevel accepts a level name in any case.
func ParseLevel(s string) (Level, error) {
	switch l := Level(strings.ToLower(strings.TrimSpace(s))); l {
	case DebugLevel, InfoLevel, WarnLevel, ErrorLevel:
		return l, nil
	default:
		return "", fmt.Errorf("unknown log level %q", s)
	}
}

// Fields are the structured attributes of a record.
type Fields map[string]any

// Logger writes structured records. The *With variants attach fields to a
// single record; With returns a child carrying them on every record.
type Logger interface {
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)

	DebugWith(msg string, fields Fields)
	InfoWith(msg string, fields Fields)
	WarnWith(msg string, fields Fields)
	ErrorWith(msg string, fields Fields)

	With(fields Fields) Logger

	// WithContext adds the trace and span IDs of the active span, if any.
	WithContext(ctx context.Context) Logger
}

// LeveledLogger can change its threshold at runtime. Children created with
// With share the threshold.
type LeveledLogger interface {
	Logger
	SetLevel(level Level)
	GetLevel() Level
}

// RuntimeConfigurable loggers expose their level over HTTP.
type RuntimeConfigurable interface {
	GetConfigHandler() http.Handler
}

type Factory interface {
	NewLogger(opts ...Option) (LeveledLogger, error)
}

// LoggerOptions identify the service on every record. Name is written
// under the "logger" key.
type LoggerOptions struct {
	Level          Level
	ServiceName    string
	ServiceVersion string
	Environment    string
	Name           string
	Fields         Fields
}

type Option = options.Option[LoggerOptions]

func DefaultOptions() LoggerOptions {
	return LoggerOptions{
		Level:       InfoLevel,
		Environment: "development",
	}
}

// WithDefaults fills zero values left by callers that skip DefaultOptions.
func WithDefaults(opts *LoggerOptions) {
	if opts.Level == "" {
		opts.Level = InfoLevel
	}
}

func WithLevel(level Level) Option {
	return options.OptionFunc[LoggerOptions](func(o *LoggerOptions) error {
		o.Level = level
		return nil
	})
}

func WithServiceName(name string) Option {
	return options.OptionFunc[LoggerOptions](func(o *LoggerOptions) error {
		o.ServiceName = name
		return nil
	})
}

func WithServiceVersion(version string) Option {
	return options.OptionFunc[LoggerOptions](func(o *LoggerOptions) error {
		o.ServiceVersion = version
		return nil
	})
}

// WithEnvironment sets the deployment tag, e.g. "production".
func WithEnvironment(env string) Option {
	return options.OptionFunc[LoggerOptions](func(o *LoggerOptions) error {
		o.Environment = env
		return nil
	})
}

func WithName(name string) Option {
	return options.OptionFunc[LoggerOptions](func(o *LoggerOptions) error {
		o.Name = name
		return nil
	})
}

// WithFields sets fields written on every record.
func WithFields(fields Fields) Option {
	return options.OptionFunc[LoggerOptions](func(o *LoggerOptions) error {
		o.Fields = fields
		return nil
	})
}
