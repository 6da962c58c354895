// Package logging implements the logging domain interfaces with zap.
package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	domainlog "github.com/damianoneill/user-service/pkg/domain/logging"
	"github.com/damianoneill/user-service/pkg/domain/options"
)

// ZapLogger writes one JSON object per call.
type ZapLogger struct {
	logger *zap.Logger
	atom   zap.AtomicLevel
}

var (
	_ domainlog.LeveledLogger       = (*ZapLogger)(nil)
	_ domainlog.RuntimeConfigurable = (*ZapLogger)(nil)
)

type ZapOptions struct {
	domainlog.LoggerOptions
	Development bool

	// Output receives encoded records. Defaults to stdout, unbuffered.
	Output io.Writer
}

type ZapOption = options.Option[ZapOptions]

// WithDevelopment enables development mode
func WithDevelopment(enabled bool) ZapOption {
	return options.OptionFunc[ZapOptions](func(o *ZapOptions) error {
		o.Development = enabled
		return nil
	})
}

// WithOutput redirects records to w.
func WithOutput(w io.Writer) ZapOption {
	return options.OptionFunc[ZapOptions](func(o *ZapOptions) error {
		if w == nil {
			return fmt.Errorf("nil log output")
		}
		o.Output = w
		return nil
	})
}

type Factory struct{}

var _ domainlog.Factory = (*Factory)(nil)

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) NewLogger(opts ...domainlog.Option) (domainlog.LeveledLogger, error) {
	return f.NewLoggerWithOptions(opts, nil)
}

// NewLoggerWithOptions creates a logger with both domain and Zap options
func (f *Factory) NewLoggerWithOptions(dopts []domainlog.Option, zopts []ZapOption) (domainlog.LeveledLogger, error) {
	o := ZapOptions{LoggerOptions: domainlog.DefaultOptions()}

	if err := options.Apply(&o.LoggerOptions, dopts...); err != nil {
		return nil, fmt.Errorf("applying domain options: %w", err)
	}
	if err := options.Apply(&o, zopts...); err != nil {
		return nil, fmt.Errorf("applying zap options: %w", err)
	}
	domainlog.WithDefaults(&o.LoggerOptions)

	return f.createLogger(o)
}

func (f *Factory) createLogger(zopts ZapOptions) (*ZapLogger, error) {
	level, err := domainlog.ParseLevel(string(zopts.Level))
	if err != nil {
		return nil, err
	}
	atom := zap.NewAtomicLevelAt(zapLevels[level])

	// One JSON object per record: timestamp, level, logger, message, then
	// the service envelope and call fields.
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "message",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}

	var out io.Writer = os.Stdout
	if zopts.Output != nil {
		out = zopts.Output
	}

	var zapOpts []zap.Option
	if zopts.Development {
		encoderConfig.CallerKey = "caller"
		encoderConfig.StacktraceKey = "stacktrace"
		encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
		zapOpts = append(zapOpts, zap.Development(), zap.AddCaller(), zap.AddCallerSkip(1))
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.Lock(zapcore.AddSync(out)), atom)
	logger := zap.New(core, zapOpts...)

	if zopts.Name != "" {
		logger = logger.Named(zopts.Name)
	}

	envelope := []zap.Field{zap.String("environment", zopts.Environment)}
	if zopts.ServiceName != "" {
		envelope = append(envelope, zap.String("service", zopts.ServiceName))
	}
	if zopts.ServiceVersion != "" {
		envelope = append(envelope, zap.String("version", zopts.ServiceVersion))
	}
	logger = logger.With(envelope...)

	if len(zopts.Fields) > 0 {
		logger = logger.With(convertFields(zopts.Fields)...)
	}

	return &ZapLogger{logger: logger, atom: atom}, nil
}

// Wrap adapts an existing zap logger whose core is gated by atom, e.g. one
// built on zaptest/observer.
func Wrap(logger *zap.Logger, atom zap.AtomicLevel) *ZapLogger {
	return &ZapLogger{logger: logger, atom: atom}
}

func (l *ZapLogger) Debug(msg string) { l.logger.Debug(msg) }

func (l *ZapLogger) Info(msg string) { l.logger.Info(msg) }

func (l *ZapLogger) Warn(msg string) { l.logger.Warn(msg) }

func (l *ZapLogger) Error(msg string) { l.logger.Error(msg) }

func (l *ZapLogger) DebugWith(msg string, fields domainlog.Fields) {
	l.logger.Debug(msg, convertFields(fields)...)
}

func (l *ZapLogger) InfoWith(msg string, fields domainlog.Fields) {
	l.logger.Info(msg, convertFields(fields)...)
}

func (l *ZapLogger) WarnWith(msg string, fields domainlog.Fields) {
	l.logger.Warn(msg, convertFields(fields)...)
}

func (l *ZapLogger) ErrorWith(msg string, fields domainlog.Fields) {
	l.logger.Error(msg, convertFields(fields)...)
}

func (l *ZapLogger) With(fields domainlog.Fields) domainlog.Logger {
	return l.child(convertFields(fields)...)
}

// WithContext adds trace_id and span_id when ctx carries a recording span.
func (l *ZapLogger) WithContext(ctx context.Context) domainlog.Logger {
	span := trace.SpanFromContext(ctx)
	sc := span.SpanContext()
	if !span.IsRecording() || !sc.HasTraceID() {
		return l
	}
	return l.child(
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	)
}

// child shares the parent's level.
func (l *ZapLogger) child(fields ...zap.Field) *ZapLogger {
	return &ZapLogger{logger: l.logger.With(fields...), atom: l.atom}
}

var zapLevels = map[domainlog.Level]zapcore.Level{
	domainlog.DebugLevel: zapcore.DebugLevel,
	domainlog.InfoLevel:  zapcore.InfoLevel,
	domainlog.WarnLevel:  zapcore.WarnLevel,
	domainlog.ErrorLevel: zapcore.ErrorLevel,
}

// SetLevel ignores unknown levels.
func (l *ZapLogger) SetLevel(level domainlog.Level) {
	if zl, ok := zapLevels[level]; ok {
		l.atom.SetLevel(zl)
	}
}

// GetLevel folds zap's panic and fatal levels into ErrorLevel.
func (l *ZapLogger) GetLevel() domainlog.Level {
	current := l.atom.Level()
	if current > zapcore.ErrorLevel {
		return domainlog.ErrorLevel
	}
	for level, zl := range zapLevels {
		if zl == current {
			return level
		}
	}
	return domainlog.InfoLevel
}

// GetConfigHandler serves GET and PUT of the level as JSON, e.g.
// {"level":"debug"}.
func (l *ZapLogger) GetConfigHandler() http.Handler {
	return l.atom
}

func convertFields(fields domainlog.Fields) []zap.Field {
	if len(fields) == 0 {
		return nil
	}

	zapFields := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		zapFields = append(zapFields, safeField(k, v))
	}
	return zapFields
}

// safeField never lets a field value stop a record from being written.
// Values the JSON encoder would reject, or whose MarshalJSON panics, are
// written in their fmt form.
func safeField(key string, value any) zap.Field {
	switch v := value.(type) {
	case nil, string, bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64,
		time.Time, time.Duration, []string:
		return zap.Any(key, v)
	case error:
		return zap.String(key, fmt.Sprint(v))
	}

	if encodable(value) {
		return zap.Any(key, value)
	}
	return zap.String(key, fmt.Sprint(value))
}

func encodable(value any) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	_, err := json.Marshal(value)
	return err == nil
}
