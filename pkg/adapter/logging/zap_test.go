package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	domainlog "github.com/damianoneill/user-service/pkg/domain/logging"
)

func newTestLogger(t *testing.T) (*ZapLogger, *observer.ObservedLogs) {
	t.Helper()
	atom := zap.NewAtomicLevelAt(zap.InfoLevel)
	core, obs := observer.New(atom)

	return Wrap(zap.New(core), atom), obs
}

// newJSONLogger returns a logger writing encoded records to the returned buffer.
func newJSONLogger(t *testing.T, opts ...domainlog.Option) (domainlog.LeveledLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger, err := NewFactory().NewLoggerWithOptions(opts, []ZapOption{WithOutput(&buf)})
	require.NoError(t, err)
	return logger, &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var records []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &rec), "line: %s", line)
		records = append(records, rec)
	}
	return records
}

type unencodable struct {
	Fn func()
}

type panicky struct{}

func (panicky) MarshalJSON() ([]byte, error) {
	panic("boom")
}

func TestZapLogger_Threshold(t *testing.T) {
	logger, obs := newTestLogger(t)
	emit := func() {
		logger.Debug("d")
		logger.Info("i")
		logger.WarnWith("w", domainlog.Fields{"attempt": 1})
		logger.ErrorWith("e", nil)
	}

	tests := map[domainlog.Level][]string{
		domainlog.DebugLevel: {"d", "i", "w", "e"},
		domainlog.InfoLevel:  {"i", "w", "e"},
		domainlog.WarnLevel:  {"w", "e"},
		domainlog.ErrorLevel: {"e"},
	}

	for level, want := range tests {
		t.Run(string(level), func(t *testing.T) {
			logger.SetLevel(level)
			assert.Equal(t, level, logger.GetLevel())

			emit()
			var got []string
			for _, e := range obs.TakeAll() {
				got = append(got, e.Message)
			}
			assert.Equal(t, want, got)
		})
	}

	logger.SetLevel(domainlog.ErrorLevel)
	logger.SetLevel("verbose")
	assert.Equal(t, domainlog.ErrorLevel, logger.GetLevel(), "unknown level ignored")
}

func TestZapLogger_With(t *testing.T) {
	logger, obs := newTestLogger(t)
	repo := logger.With(domainlog.Fields{"component": "repository", "pool_max": 20})

	repo.InfoWith("user created", domainlog.Fields{"user_id": 7, "cached": true})

	entries := obs.TakeAll()
	require.Len(t, entries, 1)
	assert.Equal(t, map[string]interface{}{
		"component": "repository",
		"pool_max":  int64(20),
		"user_id":   int64(7),
		"cached":    true,
	}, entries[0].ContextMap())

	logger.SetLevel(domainlog.ErrorLevel)
	repo.Info("dropped")
	assert.Empty(t, obs.All(), "children share the parent's level")
}

func TestZapLogger_WithContext(t *testing.T) {
	logger, obs := newTestLogger(t)

	t.Run("with empty context", func(t *testing.T) {
		baseLogger := logger.WithContext(context.Background())
		baseLogger.Info("test message")

		baseLogs := obs.TakeAll()
		require.Len(t, baseLogs, 1)
		assert.Equal(t, "test message", baseLogs[0].Message)
		assert.NotContains(t, baseLogs[0].ContextMap(), "trace_id")
	})

	t.Run("with trace context", func(t *testing.T) {
		spanRecorder := tracetest.NewSpanRecorder()
		tracerProvider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spanRecorder))
		defer func() {
			if err := tracerProvider.Shutdown(context.Background()); err != nil {
				t.Errorf("Error shutting down tracer provider: %v", err)
			}
		}()

		ctx, span := tracerProvider.Tracer("test").Start(context.Background(), "test-span")
		logger.WithContext(ctx).Info("traced message")
		span.End()

		tracedLogs := obs.TakeAll()
		require.Len(t, tracedLogs, 1)
		loggedFields := tracedLogs[0].ContextMap()
		assert.Equal(t, span.SpanContext().TraceID().String(), loggedFields["trace_id"])
		assert.Equal(t, span.SpanContext().SpanID().String(), loggedFields["span_id"])

		assert.Eventually(t, func() bool {
			return len(spanRecorder.Ended()) > 0
		}, time.Second, 10*time.Millisecond, "span should be recorded")
	})
}

func TestZapLogger_JSONEnvelope(t *testing.T) {
	logger, buf := newJSONLogger(t,
		domainlog.WithServiceName("user-service"),
		domainlog.WithServiceVersion("1.2.3"),
		domainlog.WithEnvironment("production"),
		domainlog.WithName("user-service.http"),
	)

	logger.InfoWith("request handled", domainlog.Fields{"status_code": 200})

	records := decodeLines(t, buf)
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, "INFO", rec["level"])
	assert.Equal(t, "request handled", rec["message"])
	assert.Equal(t, "user-service.http", rec["logger"])
	assert.Equal(t, "user-service", rec["service"])
	assert.Equal(t, "1.2.3", rec["version"])
	assert.Equal(t, "production", rec["environment"])
	assert.Equal(t, float64(200), rec["status_code"])

	ts, ok := rec["timestamp"].(string)
	require.True(t, ok)
	_, err := time.Parse("2006-01-02T15:04:05.000Z0700", ts)
	assert.NoError(t, err)
}

func TestZapLogger_UnserializableFields(t *testing.T) {
	logger, buf := newJSONLogger(t)

	logger.ErrorWith("odd values", domainlog.Fields{
		"func":    unencodable{Fn: func() {}},
		"panicky": panicky{},
		"err":     errors.New("connection refused"),
		"channel": make(chan int),
	})
	logger.Info("after")

	records := decodeLines(t, buf)
	require.Len(t, records, 2)
	assert.Equal(t, "odd values", records[0]["message"])
	assert.IsType(t, "", records[0]["func"])
	assert.IsType(t, "", records[0]["panicky"])
	assert.IsType(t, "", records[0]["channel"])
	assert.Equal(t, "connection refused", records[0]["err"])
	assert.Equal(t, "after", records[1]["message"])
}

func TestZapLogger_ConfigHandler(t *testing.T) {
	logger, buf := newJSONLogger(t)
	rc, ok := logger.(domainlog.RuntimeConfigurable)
	require.True(t, ok)

	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"level":"debug"}`))
	rec := httptest.NewRecorder()
	rc.GetConfigHandler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, domainlog.DebugLevel, logger.GetLevel())
	logger.Debug("visible")
	assert.Len(t, decodeLines(t, buf), 1)
}

func TestFactory_NewLogger(t *testing.T) {
	tests := []struct {
		name    string
		opts    []domainlog.Option
		zopts   []ZapOption
		wantErr bool
	}{
		{name: "defaults"},
		{name: "service name", opts: []domainlog.Option{domainlog.WithServiceName("user-service")}},
		{name: "development", zopts: []ZapOption{WithDevelopment(true)}},
		{name: "unknown level", opts: []domainlog.Option{domainlog.WithLevel("verbose")}, wantErr: true},
		{name: "nil output", zopts: []ZapOption{WithOutput(nil)}, wantErr: true},
	}

	factory := NewFactory()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := factory.NewLoggerWithOptions(tt.opts, tt.zopts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Implements(t, (*domainlog.LeveledLogger)(nil), logger)
		})
	}
}
