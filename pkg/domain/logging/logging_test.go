package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/damianoneill/user-service/pkg/domain/options"
)

func TestLoggerOptions(t *testing.T) {
	tests := []struct {
		name     string
		options  []Option
		expected LoggerOptions
	}{
		{
			name:     "default options",
			expected: LoggerOptions{Level: InfoLevel, Environment: "development"},
		},
		{
			name:     "set level",
			options:  []Option{WithLevel(DebugLevel)},
			expected: LoggerOptions{Level: DebugLevel, Environment: "development"},
		},
		{
			name: "service identity",
			options: []Option{
				WithServiceName("user-service"),
				WithServiceVersion("1.2.3"),
				WithEnvironment("production"),
				WithName("user_service.http"),
			},
			expected: LoggerOptions{
				Level:          InfoLevel,
				ServiceName:    "user-service",
				ServiceVersion: "1.2.3",
				Environment:    "production",
				Name:           "user_service.http",
			},
		},
		{
			name:    "set fields",
			options: []Option{WithFields(Fields{"region": "eu-west-1"})},
			expected: LoggerOptions{
				Level:       InfoLevel,
				Environment: "development",
				Fields:      Fields{"region": "eu-west-1"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := options.Build(DefaultOptions(), tt.options...)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestWithDefaults(t *testing.T) {
	opts := LoggerOptions{}
	WithDefaults(&opts)
	assert.Equal(t, InfoLevel, opts.Level)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{in: "debug", want: DebugLevel},
		{in: " INFO ", want: InfoLevel},
		{in: "Warn", want: WarnLevel},
		{in: "error", want: ErrorLevel},
		{in: "trace", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
