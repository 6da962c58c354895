package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainconfig "github.com/damianoneill/user-service/pkg/domain/config"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	return path
}

func TestStore_TypedGetters(t *testing.T) {
	path := writeConfig(t, `
service:
  name: user-service
server:
  http:
    port: 9090
    shutdown_timeout: 5s
metrics:
  enabled: false
tracing:
  sample_rate: 0.25
  propagators: [tracecontext, baggage]
`)

	store, err := NewFactory().NewStore(domainconfig.WithConfigFile(path))
	require.NoError(t, err)

	name, ok := store.GetString("service.name")
	assert.True(t, ok)
	assert.Equal(t, "user-service", name)

	port, ok := store.GetInt("server.http.port")
	assert.True(t, ok)
	assert.Equal(t, 9090, port)

	timeout, ok := store.GetDuration("server.http.shutdown_timeout")
	assert.True(t, ok)
	assert.Equal(t, 5*time.Second, timeout)

	enabled, ok := store.GetBool("metrics.enabled")
	assert.True(t, ok)
	assert.False(t, enabled)

	rate, ok := store.GetFloat64("tracing.sample_rate")
	assert.True(t, ok)
	assert.Equal(t, 0.25, rate)

	props, ok := store.GetStringSlice("tracing.propagators")
	assert.True(t, ok)
	assert.Equal(t, []string{"tracecontext", "baggage"}, props)

	_, ok = store.GetString("database.url")
	assert.False(t, ok)
	assert.False(t, store.IsSet("database.url"))
}

func TestStore_Precedence(t *testing.T) {
	path := writeConfig(t, `
database:
  pool:
    max_size: 10
logging:
  level: warn
`)
	t.Setenv("DATABASE_POOL_MAX_SIZE", "42")

	store, err := NewFactory().NewStore(
		domainconfig.WithConfigFile(path),
		domainconfig.WithAutomaticEnv(),
		domainconfig.WithDefaults(map[string]any{
			"database.pool.max_size": 20,
			"database.pool.min_size": 5,
			"logging.level":          "info",
		}),
	)
	require.NoError(t, err)

	var settings struct {
		Database struct {
			Pool struct {
				MaxSize int `mapstructure:"max_size"`
				MinSize int `mapstructure:"min_size"`
			} `mapstructure:"pool"`
		} `mapstructure:"database"`
		Logging struct {
			Level string `mapstructure:"level"`
		} `mapstructure:"logging"`
	}
	require.NoError(t, store.Unmarshal(&settings))

	assert.Equal(t, 42, settings.Database.Pool.MaxSize, "env beats file")
	assert.Equal(t, 5, settings.Database.Pool.MinSize, "default when unset")
	assert.Equal(t, "warn", settings.Logging.Level, "file beats default")

	require.NoError(t, store.Set("logging.level", "debug"))
	level, _ := store.GetString("logging.level")
	assert.Equal(t, "debug", level)
}

func TestStore_EnvPrefix(t *testing.T) {
	t.Setenv("USERS_LOGGING_LEVEL", "error")

	store, err := NewFactory().NewStore(domainconfig.WithEnvPrefix("USERS"))
	require.NoError(t, err)

	level, ok := store.GetString("logging.level")
	assert.True(t, ok)
	assert.Equal(t, "error", level)
}

func TestStore_UnmarshalKey(t *testing.T) {
	path := writeConfig(t, `
database:
  host: db
  port: 5432
  pool:
    acquire_timeout: 2s
`)
	store, err := NewFactory().NewStore(domainconfig.WithConfigFile(path))
	require.NoError(t, err)

	var db struct {
		Host string
		Port int
		Pool struct {
			AcquireTimeout time.Duration `mapstructure:"acquire_timeout"`
		}
	}
	require.NoError(t, store.UnmarshalKey("database", &db))
	assert.Equal(t, "db", db.Host)
	assert.Equal(t, 5432, db.Port)
	assert.Equal(t, 2*time.Second, db.Pool.AcquireTimeout)
}

func TestStore_Errors(t *testing.T) {
	_, err := NewFactory().NewStore(domainconfig.WithConfigFile(filepath.Join(t.TempDir(), "absent.yaml")))
	assert.ErrorContains(t, err, "reading config")

	_, err = NewFactory().NewStore(domainconfig.WithConfigFile(writeConfig(t, "server: [unterminated")))
	assert.ErrorContains(t, err, "reading config")

	store, err := NewFactory().NewStore()
	require.NoError(t, err)
	assert.EqualError(t, store.Set("", "x"), "empty config key")
}
