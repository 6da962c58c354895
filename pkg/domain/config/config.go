// Package config defines the layered settings store: defaults, an optional
// YAML file and the process environment, in increasing precedence.
package config

import (
	"net/http"
	"time"

	"github.com/damianoneill/user-service/pkg/domain/options"
)

// Store reads layered settings. Keys are dotted paths such as
// "database.pool.max_size". The typed getters report false for keys that
// no layer sets.
type Store interface {
	GetString(key string) (string, bool)
	GetInt(key string) (int, bool)
	GetBool(key string) (bool, bool)
	GetDuration(key string) (time.Duration, bool)
	GetFloat64(key string) (float64, bool)
	GetStringSlice(key string) ([]string, bool)

	// Set overrides every other layer for key.
	Set(key string, value any) error
	IsSet(key string) bool

	// ReadConfig (re)loads the configured file.
	ReadConfig() error

	// Unmarshal decodes using mapstructure tags.
	Unmarshal(target any) error
	UnmarshalKey(key string, target any) error
}

// MaskedStore can also render its effective settings with secrets hidden.
type MaskedStore interface {
	Store
	GetMaskedConfig(masker MaskStrategy) (map[string]any, error)
	// GetConfigHandler serves GetMaskedConfig as JSON.
	GetConfigHandler(masker MaskStrategy) http.Handler
}

type Factory interface {
	NewStore(opts ...Option) (MaskedStore, error)
}

type StoreOptions struct {
	ConfigFile string

	// AutomaticEnv binds every key to the upper-cased variable with "."
	// replaced by "_", so database.pool.max_size reads
	// DATABASE_POOL_MAX_SIZE. EnvPrefix, if set, is prepended.
	AutomaticEnv bool
	EnvPrefix    string

	// Defaults registers every key, which Unmarshal needs to see
	// environment overrides.
	Defaults map[string]any
}

type Option = options.Option[StoreOptions]

func WithConfigFile(path string) Option {
	return options.OptionFunc[StoreOptions](func(o *StoreOptions) error {
		o.ConfigFile = path
		return nil
	})
}

// WithEnvPrefix implies WithAutomaticEnv.
func WithEnvPrefix(prefix string) Option {
	return options.OptionFunc[StoreOptions](func(o *StoreOptions) error {
		o.EnvPrefix, o.AutomaticEnv = prefix, true
		return nil
	})
}

func WithAutomaticEnv() Option {
	return options.OptionFunc[StoreOptions](func(o *StoreOptions) error {
		o.AutomaticEnv = true
		return nil
	})
}

func WithDefaults(defaults map[string]any) Option {
	return options.OptionFunc[StoreOptions](func(o *StoreOptions) error {
		o.Defaults = defaults
		return nil
	})
}
