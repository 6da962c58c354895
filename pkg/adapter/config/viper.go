// Package config implements the settings store on viper.
package config

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	domainconfig "github.com/damianoneill/user-service/pkg/domain/config"
	"github.com/damianoneill/user-service/pkg/domain/options"
)

var (
	_ domainconfig.Factory     = (*Factory)(nil)
	_ domainconfig.MaskedStore = (*ViperStore)(nil)
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

// NewStore builds a store and reads the config file if one is named. A
// missing or malformed file is an error.
func (f *Factory) NewStore(opts ...domainconfig.Option) (domainconfig.MaskedStore, error) {
	o, err := options.Build(domainconfig.StoreOptions{}, opts...)
	if err != nil {
		return nil, fmt.Errorf("applying option: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if o.EnvPrefix != "" {
		v.SetEnvPrefix(o.EnvPrefix)
	}
	if o.AutomaticEnv {
		v.AutomaticEnv()
	}
	for key, value := range o.Defaults {
		v.SetDefault(key, value)
	}

	s := &ViperStore{v: v}
	if o.ConfigFile != "" {
		v.SetConfigFile(o.ConfigFile)
		if err := s.ReadConfig(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// ViperStore guards a viper instance, which is not safe for concurrent
// writes.
type ViperStore struct {
	mu sync.RWMutex
	v  *viper.Viper
}

// lookup returns get(key) when some layer sets key.
func lookup[T any](s *ViperStore, key string, get func(string) T) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.v.IsSet(key) {
		var zero T
		return zero, false
	}
	return get(key), true
}

func (s *ViperStore) GetString(key string) (string, bool) {
	return lookup(s, key, s.v.GetString)
}

func (s *ViperStore) GetInt(key string) (int, bool) {
	return lookup(s, key, s.v.GetInt)
}

func (s *ViperStore) GetBool(key string) (bool, bool) {
	return lookup(s, key, s.v.GetBool)
}

func (s *ViperStore) GetDuration(key string) (time.Duration, bool) {
	return lookup(s, key, s.v.GetDuration)
}

func (s *ViperStore) GetFloat64(key string) (float64, bool) {
	return lookup(s, key, s.v.GetFloat64)
}

func (s *ViperStore) GetStringSlice(key string) ([]string, bool) {
	return lookup(s, key, s.v.GetStringSlice)
}

func (s *ViperStore) IsSet(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.IsSet(key)
}

func (s *ViperStore) Set(key string, value any) error {
	if key == "" {
		return fmt.Errorf("empty config key")
	}
	s.mu.Lock()
	s.v.Set(key, value)
	s.mu.Unlock()
	return nil
}

func (s *ViperStore) ReadConfig() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

func (s *ViperStore) Unmarshal(target any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.Unmarshal(target)
}

func (s *ViperStore) UnmarshalKey(key string, target any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.UnmarshalKey(key, target)
}

// GetMaskedConfig returns all effective settings as a nested map. A nil
// masker hides DefaultSensitiveKeys.
func (s *ViperStore) GetMaskedConfig(masker domainconfig.MaskStrategy) (map[string]any, error) {
	if masker == nil {
		masker = &domainconfig.DefaultMaskStrategy{SensitiveKeys: domainconfig.DefaultSensitiveKeys}
	}

	s.mu.RLock()
	all := s.v.AllSettings()
	s.mu.RUnlock()

	return mask("", all, masker), nil
}

func (s *ViperStore) GetConfigHandler(masker domainconfig.MaskStrategy) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		settings, err := s.GetMaskedConfig(masker)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		body, err := json.Marshal(settings)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	})
}

// mask walks settings depth first. A subtree whose own key is sensitive,
// such as "credentials", is replaced whole.
func mask(prefix string, settings map[string]any, masker domainconfig.MaskStrategy) map[string]any {
	out := make(map[string]any, len(settings))
	for k, v := range settings {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}

		nested, isTree := v.(map[string]any)
		if !isTree {
			out[k] = masker.MaskValue(path, v)
			continue
		}
		if m := masker.MaskValue(path, nested); !isMap(m) {
			out[k] = m
			continue
		}
		out[k] = mask(path, nested, masker)
	}
	return out
}

func isMap(v any) bool {
	_, ok := v.(map[string]any)
	return ok
}
