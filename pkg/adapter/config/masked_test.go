package config

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainconfig "github.com/damianoneill/user-service/pkg/domain/config"
)

func newStore(t *testing.T, settings map[string]any) domainconfig.MaskedStore {
	t.Helper()
	store, err := NewFactory().NewStore()
	require.NoError(t, err)
	for k, v := range settings {
		require.NoError(t, store.Set(k, v))
	}
	return store
}

func TestGetMaskedConfig(t *testing.T) {
	tests := []struct {
		name     string
		settings map[string]any
		masker   domainconfig.MaskStrategy
		want     map[string]any
	}{
		{
			name: "default hides password and url",
			settings: map[string]any{
				"database": map[string]any{
					"host":     "db",
					"password": "hunter2",
					"url":      "postgres://users:hunter2@db:5432/users",
				},
			},
			want: map[string]any{
				"database": map[string]any{
					"host":     "db",
					"password": domainconfig.Mask,
					"url":      domainconfig.Mask,
				},
			},
		},
		{
			name:     "sensitive subtree hidden whole",
			settings: map[string]any{"credentials": map[string]any{"user": "admin"}},
			want:     map[string]any{"credentials": domainconfig.Mask},
		},
		{
			name: "custom keys at depth",
			settings: map[string]any{
				"tracing": map[string]any{
					"endpoint": "otel:4317",
					"headers":  map[string]any{"api_key": "k"},
				},
			},
			masker: &domainconfig.DefaultMaskStrategy{SensitiveKeys: []string{"api_key"}},
			want: map[string]any{
				"tracing": map[string]any{
					"endpoint": "otel:4317",
					"headers":  map[string]any{"api_key": domainconfig.Mask},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := newStore(t, tt.settings).GetMaskedConfig(tt.masker)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetConfigHandler(t *testing.T) {
	store := newStore(t, map[string]any{
		"database": map[string]any{"host": "db", "password": "hunter2"},
	})
	handler := store.GetConfigHandler(nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/internal/config", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotContains(t, rec.Body.String(), "hunter2")

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, map[string]any{
		"database": map[string]any{"host": "db", "password": domainconfig.Mask},
	}, got)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/internal/config", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodGet, rec.Header().Get("Allow"))
}
