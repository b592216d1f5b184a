package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearStoreEnv(t *testing.T) {
	t.Helper()
	for _, k := range append(append([]string{"CONFIG_PATH"}, StoreURLVars...), StoreKeyVars...) {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearStoreEnv(t)
	t.Setenv("SUPABASE_URL", "https://abc.supabase.co")
	t.Setenv("SUPABASE_ANON_KEY", "anon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvLocal, cfg.Env)
	assert.Equal(t, ":8080", cfg.HTTPServer.Address)
	assert.Equal(t, 10*time.Second, cfg.HTTPServer.ShutdownTimeout)
	assert.Equal(t, []string{"*"}, cfg.HTTPServer.AllowedOrigins)
	assert.Equal(t, "https://abc.supabase.co", cfg.Store.URL)
	assert.Equal(t, "anon", cfg.Store.Key)
	assert.Equal(t, "listings.created", cfg.Events.ListingCreated)
	assert.Equal(t, "LISTINGS", cfg.Events.Stream)
	assert.Equal(t, 5*time.Second, cfg.Events.PublishTimeout)
	assert.Equal(t, "fbmp-listings", cfg.Telemetry.ServiceName)
}

func TestLoad_FirstNonEmptyAlternateWins(t *testing.T) {
	clearStoreEnv(t)
	t.Setenv("VITE_SUPABASE_URL", "https://vite.supabase.co")
	t.Setenv("VITE_SUPABASE_ANON_KEY", "vite-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://vite.supabase.co", cfg.Store.URL)
	assert.Equal(t, "vite-key", cfg.Store.Key)

	t.Setenv("SUPABASE_URL", "https://primary.supabase.co")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "https://primary.supabase.co", cfg.Store.URL)
	assert.Equal(t, "vite-key", cfg.Store.Key)
}

func TestLoad_MissingStoreIsStructuredError(t *testing.T) {
	clearStoreEnv(t)

	_, err := Load()
	require.Error(t, err)

	var cfgErr *Error
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, []string{
		"SUPABASE_URL or VITE_SUPABASE_URL",
		"SUPABASE_ANON_KEY or VITE_SUPABASE_ANON_KEY",
	}, cfgErr.Missing)
	assert.Contains(t, err.Error(), "missing required environment")
}

func TestLoad_MissingKeyOnly(t *testing.T) {
	clearStoreEnv(t)
	t.Setenv("SUPABASE_URL", "postgres://fbmp@localhost:5432/fbmp")

	_, err := Load()

	var cfgErr *Error
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, []string{"SUPABASE_ANON_KEY or VITE_SUPABASE_ANON_KEY"}, cfgErr.Missing)
}

func TestLoad_FromYAMLFile(t *testing.T) {
	clearStoreEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
env: prod
http_server:
  address: ":9090"
store:
  url: "https://file.supabase.co"
  key: "file-key"
`), 0o600))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvProd, cfg.Env)
	assert.Equal(t, ":9090", cfg.HTTPServer.Address)
	assert.Equal(t, "https://file.supabase.co", cfg.Store.URL)
	assert.Equal(t, "file-key", cfg.Store.Key)
}
