package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geniass/pricewatch/pkg/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
resolver:
  categories:
    GPU:
      min: 150
      max: 4000
    monitor:
      min: 80
      max: 3000
  selectors:
    core_display:
      - "#price .now"
fetcher:
  renderer: chromedp
  timeout: 10s
tracker:
  concurrency: 8
store:
  driver: sqlite
  path: /tmp/pricewatch.db
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, config.RendererChromedp, cfg.Fetcher.Renderer)
	assert.Equal(t, 10*time.Second, cfg.Fetcher.Timeout)
	assert.Equal(t, 1920, cfg.Fetcher.ViewportWidth)
	assert.Equal(t, 8, cfg.Tracker.Concurrency)
	assert.Equal(t, "@every 6h", cfg.Tracker.Schedule)
	assert.Equal(t, config.DriverSQLite, cfg.Store.Driver)

	rc, err := cfg.Resolver.Build()
	require.NoError(t, err)
	assert.Equal(t, "[150.00, 4000.00]", rc.Range("gpu").String())
	assert.Equal(t, "[80.00, 3000.00]", rc.Range("monitor").String())
	assert.Equal(t, "[50.00, 2000.00]", rc.Range("cpu").String(), "defaults are kept")
	assert.Equal(t, "[1.00, 50000.00]", rc.Range("unknown").String())
	assert.Equal(t, []string{"#price .now"}, rc.Selectors.CoreDisplay)
	assert.NotEmpty(t, rc.Selectors.PurchaseBox)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "tracker:\n  concurrency: 8\n")
	t.Setenv("PRICEWATCH_TRACKER_CONCURRENCY", "2")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Tracker.Concurrency)
}

func TestStoreConfig_Source(t *testing.T) {
	path := writeConfig(t, "store:\n  driver: postgres\n")
	t.Setenv("PRICEWATCH_STORE_DSN", "postgres://pw@localhost/pricewatch?sslmode=disable")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://pw@localhost/pricewatch?sslmode=disable", cfg.Store.Source())

	cfg.Store.Driver = config.DriverSQLite
	assert.Equal(t, "./data", cfg.Store.Source())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "zero concurrency", body: "tracker:\n  concurrency: 0\n"},
		{name: "unknown renderer", body: "fetcher:\n  renderer: lynx\n"},
		{name: "unknown driver", body: "store:\n  driver: mongo\n"},
		{name: "postgres without dsn", body: "store:\n  driver: postgres\n"},
		{name: "inverted range", body: "resolver:\n  categories:\n    gpu:\n      min: 500\n      max: 100\n"},
		{name: "unknown selector set", body: "resolver:\n  selectors:\n    banner: [\".x\"]\n"},
		{name: "bad selector", body: "resolver:\n  selectors:\n    whole: [\"div[\"]\n"},
		{name: "negative min elements", body: "resolver:\n  min_elements: -1\n"},
		{name: "bad log level", body: "log:\n  level: loud\n"},
	}

	for _, tt := range tests {
		_, err := config.Load(writeConfig(t, tt.body))
		require.Error(t, err, tt.name)
	}
}
