package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:5000", cfg.Source.BaseURL)
	assert.Equal(t, "/api/streets", cfg.Source.StreetsPath)
	assert.Equal(t, "/api/boundaries", cfg.Source.BoundariesPath)
	assert.Equal(t, 30*time.Second, cfg.Source.Timeout())
	assert.Equal(t, 1, cfg.Source.MaxRetries)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5000, cfg.Data.Port)
	assert.Equal(t, "street_lvi.geojson", cfg.Data.StreetsFile)
	assert.Equal(t, "chicago_boundaries.geojson", cfg.Data.BoundariesFile)
	assert.InDelta(t, 41.8781, cfg.Map.CenterLat, 1e-9)
	assert.InDelta(t, -87.6298, cfg.Map.CenterLon, 1e-9)
	assert.Equal(t, 10, cfg.Map.Zoom)
	assert.Equal(t, time.Hour, cfg.Map.TileCacheTTL())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
source:
  base_url: http://data.internal:9000
log:
  level: debug
  format: console
server:
  port: 9090
map:
  zoom: 12
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://data.internal:9000", cfg.Source.BaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 12, cfg.Map.Zoom)
	// Defaults still apply for unset values
	assert.Equal(t, "/api/streets", cfg.Source.StreetsPath)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
source:
  base_url: http://from-file:5000
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("STREETVIZ_SOURCE_BASE_URL", "http://from-env:5000")
	t.Setenv("STREETVIZ_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "http://from-env:5000", cfg.Source.BaseURL)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("STREETVIZ_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Source.BaseURL = "http://127.0.0.1:5000"
	cfg.Source.TimeoutSecs = 30
	cfg.Source.MaxRetries = 1
	cfg.Server.Port = 8080
	cfg.Data.Port = 5000
	cfg.Data.StreetsFile = "street_lvi.geojson"
	cfg.Data.BoundariesFile = "chicago_boundaries.geojson"
	cfg.Map.TileCacheSize = 100
	return cfg
}

func TestValidateServe_Valid(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("serve"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateRender_MissingSource(t *testing.T) {
	cfg := validDefaults()
	cfg.Source.BaseURL = ""
	cfg.Source.MaxRetries = 0

	err := cfg.Validate("render")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "source.base_url is required")
	assert.Contains(t, err.Error(), "source.max_retries must be >= 1")
}

func TestValidateData_MissingFiles(t *testing.T) {
	cfg := validDefaults()
	cfg.Data.StreetsFile = ""
	cfg.Data.BoundariesFile = ""

	err := cfg.Validate("data")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "data.streets_file is required")
	assert.Contains(t, err.Error(), "data.boundaries_file is required")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
