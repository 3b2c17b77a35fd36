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

// writeConfigFile writes YAML into a temp dir and returns its path.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inquest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestLoadFullFile verifies that every key is picked up from the file.
func TestLoadFullFile(t *testing.T) {
	path := writeConfigFile(t, `engine:
  cacheCapacity: 64
  cacheTTLSeconds: 60
  analysisTimeoutMs: 1500
  lowConfidenceThreshold: 0.5
knowledgeBase: /etc/inquest/knowledge.yaml
metricsListen: ":9090"
tracing:
  endpoint: otel-collector:4317
  tlsCAPath: /etc/ssl/ca.pem
  tlsInsecure: true
eventBufferSize: 16
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 64, cfg.Engine.CacheCapacity)
	assert.Equal(t, 60, cfg.Engine.CacheTTLSeconds)
	assert.Equal(t, 1500, cfg.Engine.AnalysisTimeoutMs)
	assert.Equal(t, 0.5, cfg.Engine.LowConfidenceThreshold)
	assert.Equal(t, "/etc/inquest/knowledge.yaml", cfg.KnowledgeBase)
	assert.Equal(t, ":9090", cfg.MetricsListen)
	assert.Equal(t, "otel-collector:4317", cfg.Tracing.Endpoint)
	assert.Equal(t, "/etc/ssl/ca.pem", cfg.Tracing.TLSCAPath)
	assert.True(t, cfg.Tracing.TLSInsecure)
	assert.Equal(t, 16, cfg.EventBufferSize)
}

// TestLoadPartialFileKeepsDefaults verifies that absent keys keep their
// default values.
func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := writeConfigFile(t, `engine:
  cacheCapacity: 32
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	want := Default()
	want.Engine.CacheCapacity = 32
	assert.Equal(t, want, cfg)
}

// TestLoadErrors verifies load failures surface with context.
func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load config")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := Load(writeConfigFile(t, "engine: ["))
		require.Error(t, err)
	})

	t.Run("out of range value", func(t *testing.T) {
		_, err := Load(writeConfigFile(t, `engine:
  cacheCapacity: 0
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "engine.cacheCapacity")

		var cerr *ConfigError
		require.True(t, errors.As(err, &cerr))
		assert.Equal(t, "engine.cacheCapacity", cerr.Field)
	})
}

// TestValidate exercises every validation rule.
func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero cache capacity", func(c *Config) { c.Engine.CacheCapacity = 0 }, "engine.cacheCapacity"},
		{"zero cache ttl", func(c *Config) { c.Engine.CacheTTLSeconds = 0 }, "engine.cacheTTLSeconds"},
		{"zero analysis timeout", func(c *Config) { c.Engine.AnalysisTimeoutMs = 0 }, "engine.analysisTimeoutMs"},
		{"negative threshold", func(c *Config) { c.Engine.LowConfidenceThreshold = -0.1 }, "engine.lowConfidenceThreshold"},
		{"threshold above one", func(c *Config) { c.Engine.LowConfidenceThreshold = 1.1 }, "engine.lowConfidenceThreshold"},
		{"zero event buffer", func(c *Config) { c.EventBufferSize = 0 }, "eventBufferSize"},
		{"bad metrics listen", func(c *Config) { c.MetricsListen = "no-port-here" }, "metricsListen"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var cerr *ConfigError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tt.field, cerr.Field)
		})
	}

	t.Run("defaults are valid", func(t *testing.T) {
		cfg := Default()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("port-only metrics listen is valid", func(t *testing.T) {
		cfg := Default()
		cfg.MetricsListen = ":9090"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("explicit zero threshold is valid", func(t *testing.T) {
		cfg := Default()
		cfg.Engine.LowConfidenceThreshold = 0
		assert.NoError(t, cfg.Validate())
	})
}

// TestToEngine verifies unit conversion into the analyzer configuration.
func TestToEngine(t *testing.T) {
	cfg := Default()
	cfg.Engine.CacheTTLSeconds = 90
	cfg.Engine.AnalysisTimeoutMs = 250

	engine := cfg.ToEngine()
	assert.Equal(t, 256, engine.CacheCapacity)
	assert.Equal(t, 90*time.Second, engine.CacheTTL)
	assert.Equal(t, 250*time.Millisecond, engine.DefaultTimeout)
	assert.Equal(t, 0.3, engine.LowConfidenceThreshold)
}
