// Package config loads and validates the inquest configuration file. All
// keys are optional; absent keys keep their defaults, and Validate rejects
// values a component could not start with.
package config

import (
	"net"
	"time"

	"github.com/inquesthq/inquest/internal/analysis"
)

// Config holds all configuration for the application.
//
// Example YAML structure:
//
//	engine:
//	  cacheCapacity: 256
//	  cacheTTLSeconds: 300
//	  analysisTimeoutMs: 3000
//	  lowConfidenceThreshold: 0.3
//	knowledgeBase: /etc/inquest/knowledge.yaml
//	metricsListen: ":9090"
//	tracing:
//	  endpoint: otel-collector:4317
//	eventBufferSize: 64
type Config struct {
	// Engine tunes the analysis engine
	Engine EngineConfig `yaml:"engine"`

	// KnowledgeBase is the path to the knowledge-base YAML file.
	// Empty disables knowledge enrichment.
	KnowledgeBase string `yaml:"knowledgeBase"`

	// MetricsListen is the host:port the Prometheus scrape endpoint binds.
	// Empty disables the listener.
	MetricsListen string `yaml:"metricsListen"`

	// Tracing configures OTLP trace export. An empty endpoint disables it.
	Tracing TracingConfig `yaml:"tracing"`

	// EventBufferSize is the per-subscriber buffer of the event bus
	EventBufferSize int `yaml:"eventBufferSize"`
}

// EngineConfig tunes the analysis engine.
type EngineConfig struct {
	// CacheCapacity is the maximum number of cached analysis results
	CacheCapacity int `yaml:"cacheCapacity"`

	// CacheTTLSeconds is how long a cached result stays fresh
	CacheTTLSeconds int `yaml:"cacheTTLSeconds"`

	// AnalysisTimeoutMs is the default strategy execution deadline
	AnalysisTimeoutMs int `yaml:"analysisTimeoutMs"`

	// LowConfidenceThreshold is the overall confidence below which a result
	// gets a manual-investigation hint. Range [0,1].
	LowConfidenceThreshold float64 `yaml:"lowConfidenceThreshold"`
}

// TracingConfig configures the OTLP gRPC trace exporter.
type TracingConfig struct {
	// Endpoint is the OTLP gRPC endpoint (host:port). Empty disables tracing.
	Endpoint string `yaml:"endpoint"`

	// TLSCAPath is the CA certificate used to verify the collector.
	// Empty with TLSInsecure false means system roots.
	TLSCAPath string `yaml:"tlsCAPath"`

	// TLSInsecure disables transport security entirely
	TLSInsecure bool `yaml:"tlsInsecure"`
}

// Default returns the configuration used when no file or key is given.
func Default() Config {
	return Config{
		Engine: EngineConfig{
			CacheCapacity:          256,
			CacheTTLSeconds:        300,
			AnalysisTimeoutMs:      3000,
			LowConfidenceThreshold: 0.3,
		},
		EventBufferSize: 64,
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Engine.CacheCapacity < 1 {
		return NewConfigError("engine.cacheCapacity", "must be at least 1")
	}
	if c.Engine.CacheTTLSeconds < 1 {
		return NewConfigError("engine.cacheTTLSeconds", "must be at least 1")
	}
	if c.Engine.AnalysisTimeoutMs < 1 {
		return NewConfigError("engine.analysisTimeoutMs", "must be at least 1")
	}
	if c.Engine.LowConfidenceThreshold < 0 || c.Engine.LowConfidenceThreshold > 1 {
		return NewConfigError("engine.lowConfidenceThreshold", "must be between 0 and 1")
	}
	if c.EventBufferSize < 1 {
		return NewConfigError("eventBufferSize", "must be at least 1")
	}
	if c.MetricsListen != "" {
		if _, _, err := net.SplitHostPort(c.MetricsListen); err != nil {
			return NewConfigError("metricsListen", "must be a host:port address")
		}
	}
	return nil
}

// ToEngine converts the engine section into the analyzer's configuration.
func (c *Config) ToEngine() analysis.Config {
	return analysis.Config{
		CacheCapacity:          c.Engine.CacheCapacity,
		CacheTTL:               time.Duration(c.Engine.CacheTTLSeconds) * time.Second,
		DefaultTimeout:         time.Duration(c.Engine.AnalysisTimeoutMs) * time.Millisecond,
		LowConfidenceThreshold: c.Engine.LowConfidenceThreshold,
	}
}

// ConfigError represents a configuration error tied to a specific field.
type ConfigError struct {
	Field   string
	Message string
}

// NewConfigError creates a new configuration error.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// Error returns the error message.
func (e *ConfigError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}
