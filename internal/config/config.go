// Package config provides configuration loading for textembed.
//
// Configuration is read from an optional YAML file and environment variables
// on top of built-in defaults. The embeddings section is owned by the
// ingestion pipeline's operators; the provider reads it on every call.
package config

import (
	"errors"
	"fmt"
)

// Default values applied when a field is missing from file and environment.
const (
	DefaultProvider    = "hash"
	DefaultModel       = "BAAI/bge-small-en-v1.5"
	DefaultDim         = 8
	DefaultMaxLength   = 512
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "json"
	DefaultServiceName = "textembed"
	DefaultEndpoint    = "localhost:4317"
)

// Config holds the complete textembed configuration.
type Config struct {
	Embeddings EmbeddingsConfig `koanf:"embeddings"`
	Logging    LoggingConfig    `koanf:"logging"`
	Telemetry  TelemetryConfig  `koanf:"telemetry"`
}

// EmbeddingsConfig selects and parameterizes the embedding strategy.
type EmbeddingsConfig struct {
	// Provider is "sentence-transformers" (or "fastembed") for the pretrained
	// model; any other value selects the hash fallback.
	Provider string `koanf:"provider"`

	// Model is the model identifier handed to the pretrained loader.
	Model string `koanf:"model"`

	// Dim is the hash fallback dimension. Never rejected, see Dim.
	Dim Dim `koanf:"dim"`

	// CacheDir is where model weights are downloaded. Empty uses the
	// loader's default.
	CacheDir string `koanf:"cache_dir"`

	// MaxLength is the maximum token sequence length for the model.
	MaxLength int `koanf:"max_length"`

	// ONNXVersion pins the ONNX runtime release installed by `textembed init`.
	// Empty uses the version matching the bundled onnxruntime_go.
	ONNXVersion string `koanf:"onnx_version"`
}

// LoggingConfig holds the subset of logging settings exposed in the file.
type LoggingConfig struct {
	Level    string `koanf:"level"`
	Format   string `koanf:"format"`
	Sampling bool   `koanf:"sampling"`
}

// TelemetryConfig holds the subset of OpenTelemetry settings exposed in the file.
type TelemetryConfig struct {
	Enabled       bool   `koanf:"enabled"`
	Endpoint      string `koanf:"endpoint"`
	Protocol      string `koanf:"protocol"`
	ServiceName   string `koanf:"service_name"`
	Insecure      bool   `koanf:"insecure"`
	TLSSkipVerify bool   `koanf:"tls_skip_verify"`

	// ExportInterval is how often metrics are pushed. Zero uses the
	// telemetry default.
	ExportInterval Duration `koanf:"export_interval"`
}

// Default returns a configuration populated with defaults only.
func Default() *Config {
	cfg := &Config{
		Embeddings: EmbeddingsConfig{Dim: DefaultDim},
		Logging:    LoggingConfig{Sampling: true},
		Telemetry:  TelemetryConfig{Insecure: true},
	}
	applyDefaults(cfg)
	return cfg
}

// Validate validates the configuration.
//
// Embeddings.Dim is not checked; the embedding layer clamps it at use.
func (c *Config) Validate() error {
	if c.Embeddings.Model == "" {
		return errors.New("embeddings.model must not be empty")
	}
	if c.Embeddings.MaxLength < 0 {
		return fmt.Errorf("embeddings.max_length must be >= 0, got %d", c.Embeddings.MaxLength)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", c.Logging.Format)
	}

	if c.Telemetry.Enabled {
		if c.Telemetry.Endpoint == "" {
			return errors.New("telemetry.endpoint required when telemetry is enabled")
		}
		switch c.Telemetry.Protocol {
		case "", "grpc", "http/protobuf":
		default:
			return fmt.Errorf("telemetry.protocol must be 'grpc' or 'http/protobuf', got %q", c.Telemetry.Protocol)
		}
	}

	return nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Embeddings.Provider == "" {
		cfg.Embeddings.Provider = DefaultProvider
	}
	if cfg.Embeddings.Model == "" {
		cfg.Embeddings.Model = DefaultModel
	}
	if cfg.Embeddings.MaxLength == 0 {
		cfg.Embeddings.MaxLength = DefaultMaxLength
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}

	if cfg.Telemetry.Endpoint == "" {
		cfg.Telemetry.Endpoint = DefaultEndpoint
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = DefaultServiceName
	}
}
