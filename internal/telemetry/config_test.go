package telemetry

import (
	"testing"
	"time"

	"github.com/fyrsmithlabs/textembed/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.Equal(t, "grpc", cfg.Protocol)
	assert.Equal(t, "textembed", cfg.ServiceName)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.Sampling.Rate)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 15*time.Second, cfg.Metrics.ExportInterval.Duration())
	assert.Equal(t, 5*time.Second, cfg.Shutdown.Timeout.Duration())
	require.NoError(t, cfg.Validate())
}

func TestFromSettings(t *testing.T) {
	cfg := FromSettings(config.TelemetryConfig{
		Enabled:        true,
		Endpoint:       "otel.internal:4318",
		Protocol:       "http/protobuf",
		ServiceName:    "ingest",
		TLSSkipVerify:  true,
		ExportInterval: config.Duration(30 * time.Second),
	}, "1.2.3")

	assert.True(t, cfg.Enabled)
	assert.Equal(t, "otel.internal:4318", cfg.Endpoint)
	assert.Equal(t, "http/protobuf", cfg.Protocol)
	assert.Equal(t, "ingest", cfg.ServiceName)
	assert.Equal(t, "1.2.3", cfg.ServiceVersion)
	assert.False(t, cfg.Insecure)
	assert.True(t, cfg.TLSSkipVerify)
	assert.Equal(t, 30*time.Second, cfg.Metrics.ExportInterval.Duration())
	require.NoError(t, cfg.Validate())
}

func TestFromSettings_ZeroExportIntervalKeepsDefault(t *testing.T) {
	cfg := FromSettings(config.TelemetryConfig{}, "")
	assert.Equal(t, 15*time.Second, cfg.Metrics.ExportInterval.Duration())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"disabled skips checks", func(c *Config) { c.Endpoint = "" }, ""},
		{"enabled defaults", func(c *Config) { c.Enabled = true }, ""},
		{"missing endpoint", func(c *Config) {
			c.Enabled = true
			c.Endpoint = ""
		}, "endpoint is required"},
		{"missing service name", func(c *Config) {
			c.Enabled = true
			c.ServiceName = ""
		}, "service_name"},
		{"missing version", func(c *Config) {
			c.Enabled = true
			c.ServiceVersion = ""
		}, "service_version"},
		{"bad protocol", func(c *Config) {
			c.Enabled = true
			c.Protocol = "udp"
		}, "protocol"},
		{"insecure remote", func(c *Config) {
			c.Enabled = true
			c.Endpoint = "collector.example.com:4317"
		}, "insecure connections"},
		{"secure remote", func(c *Config) {
			c.Enabled = true
			c.Endpoint = "collector.example.com:4317"
			c.Insecure = false
		}, ""},
		{"rate above one", func(c *Config) {
			c.Enabled = true
			c.Sampling.Rate = 1.5
		}, "sampling.rate"},
		{"rate below zero", func(c *Config) {
			c.Enabled = true
			c.Sampling.Rate = -0.1
		}, "sampling.rate"},
		{"zero export interval", func(c *Config) {
			c.Enabled = true
			c.Metrics.ExportInterval = 0
		}, "export_interval"},
		{"zero export interval with metrics off", func(c *Config) {
			c.Enabled = true
			c.Metrics.Enabled = false
			c.Metrics.ExportInterval = 0
		}, ""},
		{"zero shutdown timeout", func(c *Config) {
			c.Enabled = true
			c.Shutdown.Timeout = 0
		}, "shutdown.timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_IsLocalEndpoint(t *testing.T) {
	tests := []struct {
		endpoint string
		want     bool
	}{
		{"localhost:4317", true},
		{"localhost", true},
		{"127.0.0.1:4317", true},
		{"127.1.2.3:4317", true},
		{"[::1]:4317", true},
		{"::1", true},
		{"http://localhost:4318", true},
		{"collector:4317", false},
		{"10.0.0.5:4317", false},
		{"localhost.evil.com:4317", false},
	}

	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			cfg := &Config{Endpoint: tt.endpoint}
			assert.Equal(t, tt.want, cfg.isLocalEndpoint())
		})
	}
}
