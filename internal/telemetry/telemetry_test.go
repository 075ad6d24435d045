package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "disabled skips checks", mutate: func(c *Config) { c.Endpoint = "" }},
		{name: "enabled local insecure", mutate: func(c *Config) { c.Enabled = true }},
		{name: "enabled ipv6 loopback", mutate: func(c *Config) { c.Enabled = true; c.Endpoint = "[::1]:4317" }},
		{name: "insecure remote rejected", mutate: func(c *Config) { c.Enabled = true; c.Endpoint = "otel.example.com:4317" }, wantErr: true},
		{name: "secure remote allowed", mutate: func(c *Config) { c.Enabled = true; c.Insecure = false; c.Endpoint = "otel.example.com:4317" }},
		{name: "bad protocol", mutate: func(c *Config) { c.Enabled = true; c.Protocol = "udp" }, wantErr: true},
		{name: "bad sample rate", mutate: func(c *Config) { c.Enabled = true; c.SampleRate = 1.5 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNew_DisabledIsNoop(t *testing.T) {
	tel, err := New(context.Background(), NewDefaultConfig())
	require.NoError(t, err)
	assert.NotNil(t, tel.Tracer("x"))
	assert.NotNil(t, tel.Meter("x"))
	assert.NoError(t, tel.Degraded())
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestTestTelemetry_Records(t *testing.T) {
	tel := NewTestTelemetry()

	_, span := tel.Tracer("test").Start(context.Background(), "assistant.answer")
	span.End()
	assert.Equal(t, []string{"assistant.answer"}, tel.SpanNames())

	counter, err := tel.Meter("test").Int64Counter("sitin.test.count")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)
	assert.Contains(t, tel.MetricNames(t), "sitin.test.count")
}
