package services

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/sitin/internal/config"
	"github.com/fyrsmithlabs/sitin/internal/logging"
	"github.com/fyrsmithlabs/sitin/internal/telemetry"
)

// NewLogger maps the logging section onto a logger. With stderr set, logs
// leave stdout to the MCP stdio protocol and interactive output.
func NewLogger(cfg *config.Config, stderr bool) (*logging.Logger, error) {
	lc, err := logging.NewConfig(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}
	if stderr {
		lc.Output = logging.OutputConfig{Stderr: true}
	}
	return logging.NewLogger(lc, nil)
}

// NewTelemetry maps the telemetry section onto OTEL providers. Exporter
// failures degrade instead of failing; check Degraded.
func NewTelemetry(ctx context.Context, cfg *config.Config, version string) (*telemetry.Telemetry, error) {
	tc := telemetry.NewDefaultConfig()
	tc.Enabled = cfg.Telemetry.Enabled
	if cfg.Telemetry.Endpoint != "" {
		tc.Endpoint = cfg.Telemetry.Endpoint
	}
	if cfg.Telemetry.Protocol != "" {
		tc.Protocol = cfg.Telemetry.Protocol
	}
	tc.Insecure = cfg.Telemetry.Insecure
	if version != "" {
		tc.ServiceVersion = version
	}

	tel, err := telemetry.New(ctx, tc)
	if err != nil {
		return nil, fmt.Errorf("initializing telemetry: %w", err)
	}
	return tel, nil
}
