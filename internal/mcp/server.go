package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/sitin/internal/assistant"
	"github.com/fyrsmithlabs/sitin/internal/catalog"
	"github.com/fyrsmithlabs/sitin/internal/logging"
	"github.com/fyrsmithlabs/sitin/internal/schedule"
)

// Server exposes the assistant and the lecture listing as MCP tools.
type Server struct {
	mcp     *mcp.Server
	deps    Deps
	metrics *Metrics
	logger  *logging.Logger
}

// Config configures the MCP implementation metadata.
type Config struct {
	// Name is the implementation name (default: "sitin")
	Name string

	// Version is the implementation version (default: "dev")
	Version string
}

// DefaultConfig returns the default implementation metadata.
func DefaultConfig() *Config {
	return &Config{Name: "sitin", Version: "dev"}
}

// Deps are the services behind the tools. At least one of Assistant and
// Catalog is required; a tool is only registered when its service is set.
type Deps struct {
	Assistant assistant.Answerer
	Catalog   *catalog.Store
	Logger    *logging.Logger

	MeterProvider metric.MeterProvider

	Window time.Duration
	Now    func() time.Time
}

// NewServer creates the MCP server and registers its tools.
func NewServer(deps Deps, cfg *Config) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if deps.Assistant == nil && deps.Catalog == nil {
		return nil, errors.New("assistant or catalog is required")
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	if deps.Window <= 0 {
		deps.Window = schedule.DefaultUpcomingWindow
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	logger := deps.Logger.Named("mcp")

	s := &Server{
		mcp: mcp.NewServer(&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		}, nil),
		deps:    deps,
		metrics: NewMetrics(deps.MeterProvider, logger.Underlying()),
		logger:  logger,
	}
	s.registerTools()
	return s, nil
}

// Run serves on the stdio transport until ctx is done or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info(ctx, "starting MCP server on stdio transport")
	if err := s.mcp.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("server run failed: %w", err)
	}
	return nil
}

// instrumented wraps a tool handler with metrics and failure logging.
// Failures are logged here once and the client sees a generic message
// unless the error describes its own input.
func instrumented[In, Out any](s *Server, tool string, h mcp.ToolHandlerFor[In, Out]) mcp.ToolHandlerFor[In, Out] {
	return func(ctx context.Context, req *mcp.CallToolRequest, in In) (*mcp.CallToolResult, Out, error) {
		s.metrics.IncrementActive(ctx, tool)
		defer s.metrics.DecrementActive(ctx, tool)

		start := time.Now()
		res, out, err := h(ctx, req, in)
		s.metrics.RecordInvocation(ctx, tool, time.Since(start), err)
		if err != nil {
			s.logger.Warn(ctx, "tool call failed", zap.String("tool", tool), zap.Error(err))
			return res, out, publicError(err)
		}
		return res, out, nil
	}
}

func publicError(err error) error {
	switch {
	case errors.Is(err, assistant.ErrEmptyQuery),
		errors.Is(err, errInvalidArgument),
		errors.Is(err, errUnavailable):
		return err
	default:
		return errors.New(errProcessRequest)
	}
}
