package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/sitin/internal/mcp"
	"github.com/fyrsmithlabs/sitin/internal/periodic"
	"github.com/fyrsmithlabs/sitin/internal/services"
)

func init() {
	rootCmd.AddCommand(mcpCmd)
}

// mcpCmd serves MCP over stdio
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the assistant and lecture board as MCP tools over stdio",
	Long: `Run an MCP server on stdin/stdout with two tools:

  ask_courses     answer a course question with the assistant
  live_lectures   list live, upcoming or catalog lectures

Either tool is left out when its settings are missing. Logs go to stderr.

Example MCP client entry:
  {"command": "sitin", "args": ["mcp"]}`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	s, err := openSession(ctx, services.Needs{Catalog: true, Assistant: true, BestEffort: true})
	if err != nil {
		return err
	}
	defer s.Close()

	window := s.cfg.Schedule.UpcomingWindow.Duration()
	if store := s.reg.Catalog(); store != nil {
		refresh, err := periodic.New("catalog-refresh", "@every "+s.cfg.Schedule.RefreshInterval.Duration().String(),
			func(ctx context.Context) {
				if err := store.Refresh(ctx); err != nil {
					s.logger.Error(ctx, "catalog refresh failed", zap.Error(err))
				}
			}, periodic.Options{Logger: s.logger, RunImmediately: true})
		if err != nil {
			return err
		}
		refresh.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = refresh.Stop(stopCtx)
		}()
	}

	server, err := mcp.NewServer(mcp.Deps{
		Assistant: s.reg.Assistant(),
		Catalog:   s.reg.Catalog(),
		Logger:    s.logger,
		Window:    window,
	}, &mcp.Config{Name: "sitin", Version: version})
	if err != nil {
		return fmt.Errorf("creating mcp server: %w", err)
	}
	return server.Run(ctx)
}
