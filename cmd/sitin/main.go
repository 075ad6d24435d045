// Package main implements the sitin CLI: ask the course assistant, list
// lectures, run the interactive board, populate the vector index and serve
// MCP over stdio.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/sitin/internal/config"
	"github.com/fyrsmithlabs/sitin/internal/logging"
	"github.com/fyrsmithlabs/sitin/internal/services"
)

var (
	// serverURL is the base URL of a running sitind
	serverURL string
	// configPath overrides ~/.config/sitin/config.yaml
	configPath string
	// envFile is loaded before the environment
	envFile string
	// version information
	version = "dev"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sitin",
	Short: "Find UCSD lectures to sit in on",
	Long: `sitin shows which UCSD lectures are happening now or starting soon and
answers questions about courses through a retrieval-augmented assistant.

Most commands work against a running sitind (--server); --local runs the
assistant in-process from the local configuration instead.`,
	Version:       version,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:3000", "sitind server URL")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/sitin/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment")
}

// loadConfig loads the dotenv file and the configuration.
func loadConfig() (*config.Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return cfg, nil
}

// session is what local commands share: configuration, a stderr logger
// and the services they asked for.
type session struct {
	cfg    *config.Config
	logger *logging.Logger
	reg    services.Registry
}

func openSession(ctx context.Context, needs services.Needs) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	// stdout belongs to command output and the MCP protocol.
	logger, err := services.NewLogger(cfg, true)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	reg, err := services.Build(ctx, cfg, logger, nil, needs)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return &session{cfg: cfg, logger: logger, reg: reg}, nil
}

func (s *session) Close() {
	_ = s.reg.Close()
	_ = s.logger.Sync()
}
