// Sitind serves the sit-in lecture board API and the course assistant.
//
// It loads the catalog from Airtable, keeps live and upcoming counts
// current on a cron schedule and answers chat questions over HTTP.
//
// Configuration is read from ~/.config/sitin/config.yaml, an optional .env
// file and the environment. See internal/config for the keys.
//
// Usage:
//
//	# Start with defaults
//	sitind
//
//	# Configure via environment
//	SERVER_PORT=8080 VECTOR_PROVIDER=chromem sitind
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/sitin/internal/config"
	"github.com/fyrsmithlabs/sitin/internal/http"
	"github.com/fyrsmithlabs/sitin/internal/logging"
	"github.com/fyrsmithlabs/sitin/internal/periodic"
	"github.com/fyrsmithlabs/sitin/internal/schedule"
	"github.com/fyrsmithlabs/sitin/internal/services"
	"github.com/fyrsmithlabs/sitin/internal/telemetry"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// errNothingToServe is returned when neither the catalog nor the assistant
// is configured.
var errNothingToServe = errors.New("neither airtable nor the assistant is configured")

type options struct {
	configPath string
	envFile    string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "config file (default ~/.config/sitin/config.yaml)")
	flag.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the environment")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  sitind           Start the sitin daemon\n")
			fmt.Fprintf(os.Stderr, "  sitind version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, opts); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("sitind\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// loadEnv loads a dotenv file without overriding variables already set.
// A missing file is not an error.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// run starts the daemon and blocks until ctx is cancelled.
//
//  1. Loads the dotenv file and configuration
//  2. Initializes logger and telemetry
//  3. Builds the catalog and assistant, each optional
//  4. Loads the catalog and schedules refresh and reclassification
//  5. Serves HTTP until ctx is done, then shuts down in reverse order
func run(ctx context.Context, opts options) error {
	if err := loadEnv(opts.envFile); err != nil {
		return err
	}
	cfg, err := config.LoadWithFile(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := services.NewLogger(cfg, false)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	tel, err := services.NewTelemetry(ctx, cfg, version)
	if err != nil {
		return err
	}
	if err := tel.Degraded(); err != nil {
		logger.Warn(ctx, "telemetry degraded", zap.Error(err))
	}
	defer shutdownTelemetry(tel, logger)

	reg, err := services.Build(ctx, cfg, logger, tel.MeterProvider(), services.Needs{
		Catalog:    true,
		Assistant:  true,
		BestEffort: true,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() {
		if err := reg.Close(); err != nil {
			logger.Warn(context.Background(), "closing services", zap.Error(err))
		}
	}()
	if reg.Catalog() == nil && reg.Assistant() == nil {
		return fmt.Errorf("%w: %w", errNothingToServe, errors.Join(cfg.RequireAirtable(), cfg.RequireAssistant()))
	}

	window := cfg.Schedule.UpcomingWindow.Duration()
	if reg.Catalog() != nil {
		tasks, err := startTasks(cfg, reg, logger)
		if err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
			defer cancel()
			for _, t := range tasks {
				if err := t.Stop(stopCtx); err != nil {
					logger.Warn(stopCtx, "stopping task", zap.Error(err))
				}
			}
		}()
	}

	srv, err := http.NewServer(http.Deps{
		Assistant:     reg.Assistant(),
		Catalog:       reg.Catalog(),
		Logger:        logger,
		MeterProvider: tel.MeterProvider(),
		Window:        window,
	}, &http.Config{Host: cfg.Server.Host, Port: cfg.Server.Port})
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	logger.Info(ctx, "server configured",
		zap.String("health_endpoint", fmt.Sprintf("http://%s:%d/health", cfg.Server.Host, cfg.Server.Port)),
		zap.String("metrics_endpoint", "/metrics"),
		zap.Bool("assistant", reg.Assistant() != nil),
		zap.Bool("catalog", reg.Catalog() != nil))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if errors.Is(err, nethttp.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// startTasks schedules the catalog refresh and the live/upcoming
// reclassification. The refresh runs once immediately so the board is
// populated before the first tick.
func startTasks(cfg *config.Config, reg services.Registry, logger *logging.Logger) ([]*periodic.Task, error) {
	store := reg.Catalog()
	window := cfg.Schedule.UpcomingWindow.Duration()
	taskOpts := periodic.Options{Logger: logger, Location: schedule.Pacific}

	refreshOpts := taskOpts
	refreshOpts.RunImmediately = true
	refresh, err := periodic.New("catalog-refresh", everySpec(cfg.Schedule.RefreshInterval.Duration()),
		func(ctx context.Context) {
			if err := store.Refresh(ctx); err != nil {
				logger.Error(ctx, "catalog refresh failed", zap.Error(err))
				return
			}
			store.Reclassify(time.Now(), window)
		}, refreshOpts)
	if err != nil {
		return nil, err
	}

	reclassify, err := periodic.New("reclassify", everySpec(cfg.Schedule.ReclassifyInterval.Duration()),
		func(ctx context.Context) {
			live, upcoming := store.Reclassify(time.Now(), window)
			logger.Debug(ctx, "lectures reclassified", zap.Int("live", live), zap.Int("upcoming", upcoming))
		}, taskOpts)
	if err != nil {
		return nil, err
	}

	tasks := []*periodic.Task{refresh, reclassify}
	for _, t := range tasks {
		t.Start()
	}
	return tasks, nil
}

func everySpec(d time.Duration) string {
	return "@every " + d.String()
}

func shutdownTelemetry(tel *telemetry.Telemetry, logger *logging.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tel.Shutdown(ctx); err != nil {
		logger.Warn(ctx, "telemetry shutdown", zap.Error(err))
	}
}
