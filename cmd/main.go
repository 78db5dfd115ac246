package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/bullpen/internal/config"
	"github.com/okian/bullpen/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// ErrUsage reports a missing or unknown subcommand.
var ErrUsage = errors.New("usage: bullpen <features|simulate|serve> [flags]")

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Logs go to stderr; stdout carries command output.
	if err := logger.InitWithOptions(logger.WithWriter(os.Stderr)); err != nil {
		// Use fmt for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			logger.Error(err)
		}
	}()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

// run loads configuration (defaults -> optional file -> env) and dispatches
// the subcommand named by args[0].
func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return ErrUsage
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	configureLogging(ctx, cfg)
	return dispatch(ctx, cfg, args, stdout)
}

func dispatch(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return ErrUsage
	}
	switch args[0] {
	case "features":
		return runFeatures(ctx, cfg, args[1:], stdout)
	case "simulate":
		return runSimulate(ctx, cfg, args[1:], stdout)
	case "serve":
		return runServe(ctx, cfg, args[1:])
	default:
		return fmt.Errorf("unknown command %q: %w", args[0], ErrUsage)
	}
}

// configureLogging applies the configured format and level, falling back to
// info on an invalid level.
func configureLogging(ctx context.Context, cfg *config.Config) {
	if cfg.LogFormat == "json" {
		if err := logger.InitWithOptions(logger.WithWriter(os.Stderr), logger.WithFormat("json")); err != nil {
			os.Stderr.WriteString("failed to switch log format: " + err.Error() + "\n")
		}
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
}
