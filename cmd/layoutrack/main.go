package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/layoutrack/adapter/cli"
	"github.com/felixgeelhaar/layoutrack/adapter/cli/layout"
	"github.com/felixgeelhaar/layoutrack/internal/app"
	"github.com/felixgeelhaar/layoutrack/pkg/config"
	"github.com/felixgeelhaar/layoutrack/pkg/observability"
)

func main() {
	// Create context cancelled on shutdown signals
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.NewLogConfig(cfg.AppEnv, cfg.LogLevel, cfg.LogFormat, cli.Version))
	slog.SetDefault(logger)
	cli.SetLogger(logger)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}

	cli.SetApp(cli.NewApp(container))
	cli.AddCommand(layout.Cmd)

	code := 0
	if err := cli.Run(ctx); err != nil {
		code = 1
	}
	container.Close()
	os.Exit(code)
}
