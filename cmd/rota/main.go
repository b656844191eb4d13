package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/domicare/rota/adapter/cli"
	cliAvailability "github.com/domicare/rota/adapter/cli/availability"
	cliDirectory "github.com/domicare/rota/adapter/cli/directory"
	cliSchedule "github.com/domicare/rota/adapter/cli/schedule"
	cliSettings "github.com/domicare/rota/adapter/cli/settings"
	"github.com/domicare/rota/internal/app"
	"github.com/domicare/rota/pkg/config"
	"github.com/domicare/rota/pkg/observability"
)

func main() {
	logger := observability.LoggerFromEnv()

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Warn("failed to load config, using development mode", "error", err)
		cfg = &config.Config{AppEnv: "development"}
	}
	cli.SetLogger(logger)

	// Try to initialize the full container. An unreachable database is
	// fatal in production; in development the CLI still runs so that
	// version/help work without services.
	var cliApp *cli.App
	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		if cfg.IsDevelopment() {
			logger.Warn("failed to initialize container, running in limited mode", "error", err)
			cliApp = nil
		} else {
			logger.Error("failed to initialize container", "error", err)
			os.Exit(1)
		}
	} else {
		defer container.Close()

		// Start outbox processor in background (optional in CLI)
		if cfg.OutboxProcessorEnabled {
			go container.OutboxProcessor.Start(ctx)
		} else {
			logger.Info("outbox processor disabled in CLI")
		}

		cliApp = cli.NewApp(container, cfg)
	}

	// Set the CLI app
	cli.SetApp(cliApp)

	// Register commands
	cli.AddCommand(cliSchedule.Cmd)
	cli.AddCommand(cliDirectory.Cmd)
	cli.AddCommand(cliAvailability.Cmd)
	cli.AddCommand(cliSettings.Cmd)

	// Execute CLI
	cli.ExecuteContext(ctx)
}
