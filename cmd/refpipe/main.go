// Command refpipe extracts and validates lesson reference materials.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lessonkit/refpipe/internal/adapters/driven/config/env"
	"github.com/lessonkit/refpipe/internal/adapters/driven/config/file"
	"github.com/lessonkit/refpipe/internal/adapters/driving/cli"
	"github.com/lessonkit/refpipe/internal/core/services"
	"github.com/lessonkit/refpipe/internal/logger"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	configStore, err := file.NewConfigStore(os.Getenv("REFPIPE_CONFIG_DIR"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, env.New())

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("resolving settings: %w", err)
	}
	if settings.LogFormat != "" {
		logger.SetFormat(settings.LogFormat)
	}
	if err := settings.Validate(); err != nil {
		logger.Warn("settings: %v", err)
	}

	app, err := build(ctx, *settings)
	if err != nil {
		return err
	}
	defer app.Close()

	svc := app.services
	svc.Settings = settingsService
	cli.SetServices(svc)
	cli.SetVersion(version)

	return cli.Execute(ctx)
}
