package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/desertthunder/coursefinder/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config.toml, using defaults", "error", err)
		}
	}

	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := runner.App().Run(ctx, os.Args); err != nil {
		switch {
		case errors.Is(err, shared.ErrNotImplemented):
			logger.Warn("not implemented")
			os.Exit(0)
		case errors.Is(err, shared.ErrNotAuthenticated):
			logger.Error("not signed in, run `coursefinder auth login` first")
			os.Exit(1)
		case errors.Is(err, shared.ErrInvalidCredentials), errors.Is(err, shared.ErrRegistration):
			logger.Error(err.Error())
			os.Exit(1)
		case errors.Is(err, context.Canceled):
			os.Exit(130)
		default:
			logger.Fatalf("application error: %v", err)
		}
	}
}
