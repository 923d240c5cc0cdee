package main

import (
	"context"
	"os"

	"github.com/desertthunder/faves/internal/services"
	"github.com/desertthunder/faves/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("ignoring invalid config.toml", "error", err)
		}
	}
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Log.Level))

	apiService := services.NewAPIService(
		config.API.BaseURL, nil, services.WithRateLimit(config.API.RequestsPerSecond),
	)

	runner := NewRunner(RunnerOpts{
		Config: config,
		API:    apiService,
		Logger: logger,
	})

	app := &cli.Command{
		Name:     "faves",
		Usage:    "Browse products and keep a list of favorites",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	err := app.Run(context.Background(), os.Args)
	if cerr := runner.Close(); cerr != nil {
		logger.Warn("failed to close database", "error", cerr)
	}

	if err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
