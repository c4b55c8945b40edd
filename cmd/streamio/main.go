package main

import (
	"context"
	"errors"
	"flag"
	"os"

	"github.com/streamio/streamio/internal/app"
	"github.com/streamio/streamio/internal/config"
	apperrors "github.com/streamio/streamio/internal/errors"
	"github.com/streamio/streamio/internal/logger"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	debug := flag.Bool("debug", false, "enable the devtools inspector")
	flag.Parse()

	path := *configPath
	if path == "" {
		path = os.Getenv("STREAMIO_CONFIG_PATH")
	}
	if path == "" {
		if _, err := os.Stat("./streamio.yaml"); err == nil {
			path = "./streamio.yaml"
		}
	}

	if err := config.Load(path); err != nil {
		logger.Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	cfg := config.Get()
	if *debug {
		cfg.Debug = true
	}

	application := app.New(cfg, path)

	if err := application.Run(context.Background()); err != nil {
		var startupErr *apperrors.StartupError
		if errors.As(err, &startupErr) {
			logger.Error("Startup failed: %v", startupErr)
			os.Exit(startupErr.ExitCode)
		}

		logger.Error("Host terminated with error: %v", err)
		os.Exit(1)
	}
}
