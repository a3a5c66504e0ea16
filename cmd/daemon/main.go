// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ManuGH/vgrab/internal/config"
	"github.com/ManuGH/vgrab/internal/daemon"
	"github.com/ManuGH/vgrab/internal/log"
	"github.com/ManuGH/vgrab/internal/version"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "healthcheck":
			os.Exit(runHealthcheckCLI(os.Args[2:], os.Stdout, os.Stderr))
		case "config":
			os.Exit(runConfigCLI(os.Args[2:], os.Stdout, os.Stderr))
		}
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	// Safe defaults until config is loaded
	log.Configure(log.Config{
		Level:   config.DefaultLogLevel,
		Service: daemon.ServiceName,
		Version: version.Version,
	})
	logger := log.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path := strings.TrimSpace(*configPath)
	loader := config.NewLoader(path, version.Version)
	cfg, err := loader.Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(log.FieldEvent, "config.load_failed").
			Str("config_path", path).
			Msg("failed to load configuration")
	}

	log.Configure(log.Config{
		Level:   cfg.LogLevel,
		Service: daemon.ServiceName,
		Version: cfg.Version,
	})

	if path != "" {
		logger.Info().Str(log.FieldEvent, "config.loaded").Str("source", "file").Str(log.FieldPath, path).Msg("loaded configuration from file")
	} else {
		logger.Info().Str(log.FieldEvent, "config.loaded").Str("source", "env+defaults").Msg("loaded configuration from environment and defaults")
	}

	app, err := daemon.New(ctx, daemon.Options{Config: cfg, Loader: loader})
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(log.FieldEvent, "startup.check_failed").
			Msg("startup failed, verify configuration and permissions")
	}

	if err := app.Run(ctx); err != nil {
		logger.Error().Err(err).Str(log.FieldEvent, "daemon.failed").Msg("daemon stopped with error")
		stop()
		os.Exit(1)
	}
	logger.Info().Str(log.FieldEvent, "daemon.exit").Msg("vgrab stopped")
}
