// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package daemon wires the vgrab components together and runs them until
// shutdown.
package daemon

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"reflect"
	"strings"

	"golang.org/x/time/rate"

	"github.com/ManuGH/vgrab/internal/admission"
	"github.com/ManuGH/vgrab/internal/api"
	"github.com/ManuGH/vgrab/internal/config"
	"github.com/ManuGH/vgrab/internal/download"
	"github.com/ManuGH/vgrab/internal/health"
	"github.com/ManuGH/vgrab/internal/log"
	"github.com/ManuGH/vgrab/internal/ratelimit"
	"github.com/ManuGH/vgrab/internal/telemetry"
	"github.com/ManuGH/vgrab/internal/ytdlp"
)

// ServiceName names the service in traces.
const ServiceName = "vgrab"

// Options configures New.
type Options struct {
	Config config.AppConfig
	// Loader enables config hot reload via its file path; nil disables it.
	Loader *config.Loader
	// Listener replaces listening on Config.Server.Listen.
	Listener net.Listener
	// Runner replaces the yt-dlp subprocess runner.
	Runner ytdlp.Runner
}

// App is a fully wired daemon.
type App struct {
	manager *Manager
}

// New performs startup checks, starts tracing and builds every component.
// The logger must already be configured.
func New(ctx context.Context, opts Options) (*App, error) {
	cfg := opts.Config
	logger := log.WithComponent("daemon")

	if err := health.PerformStartupChecks(cfg); err != nil {
		return nil, err
	}

	tracing, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    ServiceName,
		ServiceVersion: cfg.Version,
		ExporterType:   cfg.Tracing.Exporter,
		Endpoint:       cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	runner := opts.Runner
	if runner == nil {
		runner = ytdlp.NewExecRunner(cfg.Tools.YtDlp,
			ytdlp.WithKillGrace(cfg.Tools.KillGrace),
			ytdlp.WithTracer(telemetry.Tracer("ytdlp")),
		)
	}
	client := ytdlp.NewClient(runner, ffmpegLocation(cfg.Tools.FFmpeg), cfg.Inspect.Timeout)

	temp := download.NewTempFiles(cfg.Download.Dir)
	dispatcher := download.NewDispatcher(client, temp, download.Config{
		Timeout:   cfg.Download.Timeout,
		ChunkSize: cfg.Download.ChunkSize,
	})
	gate := admission.NewGate(map[admission.Class]int{
		admission.ClassInspect:  cfg.Inspect.MaxConcurrent,
		admission.ClassDownload: cfg.Download.MaxConcurrent,
	})

	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewBinaryChecker("yt-dlp", cfg.Tools.YtDlp))
	hm.RegisterChecker(health.NewBinaryChecker("ffmpeg", cfg.Tools.FFmpeg))
	hm.RegisterChecker(health.NewDirChecker("downloads", cfg.Download.Dir))

	apiCfg := api.Config{
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		SpawnLimit: ratelimit.Config{
			PerIPRate:      rate.Limit(cfg.RateLimit.SpawnRPS),
			PerIPBurst:     cfg.RateLimit.SpawnBurst,
			TrustForwarded: cfg.RateLimit.TrustForwarded,
		},
	}
	if cfg.Tracing.Enabled {
		apiCfg.TracingService = ServiceName
	}
	handler := api.New(apiCfg, api.Deps{
		Inspector:  client,
		Downloader: dispatcher,
		Gate:       gate,
		Health:     hm,
	})

	// No write timeout: downloads stream for as long as the job allows.
	server := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
	manager, err := NewManager(server, opts.Listener, cfg.Server.ShutdownTimeout)
	if err != nil {
		return nil, err
	}

	manager.AddTask("stale-sweeper", func(ctx context.Context) error {
		return temp.RunSweeper(ctx, cfg.Download.SweepInterval, cfg.Download.StaleAfter)
	})
	if opts.Loader != nil {
		holder := config.NewHolder(cfg, opts.Loader)
		holder.OnChange(applyLiveConfig)
		manager.AddTask("config-watcher", holder.Watch)
	}
	manager.RegisterShutdownHook("tracing", tracing.Shutdown)

	logger.Info().
		Str(log.FieldEvent, "daemon.configured").
		Str("version", cfg.Version).
		Str("downloads_dir", cfg.Download.Dir).
		Int("inspect_max", cfg.Inspect.MaxConcurrent).
		Int("download_max", cfg.Download.MaxConcurrent).
		Bool("tracing", cfg.Tracing.Enabled).
		Msg("daemon configured")

	return &App{manager: manager}, nil
}

// Addr is the listening address.
func (a *App) Addr() string { return a.manager.Addr() }

// Run blocks until ctx is cancelled or a component fails.
func (a *App) Run(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// applyLiveConfig applies the settings that can change without a restart.
func applyLiveConfig(old, next config.AppConfig) {
	logger := log.WithComponent("daemon")
	if old.LogLevel != next.LogLevel {
		if err := log.SetLevel(next.LogLevel); err != nil {
			logger.Warn().Err(err).Str("level", next.LogLevel).Msg("ignoring invalid log level")
		} else {
			logger.Info().Str(log.FieldEvent, "config.log_level").Str("level", next.LogLevel).Msg("log level changed")
		}
	}

	rest := old
	rest.LogLevel = next.LogLevel
	if !reflect.DeepEqual(rest, next) {
		logger.Warn().Str(log.FieldEvent, "config.restart_required").Msg("config changed; settings other than logLevel apply after restart")
	}
}

// ffmpegLocation resolves the ffmpeg setting for yt-dlp. A bare name is looked
// up on PATH; when it cannot be found yt-dlp is left to its own discovery.
func ffmpegLocation(bin string) string {
	if bin == "" || strings.ContainsRune(bin, os.PathSeparator) {
		return bin
	}
	if p, err := exec.LookPath(bin); err == nil {
		return p
	}
	return ""
}
