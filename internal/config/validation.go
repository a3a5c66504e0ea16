// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Validate checks cfg and reports every problem found. The result wraps
// ErrInvalidConfig.
func Validate(cfg AppConfig) error {
	var errs []error
	add := func(field, format string, args ...any) {
		errs = append(errs, fmt.Errorf("%s: %s", field, fmt.Sprintf(format, args...)))
	}
	positive := func(field string, v int) {
		if v <= 0 {
			add(field, "must be positive, got %d", v)
		}
	}
	nonNegative := func(field string, d time.Duration) {
		if d < 0 {
			add(field, "must not be negative, got %s", d)
		}
	}

	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil || cfg.LogLevel == "" {
		add("logLevel", "unknown level %q", cfg.LogLevel)
	}

	if _, port, err := net.SplitHostPort(cfg.Server.Listen); err != nil || port == "" {
		add("server.listen", "invalid listen address %q", cfg.Server.Listen)
	}
	nonNegative("server.readHeaderTimeout", cfg.Server.ReadHeaderTimeout)
	nonNegative("server.idleTimeout", cfg.Server.IdleTimeout)
	nonNegative("server.shutdownTimeout", cfg.Server.ShutdownTimeout)

	if strings.TrimSpace(cfg.Tools.YtDlp) == "" {
		add("tools.ytdlp", "binary must not be empty")
	}
	if strings.TrimSpace(cfg.Tools.FFmpeg) == "" {
		add("tools.ffmpeg", "binary must not be empty")
	}
	nonNegative("tools.killGrace", cfg.Tools.KillGrace)

	nonNegative("inspect.timeout", cfg.Inspect.Timeout)
	positive("inspect.maxConcurrent", cfg.Inspect.MaxConcurrent)

	if strings.TrimSpace(cfg.Download.Dir) == "" {
		add("download.dir", "must not be empty")
	}
	nonNegative("download.timeout", cfg.Download.Timeout)
	positive("download.maxConcurrent", cfg.Download.MaxConcurrent)
	positive("download.chunkSize", cfg.Download.ChunkSize)
	switch {
	case cfg.Download.StaleAfter <= 0:
		add("download.staleAfter", "must be positive, got %s", cfg.Download.StaleAfter)
	case cfg.Download.Timeout > 0 && cfg.Download.StaleAfter <= cfg.Download.Timeout:
		add("download.staleAfter", "must exceed download.timeout (%s), got %s", cfg.Download.Timeout, cfg.Download.StaleAfter)
	}
	if cfg.Download.SweepInterval <= 0 {
		add("download.sweepInterval", "must be positive, got %s", cfg.Download.SweepInterval)
	}

	positive("rateLimit.requestsPerMinute", cfg.RateLimit.RequestsPerMinute)
	if cfg.RateLimit.SpawnRPS <= 0 {
		add("rateLimit.spawnRps", "must be positive, got %g", cfg.RateLimit.SpawnRPS)
	}
	positive("rateLimit.spawnBurst", cfg.RateLimit.SpawnBurst)

	switch cfg.Tracing.Exporter {
	case "grpc", "http":
	default:
		add("tracing.exporter", "unknown exporter %q (want grpc or http)", cfg.Tracing.Exporter)
	}
	if cfg.Tracing.SampleRate < 0 || cfg.Tracing.SampleRate > 1 {
		add("tracing.sampleRate", "must be within [0,1], got %g", cfg.Tracing.SampleRate)
	}
	if cfg.Tracing.Enabled && strings.TrimSpace(cfg.Tracing.Endpoint) == "" {
		add("tracing.endpoint", "required when tracing is enabled")
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
