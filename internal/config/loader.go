// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath string
	version    string
	// ConsumedEnvKeys records every key the last Load looked up.
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a loader for configPath; an empty path means ENV and defaults only.
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// Path returns the config file path, possibly empty.
func (l *Loader) Path() string { return l.configPath }

func (l *Loader) envString(key, def string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, def)
}

func (l *Loader) envInt(key string, def int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, def)
}

func (l *Loader) envFloat(key string, def float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, def)
}

func (l *Loader) envBool(key string, def bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, def)
}

func (l *Loader) envDuration(key string, def time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, def)
}

func (l *Loader) envList(key string, def []string) []string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseList(key, def)
}

// Load resolves configuration: defaults, then the file (strict), then ENV,
// then validation.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	l.mergeEnv(&cfg)

	if abs, err := filepath.Abs(cfg.Download.Dir); err == nil {
		cfg.Download.Dir = abs
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.Tracing.Exporter = strings.ToLower(strings.TrimSpace(cfg.Tracing.Exporter))
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// loadFile decodes the YAML file at path over cfg. Unknown fields and
// multiple documents are rejected; an empty file changes nothing.
func (l *Loader) loadFile(path string, cfg *AppConfig) error {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "not found in type") {
			return fmt.Errorf("strict config parse error: %w: %w", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return nil
}

func (l *Loader) mergeEnv(cfg *AppConfig) {
	cfg.LogLevel = l.envString(EnvLogLevel, cfg.LogLevel)

	cfg.Server.Listen = l.envString(EnvListen, cfg.Server.Listen)
	cfg.Server.AllowedOrigins = l.envList(EnvAllowedOrigins, cfg.Server.AllowedOrigins)
	cfg.Server.ShutdownTimeout = l.envDuration(EnvShutdownTimeout, cfg.Server.ShutdownTimeout)
	cfg.Server.IdleTimeout = l.envDuration(EnvServerIdleTimeout, cfg.Server.IdleTimeout)
	cfg.Server.ReadHeaderTimeout = l.envDuration(EnvServerHeaderTimeout, cfg.Server.ReadHeaderTimeout)

	cfg.Tools.YtDlp = l.envString(EnvYtDlpBin, cfg.Tools.YtDlp)
	cfg.Tools.FFmpeg = l.envString(EnvFFmpegBin, cfg.Tools.FFmpeg)
	cfg.Tools.KillGrace = l.envDuration(EnvToolKillGrace, cfg.Tools.KillGrace)

	cfg.Inspect.Timeout = l.envDuration(EnvInspectTimeout, cfg.Inspect.Timeout)
	cfg.Inspect.MaxConcurrent = l.envInt(EnvInspectMax, cfg.Inspect.MaxConcurrent)

	cfg.Download.Dir = l.envString(EnvDownloadsDir, cfg.Download.Dir)
	cfg.Download.Timeout = l.envDuration(EnvDownloadTimeout, cfg.Download.Timeout)
	cfg.Download.MaxConcurrent = l.envInt(EnvDownloadMax, cfg.Download.MaxConcurrent)
	cfg.Download.ChunkSize = l.envInt(EnvDownloadChunkSize, cfg.Download.ChunkSize)
	cfg.Download.StaleAfter = l.envDuration(EnvStaleAfter, cfg.Download.StaleAfter)
	cfg.Download.SweepInterval = l.envDuration(EnvSweepInterval, cfg.Download.SweepInterval)

	cfg.RateLimit.RequestsPerMinute = l.envInt(EnvRateLimitRPM, cfg.RateLimit.RequestsPerMinute)
	cfg.RateLimit.SpawnRPS = l.envFloat(EnvSpawnRPS, cfg.RateLimit.SpawnRPS)
	cfg.RateLimit.SpawnBurst = l.envInt(EnvSpawnBurst, cfg.RateLimit.SpawnBurst)
	cfg.RateLimit.TrustForwarded = l.envBool(EnvTrustForwardedFor, cfg.RateLimit.TrustForwarded)

	cfg.Tracing.Enabled = l.envBool(EnvTracingEnabled, cfg.Tracing.Enabled)
	cfg.Tracing.Exporter = l.envString(EnvTracingExporter, cfg.Tracing.Exporter)
	cfg.Tracing.Endpoint = l.envString(EnvTracingEndpoint, cfg.Tracing.Endpoint)
	cfg.Tracing.SampleRate = l.envFloat(EnvTracingSampleRate, cfg.Tracing.SampleRate)
}
