// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := NewLoader("", "v1.2.3").Load()
	require.NoError(t, err)

	want := Defaults()
	assert.Equal(t, want.Server.Listen, cfg.Server.Listen)
	assert.Equal(t, DefaultInspectTimeout, cfg.Inspect.Timeout)
	assert.Equal(t, DefaultDownloadTimeout, cfg.Download.Timeout)
	assert.Equal(t, DefaultInspectMax, cfg.Inspect.MaxConcurrent)
	assert.Equal(t, DefaultDownloadMax, cfg.Download.MaxConcurrent)
	assert.True(t, filepath.IsAbs(cfg.Download.Dir))
	assert.Equal(t, "v1.2.3", cfg.Version)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
logLevel: debug
server:
  listen: "127.0.0.1:8080"
inspect:
  timeout: 15s
download:
  dir: /var/lib/vgrab
  maxConcurrent: 2
tracing:
  exporter: http
`)
	cfg, err := NewLoader(path, "").Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Listen)
	assert.Equal(t, 15*time.Second, cfg.Inspect.Timeout)
	assert.Equal(t, "/var/lib/vgrab", cfg.Download.Dir)
	assert.Equal(t, 2, cfg.Download.MaxConcurrent)
	assert.Equal(t, "http", cfg.Tracing.Exporter)
	// Untouched keys keep their defaults.
	assert.Equal(t, DefaultDownloadTimeout, cfg.Download.Timeout)
	assert.Equal(t, DefaultYtDlpBin, cfg.Tools.YtDlp)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  listen: \"127.0.0.1:8080\"\ndownload:\n  maxConcurrent: 2\n")
	t.Setenv(EnvListen, ":9999")
	t.Setenv(EnvDownloadMax, "6")
	t.Setenv(EnvAllowedOrigins, "https://app.example")
	t.Setenv(EnvDownloadTimeout, "0")

	l := NewLoader(path, "")
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.Listen)
	assert.Equal(t, 6, cfg.Download.MaxConcurrent)
	assert.Equal(t, []string{"https://app.example"}, cfg.Server.AllowedOrigins)
	assert.Zero(t, cfg.Download.Timeout, "0 disables the bound")
	assert.Contains(t, l.ConsumedEnvKeys, EnvListen)
	assert.Contains(t, l.ConsumedEnvKeys, EnvTracingSampleRate)
}

func TestLoad_EmptyFileIsDefaults(t *testing.T) {
	cfg, err := NewLoader(writeConfig(t, ""), "").Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultListen, cfg.Server.Listen)
}

func TestLoad_StrictUnknownField(t *testing.T) {
	_, err := NewLoader(writeConfig(t, "server:\n  listne: \":1\"\n"), "").Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownConfigField)
}

func TestLoad_RejectsMultipleDocuments(t *testing.T) {
	_, err := NewLoader(writeConfig(t, "logLevel: info\n---\nlogLevel: debug\n"), "").Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple documents")
}

func TestLoad_RejectsNonYAMLExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))
	_, err := NewLoader(path, "").Load()
	assert.ErrorContains(t, err, "only YAML supported")
}

func TestLoad_InvalidValuesFailValidation(t *testing.T) {
	_, err := NewLoader(writeConfig(t, "inspect:\n  maxConcurrent: 0\n"), "").Load()
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
		field  string
	}{
		{"unknown log level", func(c *AppConfig) { c.LogLevel = "loud" }, "logLevel"},
		{"empty log level", func(c *AppConfig) { c.LogLevel = "" }, "logLevel"},
		{"bad listen", func(c *AppConfig) { c.Server.Listen = "3000" }, "server.listen"},
		{"empty ytdlp", func(c *AppConfig) { c.Tools.YtDlp = " " }, "tools.ytdlp"},
		{"empty ffmpeg", func(c *AppConfig) { c.Tools.FFmpeg = "" }, "tools.ffmpeg"},
		{"zero inspect cap", func(c *AppConfig) { c.Inspect.MaxConcurrent = 0 }, "inspect.maxConcurrent"},
		{"negative download cap", func(c *AppConfig) { c.Download.MaxConcurrent = -1 }, "download.maxConcurrent"},
		{"negative timeout", func(c *AppConfig) { c.Download.Timeout = -time.Second }, "download.timeout"},
		{"zero stale age", func(c *AppConfig) { c.Download.StaleAfter = 0 }, "download.staleAfter"},
		{"stale age within job timeout", func(c *AppConfig) { c.Download.StaleAfter = c.Download.Timeout }, "download.staleAfter"},
		{"zero sweep interval", func(c *AppConfig) { c.Download.SweepInterval = 0 }, "download.sweepInterval"},
		{"zero spawn rate", func(c *AppConfig) { c.RateLimit.SpawnRPS = 0 }, "rateLimit.spawnRps"},
		{"unknown exporter", func(c *AppConfig) { c.Tracing.Exporter = "zipkin" }, "tracing.exporter"},
		{"sample rate out of range", func(c *AppConfig) { c.Tracing.SampleRate = 1.5 }, "tracing.sampleRate"},
		{"tracing without endpoint", func(c *AppConfig) { c.Tracing.Enabled = true; c.Tracing.Endpoint = "" }, "tracing.endpoint"},
	}
	require.NoError(t, Validate(Defaults()))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := Validate(cfg)
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestValidate_StaleAgeWithoutJobTimeout(t *testing.T) {
	cfg := Defaults()
	cfg.Download.Timeout = 0
	cfg.Download.StaleAfter = time.Minute
	assert.NoError(t, Validate(cfg))
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Inspect.MaxConcurrent = 0
	cfg.Download.MaxConcurrent = 0
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inspect.maxConcurrent")
	assert.Contains(t, err.Error(), "download.maxConcurrent")
}
