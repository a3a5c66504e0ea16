// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

// AppConfig is the resolved daemon configuration.
type AppConfig struct {
	LogLevel  string          `yaml:"logLevel"`
	Server    ServerConfig    `yaml:"server"`
	Tools     ToolsConfig     `yaml:"tools"`
	Inspect   InspectConfig   `yaml:"inspect"`
	Download  DownloadConfig  `yaml:"download"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Tracing   TracingConfig   `yaml:"tracing"`

	// Version is stamped from the binary, never read from file or env.
	Version string `yaml:"-"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Listen            string        `yaml:"listen"`
	AllowedOrigins    []string      `yaml:"allowedOrigins"`
	ReadHeaderTimeout time.Duration `yaml:"readHeaderTimeout"`
	IdleTimeout       time.Duration `yaml:"idleTimeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdownTimeout"`
}

// ToolsConfig locates the external binaries.
type ToolsConfig struct {
	YtDlp     string        `yaml:"ytdlp"`
	FFmpeg    string        `yaml:"ffmpeg"`
	KillGrace time.Duration `yaml:"killGrace"`
}

// InspectConfig bounds format inspection.
type InspectConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	MaxConcurrent int           `yaml:"maxConcurrent"`
}

// DownloadConfig bounds download jobs and their temp files.
type DownloadConfig struct {
	Dir           string        `yaml:"dir"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxConcurrent int           `yaml:"maxConcurrent"`
	ChunkSize     int           `yaml:"chunkSize"`
	StaleAfter    time.Duration `yaml:"staleAfter"`
	SweepInterval time.Duration `yaml:"sweepInterval"`
}

// RateLimitConfig configures the general API limit and the spawn limiter.
type RateLimitConfig struct {
	RequestsPerMinute int     `yaml:"requestsPerMinute"`
	SpawnRPS          float64 `yaml:"spawnRps"`
	SpawnBurst        int     `yaml:"spawnBurst"`
	TrustForwarded    bool    `yaml:"trustForwarded"`
}

// TracingConfig configures the OTLP exporter.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Exporter   string  `yaml:"exporter"`
	Endpoint   string  `yaml:"endpoint"`
	SampleRate float64 `yaml:"sampleRate"`
}

// Default values.
const (
	DefaultListen            = ":3000"
	DefaultLogLevel          = "info"
	DefaultYtDlpBin          = "yt-dlp"
	DefaultFFmpegBin         = "ffmpeg"
	DefaultDownloadsDir      = "downloads"
	DefaultInspectTimeout    = 60 * time.Second
	DefaultInspectMax        = 8
	DefaultDownloadTimeout   = 30 * time.Minute
	DefaultDownloadMax       = 4
	DefaultChunkSize         = 32 << 10
	DefaultStaleAfter        = 6 * time.Hour
	DefaultSweepInterval     = 30 * time.Minute
	DefaultRequestsPerMinute = 120
	DefaultSpawnRPS          = 1.0
	DefaultSpawnBurst        = 5
	DefaultKillGrace         = 3 * time.Second
	DefaultShutdownTimeout   = 15 * time.Second
)

// Defaults returns the configuration used when nothing else is set.
func Defaults() AppConfig {
	return AppConfig{
		LogLevel: DefaultLogLevel,
		Server: ServerConfig{
			Listen:            DefaultListen,
			AllowedOrigins:    []string{"*"},
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
			ShutdownTimeout:   DefaultShutdownTimeout,
		},
		Tools: ToolsConfig{
			YtDlp:     DefaultYtDlpBin,
			FFmpeg:    DefaultFFmpegBin,
			KillGrace: DefaultKillGrace,
		},
		Inspect: InspectConfig{
			Timeout:       DefaultInspectTimeout,
			MaxConcurrent: DefaultInspectMax,
		},
		Download: DownloadConfig{
			Dir:           DefaultDownloadsDir,
			Timeout:       DefaultDownloadTimeout,
			MaxConcurrent: DefaultDownloadMax,
			ChunkSize:     DefaultChunkSize,
			StaleAfter:    DefaultStaleAfter,
			SweepInterval: DefaultSweepInterval,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: DefaultRequestsPerMinute,
			SpawnRPS:          DefaultSpawnRPS,
			SpawnBurst:        DefaultSpawnBurst,
		},
		Tracing: TracingConfig{
			Exporter:   "grpc",
			Endpoint:   "localhost:4317",
			SampleRate: 1.0,
		},
	}
}
