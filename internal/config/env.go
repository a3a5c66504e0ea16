// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/vgrab/internal/log"
)

// Environment keys.
const (
	EnvListen              = "VGRAB_LISTEN"
	EnvLogLevel            = "VGRAB_LOG_LEVEL"
	EnvYtDlpBin            = "VGRAB_YTDLP_BIN"
	EnvFFmpegBin           = "VGRAB_FFMPEG_BIN"
	EnvDownloadsDir        = "VGRAB_DOWNLOADS_DIR"
	EnvInspectTimeout      = "VGRAB_INSPECT_TIMEOUT"
	EnvInspectMax          = "VGRAB_INSPECT_MAX_CONCURRENT"
	EnvDownloadTimeout     = "VGRAB_DOWNLOAD_TIMEOUT"
	EnvDownloadMax         = "VGRAB_DOWNLOAD_MAX_CONCURRENT"
	EnvStaleAfter          = "VGRAB_STALE_AFTER"
	EnvSweepInterval       = "VGRAB_SWEEP_INTERVAL"
	EnvRateLimitRPM        = "VGRAB_RATE_LIMIT_RPM"
	EnvSpawnRPS            = "VGRAB_SPAWN_RPS"
	EnvSpawnBurst          = "VGRAB_SPAWN_BURST"
	EnvAllowedOrigins      = "VGRAB_ALLOWED_ORIGINS"
	EnvTracingEnabled      = "VGRAB_TRACING_ENABLED"
	EnvTracingExporter     = "VGRAB_TRACING_EXPORTER"
	EnvTracingEndpoint     = "VGRAB_TRACING_ENDPOINT"
	EnvTracingSampleRate   = "VGRAB_TRACING_SAMPLE_RATE"
	EnvShutdownTimeout     = "VGRAB_SHUTDOWN_TIMEOUT"
	EnvTrustForwardedFor   = "VGRAB_TRUST_FORWARDED_FOR"
	EnvDownloadChunkSize   = "VGRAB_DOWNLOAD_CHUNK_SIZE"
	EnvToolKillGrace       = "VGRAB_KILL_GRACE"
	EnvServerIdleTimeout   = "VGRAB_IDLE_TIMEOUT"
	EnvServerHeaderTimeout = "VGRAB_READ_HEADER_TIMEOUT"
)

func isSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, word := range []string{"token", "password", "secret"} {
		if strings.Contains(k, word) {
			return true
		}
	}
	return false
}

// lookupEnv resolves key with parse, logging where the value came from.
// Unset, empty and unparsable values fall back to def.
func lookupEnv[T any](logger zerolog.Logger, key string, def T, parse func(string) (T, error)) T {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		logger.Debug().
			Str("key", key).
			Str("default", fmt.Sprint(def)).
			Str("source", "default").
			Msg("using default value")
		return def
	}
	v, err := parse(raw)
	if err != nil {
		logger.Warn().
			Str("key", key).
			Str("value", raw).
			Str("default", fmt.Sprint(def)).
			Msg("invalid value in environment variable, using default")
		return def
	}
	ev := logger.Debug().Str("key", key).Str("source", "environment")
	if isSensitiveKey(key) {
		ev = ev.Bool("sensitive", true)
	} else {
		ev = ev.Str("value", raw)
	}
	ev.Msg("using environment variable")
	return v
}

func envLogger() zerolog.Logger { return log.WithComponent("config") }

// ParseString reads a string from the environment or returns defaultValue.
func ParseString(key, defaultValue string) string {
	return lookupEnv(envLogger(), key, defaultValue, func(s string) (string, error) { return s, nil })
}

// ParseInt reads an integer from the environment or returns defaultValue.
func ParseInt(key string, defaultValue int) int {
	return lookupEnv(envLogger(), key, defaultValue, strconv.Atoi)
}

// ParseFloat reads a float64 from the environment or returns defaultValue.
func ParseFloat(key string, defaultValue float64) float64 {
	return lookupEnv(envLogger(), key, defaultValue, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

// ParseDuration reads a Go duration ("5s", "30m") from the environment.
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	return lookupEnv(envLogger(), key, defaultValue, time.ParseDuration)
}

// ParseBool reads a boolean from the environment. It accepts "true", "false",
// "1", "0", "yes" and "no" (case-insensitive).
func ParseBool(key string, defaultValue bool) bool {
	return lookupEnv(envLogger(), key, defaultValue, func(s string) (bool, error) {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no":
			return false, nil
		}
		return false, fmt.Errorf("invalid boolean %q", s)
	})
}

// ParseList reads a comma-separated list, trimming blanks and dropping empty items.
func ParseList(key string, defaultValue []string) []string {
	return lookupEnv(envLogger(), key, defaultValue, func(s string) ([]string, error) {
		var out []string
		for _, item := range strings.Split(s, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("empty list")
		}
		return out, nil
	})
}
