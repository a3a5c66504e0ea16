// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api exposes vgrab over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/vgrab/internal/admission"
	"github.com/ManuGH/vgrab/internal/api/middleware"
	"github.com/ManuGH/vgrab/internal/download"
	"github.com/ManuGH/vgrab/internal/health"
	"github.com/ManuGH/vgrab/internal/ratelimit"
	"github.com/ManuGH/vgrab/internal/ytdlp"
)

const (
	defaultMaxBodyBytes = 64 << 10
	defaultBusyRetry    = 5 * time.Second
)

// Inspector fetches metadata and formats for a URL.
type Inspector interface {
	Inspect(ctx context.Context, url string) (*ytdlp.Info, error)
}

// Downloader serves one download job to w.
type Downloader interface {
	Serve(ctx context.Context, w http.ResponseWriter, req download.Request) (download.Outcome, error)
}

// Config configures the HTTP surface.
type Config struct {
	AllowedOrigins    []string
	RequestsPerMinute int
	// TracingService names server spans; empty disables HTTP tracing.
	TracingService string
	SpawnLimit     ratelimit.Config
	MaxBodyBytes   int64
	// BusyRetryAfter is advertised when the admission gate is full.
	BusyRetryAfter time.Duration
}

// Deps are the collaborators of the server.
type Deps struct {
	Inspector  Inspector
	Downloader Downloader
	Gate       *admission.Gate
	Health     *health.Manager
	// Metrics serves /metrics; nil uses the default Prometheus registry.
	Metrics http.Handler
}

// Server routes vgrab requests.
type Server struct {
	cfg    Config
	deps   Deps
	spawn  *ratelimit.Limiter
	router *chi.Mux
}

// New builds the server and its routes.
func New(cfg Config, deps Deps) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	if cfg.BusyRetryAfter <= 0 {
		cfg.BusyRetryAfter = defaultBusyRetry
	}
	if cfg.SpawnLimit.PerIPRate <= 0 {
		cfg.SpawnLimit = ratelimit.DefaultConfig()
	}
	if deps.Gate == nil {
		deps.Gate = admission.NewGate(nil)
	}
	if deps.Health == nil {
		deps.Health = health.NewManager("")
	}
	if deps.Metrics == nil {
		deps.Metrics = promhttp.Handler()
	}
	s := &Server{
		cfg:   cfg,
		deps:  deps,
		spawn: ratelimit.New(cfg.SpawnLimit),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *chi.Mux {
	r := middleware.NewRouter(middleware.StackConfig{
		EnableCORS:            true,
		AllowedOrigins:        s.cfg.AllowedOrigins,
		EnableSecurityHeaders: true,
		EnableMetrics:         true,
		TracingService:        s.cfg.TracingService,
		EnableLogging:         true,
		RequestsPerMinute:     s.cfg.RequestsPerMinute,
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/healthz", s.deps.Health.ServeHealth)
	r.Get("/readyz", s.deps.Health.ServeReady)
	r.Handle("/metrics", s.deps.Metrics)

	// The spawn limiter sits behind method routing so a 405 costs no token.
	spawn := ratelimit.Middleware(s.spawn)
	r.Route("/api", func(r chi.Router) {
		r.With(spawn).Post("/video-info", s.handleVideoInfo)
		r.With(spawn).Post("/stream-download", s.handleStreamDownload)
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
