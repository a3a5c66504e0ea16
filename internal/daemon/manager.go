// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/vgrab/internal/log"
)

const defaultShutdownTimeout = 15 * time.Second

// ShutdownHook is a function that performs cleanup during graceful shutdown.
// Hooks are executed in reverse registration order (LIFO).
type ShutdownHook func(ctx context.Context) error

// Task runs in the background until ctx is done. A non-nil return stops the
// daemon.
type Task func(ctx context.Context) error

type namedHook struct {
	name string
	hook ShutdownHook
}

type namedTask struct {
	name string
	run  Task
}

// Manager runs the HTTP server and background tasks under one errgroup.
type Manager struct {
	server          *http.Server
	listener        net.Listener
	shutdownTimeout time.Duration

	tasks         []namedTask
	shutdownHooks []namedHook

	mu       sync.Mutex
	started  bool
	stopping bool

	logger zerolog.Logger
}

// NewManager creates a manager for server. ln may be nil, in which case Start
// listens on server.Addr.
func NewManager(server *http.Server, ln net.Listener, shutdownTimeout time.Duration) (*Manager, error) {
	if server == nil || server.Handler == nil {
		return nil, ErrMissingHandler
	}
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}
	return &Manager{
		server:          server,
		listener:        ln,
		shutdownTimeout: shutdownTimeout,
		logger:          log.WithComponent("manager"),
	}, nil
}

// AddTask registers a background task. Tasks must be added before Start.
func (m *Manager) AddTask(name string, task Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, namedTask{name: name, run: task})
}

// RegisterShutdownHook registers a function to be called during shutdown.
func (m *Manager) RegisterShutdownHook(name string, hook ShutdownHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdownHooks = append(m.shutdownHooks, namedHook{name: name, hook: hook})
}

// Addr is the address the server listens on.
func (m *Manager) Addr() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listener != nil {
		return m.listener.Addr().String()
	}
	return m.server.Addr
}

// Start serves until ctx is cancelled or a component fails, then shuts down.
// A clean, signal-driven stop returns nil.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	m.started = true
	if m.listener == nil {
		ln, err := net.Listen("tcp", m.server.Addr)
		if err != nil {
			m.mu.Unlock()
			return fmt.Errorf("%w: %w", ErrServerStartFailed, err)
		}
		m.listener = ln
	}
	ln := m.listener
	tasks := append([]namedTask(nil), m.tasks...)
	m.mu.Unlock()

	m.logger.Info().
		Str(log.FieldEvent, "daemon.start").
		Str("addr", ln.Addr().String()).
		Dur("shutdown_timeout", m.shutdownTimeout).
		Msg("API server listening (HTTP)")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := m.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error().Err(err).Str(log.FieldEvent, "api.server.failed").Msg("API server failed")
			return fmt.Errorf("%w: %w", ErrServerStartFailed, err)
		}
		return nil
	})

	for _, t := range tasks {
		g.Go(func() error {
			if err := t.run(gctx); err != nil {
				m.logger.Error().Err(err).Str(log.FieldEvent, "daemon.task_failed").Str("task", t.name).Msg("background task failed")
				return fmt.Errorf("%s: %w", t.name, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			m.logger.Info().Str(log.FieldEvent, "daemon.signal").Msg("Shutdown signal received")
		}
		return m.Shutdown(ctx)
	})

	return g.Wait()
}

// Shutdown stops accepting connections and waits for in-flight requests up to
// the shutdown timeout, then closes remaining connections and runs hooks.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.stopping {
		m.mu.Unlock()
		return nil
	}
	if !m.started {
		m.mu.Unlock()
		return ErrManagerNotStarted
	}
	m.stopping = true
	hooks := append([]namedHook(nil), m.shutdownHooks...)
	m.mu.Unlock()

	m.logger.Info().Str(log.FieldEvent, "daemon.shutdown").Msg("Shutting down daemon manager")

	// Bounded, and independent from caller cancellation.
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.shutdownTimeout)
	defer cancel()

	var errs []error
	if err := m.server.Shutdown(shutdownCtx); err != nil {
		m.logger.Warn().Err(err).Str(log.FieldEvent, "daemon.shutdown_forced").Msg("graceful shutdown timed out, closing connections")
		if cerr := m.server.Close(); cerr != nil {
			errs = append(errs, fmt.Errorf("close server: %w", cerr))
		}
		errs = append(errs, fmt.Errorf("shutdown server: %w", err))
	}

	for i := len(hooks) - 1; i >= 0; i-- {
		h := hooks[i]
		if err := h.hook(shutdownCtx); err != nil {
			m.logger.Warn().Err(err).Str("hook", h.name).Msg("shutdown hook failed")
			errs = append(errs, fmt.Errorf("%s: %w", h.name, err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	m.logger.Info().Str(log.FieldEvent, "daemon.stopped").Msg("Daemon manager stopped")
	return nil
}
