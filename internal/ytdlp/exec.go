// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/vgrab/internal/log"
	"github.com/ManuGH/vgrab/internal/metrics"
	"github.com/ManuGH/vgrab/internal/procgroup"
	"github.com/ManuGH/vgrab/internal/telemetry"
)

const (
	defaultKillGrace  = 3 * time.Second
	defaultStderrTail = 64
)

// ExecRunner runs the real binary.
type ExecRunner struct {
	bin        string
	killGrace  time.Duration
	stderrTail int
	tracer     trace.Tracer
}

// ExecOption customizes an ExecRunner.
type ExecOption func(*ExecRunner)

// WithKillGrace sets the SIGTERM to SIGKILL delay on cancellation.
func WithKillGrace(d time.Duration) ExecOption {
	return func(r *ExecRunner) {
		if d > 0 {
			r.killGrace = d
		}
	}
}

// WithStderrTail sets how many stderr lines are kept per process.
func WithStderrTail(n int) ExecOption {
	return func(r *ExecRunner) {
		if n > 0 {
			r.stderrTail = n
		}
	}
}

// WithTracer overrides the tracer used for run spans.
func WithTracer(t trace.Tracer) ExecOption {
	return func(r *ExecRunner) { r.tracer = t }
}

// NewExecRunner returns a Runner for the binary at bin.
func NewExecRunner(bin string, opts ...ExecOption) *ExecRunner {
	if bin == "" {
		bin = "yt-dlp"
	}
	r := &ExecRunner{
		bin:        bin,
		killGrace:  defaultKillGrace,
		stderrTail: defaultStderrTail,
		tracer:     telemetry.Tracer(telemetry.InstrumentationName),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start launches the binary in its own process group. The process is
// supervised until it exits; cancelling ctx terminates the whole group.
func (r *ExecRunner) Start(ctx context.Context, inv Invocation) (Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := log.WithComponentFromContext(ctx, "ytdlp").With().
		Str(log.FieldMode, string(inv.Mode)).
		Logger()

	ctx, span := r.tracer.Start(ctx, "ytdlp.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String(telemetry.ToolModeKey, string(inv.Mode))),
	)

	cmd := exec.Command(r.bin, inv.Args...) // #nosec G204 -- args are built by this package
	procgroup.Set(cmd)

	pr, pw := io.Pipe()
	cmd.Stdout = pw

	ring := NewLineRing(r.stderrTail)
	ring.OnLine = func(line string) {
		logger.Debug().Str(log.FieldEvent, "ytdlp.stderr").Msg(line)
	}
	// No WaitDelay: stdout is relayed at client speed and may
	// drain long after the process exited. Cancellation kills the group,
	// which closes the pipes.
	cmd.Stderr = ring

	start := time.Now()
	if err := cmd.Start(); err != nil {
		_ = pw.Close()
		span.RecordError(err)
		span.SetStatus(codes.Error, "start failed")
		span.End()
		metrics.ObserveTool(string(inv.Mode), "start_error", time.Since(start))
		logger.Error().Err(err).Str(log.FieldEvent, "ytdlp.start_failed").Msg("failed to start downloader")
		return nil, fmt.Errorf("%w: start %s: %w", ErrToolFailed, r.bin, err)
	}

	// The stderr copier is already reading logger; enrich a copy.
	procLogger := logger.With().Int(log.FieldPID, cmd.Process.Pid).Logger()
	procLogger.Debug().Str(log.FieldEvent, "ytdlp.start").Strs("args", inv.Args).Msg("downloader started")

	p := &execProcess{
		mode:   inv.Mode,
		cmd:    cmd,
		stdout: pr,
		ring:   ring,
		done:   make(chan struct{}),
	}

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()
	go p.supervise(ctx, waitCh, pw, r.killGrace, start, span, procLogger)

	return p, nil
}

type execProcess struct {
	mode   Mode
	cmd    *exec.Cmd
	stdout *io.PipeReader
	ring   *LineRing

	done chan struct{}
	err  error
}

func (p *execProcess) Stdout() io.Reader { return p.stdout }

func (p *execProcess) Wait() error {
	<-p.done
	return p.err
}

func (p *execProcess) StderrTail() []string { return p.ring.LastN(20) }

func (p *execProcess) supervise(ctx context.Context, waitCh <-chan error, pw *io.PipeWriter, grace time.Duration, start time.Time, span trace.Span, logger zerolog.Logger) {
	var waitErr error
	select {
	case waitErr = <-waitCh:
	case <-ctx.Done():
		// Unblock the stdout copier; nobody reads past this point.
		_ = p.stdout.CloseWithError(ctx.Err())
		logger.Debug().Str(log.FieldEvent, "ytdlp.terminate").Msg("context done, terminating process group")
		waitErr = procgroup.Terminate(p.cmd, waitCh, grace)
	}
	p.ring.Flush()

	exitCode := 0
	if p.cmd.ProcessState != nil {
		exitCode = p.cmd.ProcessState.ExitCode()
	}
	p.err = p.classify(ctx, waitErr, exitCode)
	_ = pw.CloseWithError(p.err)

	result := "ok"
	switch {
	case p.err == nil:
	case errors.Is(p.err, context.DeadlineExceeded):
		result = "timeout"
	case errors.Is(p.err, context.Canceled):
		result = "cancelled"
	default:
		result = "exit_error"
	}
	elapsed := time.Since(start)
	metrics.ObserveTool(string(p.mode), result, elapsed)

	span.SetAttributes(telemetry.ToolAttributes(string(p.mode), p.cmd.Process.Pid, exitCode)...)
	ev := logger.Debug()
	switch result {
	case "ok":
		span.SetStatus(codes.Ok, "")
	case "cancelled":
		span.SetStatus(codes.Unset, "cancelled")
	default:
		span.SetStatus(codes.Error, result)
		span.SetAttributes(telemetry.ErrorAttributes(result)...)
		ev = logger.Warn().Strs("stderr", p.StderrTail())
	}
	ev.Str(log.FieldEvent, "ytdlp.exit").
		Int(log.FieldExitCode, exitCode).
		Str("result", result).
		Dur(log.FieldDuration, elapsed).
		Msg("downloader exited")

	span.End()
	close(p.done)
}

func (p *execProcess) classify(ctx context.Context, waitErr error, exitCode int) error {
	if ctxErr := ctx.Err(); ctxErr != nil && (waitErr != nil || exitCode != 0) {
		return ctxErr
	}
	if waitErr == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return &ExitError{Mode: p.mode, Code: exitErr.ExitCode()}
	}
	return fmt.Errorf("%w: wait: %w", ErrToolFailed, waitErr)
}
