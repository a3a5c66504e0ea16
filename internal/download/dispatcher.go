// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package download serves a chosen format to an HTTP client, either relayed
// straight from the tool or merged into a temp MP4 first.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/vgrab/internal/log"
	"github.com/ManuGH/vgrab/internal/metrics"
	"github.com/ManuGH/vgrab/internal/telemetry"
	"github.com/ManuGH/vgrab/internal/ytdlp"
)

const defaultChunkSize = 32 << 10

var (
	// ErrCancelled means the client went away before the job finished.
	ErrCancelled = errors.New("download: cancelled")
	// ErrTimeout means the job ran past its configured bound.
	ErrTimeout = errors.New("download: timed out")
)

// Path is the dispatch path of a job.
type Path string

const (
	PathDirect Path = "direct"
	PathMerge  Path = "merge"
)

// Request is one download ask.
type Request struct {
	SourceURL  string
	FormatID   string
	IsCombined bool
	Title      string
}

// Tool is the subset of *ytdlp.Client the dispatcher drives.
type Tool interface {
	Stream(ctx context.Context, url, formatID string) (ytdlp.Process, error)
	Merge(ctx context.Context, url, formatID, output string) error
}

// Plan is the routing decision for a request.
type Plan struct {
	Path        Path
	ContentType string
	Ext         string
	Filename    string
}

// IsAudioFormat reports whether formatID names one of the known audio-only
// formats (opus 251, m4a 140).
func IsAudioFormat(formatID string) bool {
	return strings.Contains(formatID, "251") || strings.Contains(formatID, "140")
}

// PlanFor decides how req is served.
func PlanFor(req Request) Plan {
	p := Plan{Path: PathMerge, ContentType: "video/mp4", Ext: "mp4"}
	audio := IsAudioFormat(req.FormatID)
	if audio {
		p.ContentType = "audio/webm"
		p.Ext = "webm"
	}
	if audio || req.IsCombined {
		p.Path = PathDirect
	}
	p.Filename = SanitizeTitle(req.Title) + "." + p.Ext
	return p
}

// Config configures a Dispatcher.
type Config struct {
	// Timeout bounds a whole job; 0 disables the bound.
	Timeout time.Duration
	// ChunkSize is the relay buffer size.
	ChunkSize int
}

// Outcome reports how a job ended.
type Outcome struct {
	JobID     string
	Path      Path
	State     State
	Committed bool
	Bytes     int64
}

// Dispatcher runs download jobs. It holds no per-job state.
type Dispatcher struct {
	tool   Tool
	temp   *TempFiles
	cfg    Config
	tracer trace.Tracer
}

// NewDispatcher creates a dispatcher writing merge output under temp.
func NewDispatcher(tool Tool, temp *TempFiles, cfg Config) *Dispatcher {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	return &Dispatcher{
		tool:   tool,
		temp:   temp,
		cfg:    cfg,
		tracer: telemetry.Tracer(telemetry.InstrumentationName),
	}
}

// Serve runs one job and writes its response to w.
//
// Headers are only committed once the first media byte is ready. When the
// returned Outcome is not Committed and the error is not ErrCancelled, the
// caller still owns w and should write an error response. Temp files are
// removed before Serve returns, whatever the outcome.
func (d *Dispatcher) Serve(ctx context.Context, w http.ResponseWriter, req Request) (Outcome, error) {
	plan := PlanFor(req)
	id := uuid.NewString()
	ctx = log.ContextWithJobID(ctx, id)
	logger := log.WithComponentFromContext(ctx, "download").With().
		Str(log.FieldFormatID, req.FormatID).
		Str(log.FieldMode, string(plan.Path)).
		Logger()

	ctx, span := d.tracer.Start(ctx, "download.serve")
	defer span.End()

	job := newJob(id, req, logger)
	metrics.ActiveDownloads.WithLabelValues(string(plan.Path)).Inc()
	defer metrics.ActiveDownloads.WithLabelValues(string(plan.Path)).Dec()

	parent := ctx
	if d.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.Timeout)
		defer cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rw := &relayWriter{w: w, rc: http.NewResponseController(w), plan: plan}
	start := time.Now()

	var err error
	switch plan.Path {
	case PathDirect:
		err = d.direct(ctx, cancel, job, rw)
	default:
		err = d.merge(ctx, cancel, job, rw)
	}

	err = classify(parent, ctx, err, rw.writeErr)
	switch {
	case err == nil:
		// A zero-byte success still owes the client its headers.
		rw.commit()
		job.finish(StateCompleted)
	case errors.Is(err, ErrCancelled):
		job.finish(StateCancelled)
	default:
		job.finish(StateFailed)
	}

	out := Outcome{JobID: id, Path: plan.Path, State: job.State(), Committed: rw.committed, Bytes: rw.bytes}
	metrics.RecordJob(string(out.Path), out.State.String(), out.Bytes)
	span.SetAttributes(telemetry.DownloadAttributes(string(out.Path), req.FormatID, out.State.String(), out.Bytes)...)

	ev := logger.Info()
	switch out.State {
	case StateFailed:
		span.SetStatus(codes.Error, err.Error())
		ev = logger.Warn().Err(err)
	case StateCancelled:
		// Client disconnects are routine.
		ev = logger.Debug()
	}
	ev.Str(log.FieldEvent, "download.done").
		Str(log.FieldNewState, out.State.String()).
		Bool("committed", out.Committed).
		Int64(log.FieldBytes, out.Bytes).
		Dur(log.FieldDuration, time.Since(start)).
		Msg("download finished")

	return out, err
}

func (d *Dispatcher) direct(ctx context.Context, cancel context.CancelFunc, job *Job, rw *relayWriter) error {
	proc, err := d.tool.Stream(ctx, job.Req.SourceURL, job.Req.FormatID)
	if err != nil {
		return err
	}
	_ = job.Transition(StateSpawned)

	rw.onCommit = func() { _ = job.Transition(StateStreaming) }
	rw.chunked = true
	copyErr := d.relay(rw, proc.Stdout())
	if copyErr != nil {
		// Stop the tool; the client is gone or the pipe broke.
		cancel()
	}
	if waitErr := proc.Wait(); waitErr != nil {
		return waitErr
	}
	return copyErr
}

func (d *Dispatcher) merge(ctx context.Context, cancel context.CancelFunc, job *Job, rw *relayWriter) error {
	tmp, err := d.temp.Reserve(job.Req.Title)
	if err != nil {
		return err
	}
	// Cleanup must outlive ctx so a cancelled job still removes its files.
	defer d.temp.Cleanup(context.WithoutCancel(ctx), tmp)

	_ = job.Transition(StateSpawned)
	_ = job.Transition(StateMerging)
	if err := d.tool.Merge(ctx, job.Req.SourceURL, job.Req.FormatID, tmp); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Open(tmp) // #nosec G304 -- path is confined by Reserve
	if err != nil {
		return fmt.Errorf("open merged file: %w", err)
	}
	defer func() { _ = f.Close() }()
	if info, err := f.Stat(); err == nil {
		rw.contentLength = info.Size()
	}

	rw.onCommit = func() { _ = job.Transition(StateStreaming) }
	if err := d.relay(rw, &ctxReader{ctx: ctx, r: f}); err != nil {
		cancel()
		return err
	}
	return nil
}

// relay copies src to rw chunk by chunk, flushing after each write.
func (d *Dispatcher) relay(rw *relayWriter, src io.Reader) error {
	buf := make([]byte, d.cfg.ChunkSize)
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			if werr := rw.writeChunk(buf[:n]); werr != nil {
				return werr
			}
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return rerr
		}
	}
}

// classify maps the raw job error onto ErrCancelled, ErrTimeout or a failure.
func classify(parent, ctx context.Context, err, writeErr error) error {
	switch {
	case parent.Err() != nil:
		return fmt.Errorf("%w: %w", ErrCancelled, context.Cause(parent))
	case writeErr != nil:
		return fmt.Errorf("%w: %w", ErrCancelled, writeErr)
	case err == nil:
		return nil
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	default:
		return err
	}
}

// relayWriter commits headers lazily on the first chunk.
type relayWriter struct {
	w  http.ResponseWriter
	rc *http.ResponseController

	plan          Plan
	chunked       bool
	contentLength int64
	onCommit      func()

	committed bool
	bytes     int64
	writeErr  error
}

func (rw *relayWriter) commit() {
	if rw.committed {
		return
	}
	rw.committed = true
	h := rw.w.Header()
	h.Set("Content-Type", rw.plan.ContentType)
	h.Set("Content-Disposition", `attachment; filename="`+rw.plan.Filename+`"`)
	h.Set("X-Content-Type-Options", "nosniff")
	switch {
	case rw.chunked:
		h.Set("Transfer-Encoding", "chunked")
	case rw.contentLength > 0:
		h.Set("Content-Length", strconv.FormatInt(rw.contentLength, 10))
	}
	rw.w.WriteHeader(http.StatusOK)
	if rw.onCommit != nil {
		rw.onCommit()
	}
}

func (rw *relayWriter) writeChunk(p []byte) error {
	rw.commit()
	n, err := rw.w.Write(p)
	rw.bytes += int64(n)
	if err != nil {
		rw.writeErr = err
		return err
	}
	if err := rw.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		rw.writeErr = err
		return err
	}
	return nil
}

// ctxReader stops a file relay once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
