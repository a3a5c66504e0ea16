// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package ytdlptest provides a scripted ytdlp.Runner for tests.
package ytdlptest

import (
	"context"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/ManuGH/vgrab/internal/ytdlp"
)

// Script describes how a fake invocation behaves.
type Script struct {
	// Chunks are written to stdout in order.
	Chunks [][]byte
	// Output, when non-nil, is written to the path following "-o".
	Output []byte
	// Leftovers are extra files created next to the output path, named
	// output+suffix, as a crashed merge would leave behind.
	Leftovers []string
	// Stderr lines reported by StderrTail.
	Stderr []string
	// ExitCode non-zero makes Wait return *ytdlp.ExitError.
	ExitCode int
	// Block keeps the process alive after its output until ctx is done.
	Block bool
	// StartErr fails Start itself.
	StartErr error
}

// Runner is a ytdlp.Runner answering from per-mode scripts.
type Runner struct {
	mu      sync.Mutex
	scripts map[ytdlp.Mode]Script
	calls   []ytdlp.Invocation
	running atomic.Int32
	started chan ytdlp.Invocation
}

// New returns a Runner with no scripts; unscripted modes exit 0 with no output.
func New() *Runner {
	return &Runner{
		scripts: make(map[ytdlp.Mode]Script),
		started: make(chan ytdlp.Invocation, 64),
	}
}

// On sets the script for mode.
func (r *Runner) On(mode ytdlp.Mode, s Script) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scripts[mode] = s
	return r
}

// Calls returns the invocations seen so far.
func (r *Runner) Calls() []ytdlp.Invocation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ytdlp.Invocation(nil), r.calls...)
}

// Running reports processes that have not finished yet.
func (r *Runner) Running() int { return int(r.running.Load()) }

// Started delivers every invocation once its process is running.
func (r *Runner) Started() <-chan ytdlp.Invocation { return r.started }

// Start implements ytdlp.Runner.
func (r *Runner) Start(ctx context.Context, inv ytdlp.Invocation) (ytdlp.Process, error) {
	r.mu.Lock()
	s := r.scripts[inv.Mode]
	r.calls = append(r.calls, inv)
	r.mu.Unlock()

	if s.StartErr != nil {
		return nil, s.StartErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	p := &process{stdout: pr, stderr: s.Stderr, done: make(chan struct{})}
	r.running.Add(1)
	go func() {
		p.err = run(ctx, inv, s, pw)
		_ = pw.CloseWithError(p.err)
		r.running.Add(-1)
		close(p.done)
	}()
	go func() {
		select {
		case <-ctx.Done():
			// Same as the real runner: a cancelled run stops feeding stdout.
			_ = pr.CloseWithError(ctx.Err())
		case <-p.done:
		}
	}()
	select {
	case r.started <- inv:
	default:
	}
	return p, nil
}

func run(ctx context.Context, inv ytdlp.Invocation, s Script, pw *io.PipeWriter) error {
	if out := OutputArg(inv.Args); out != "" && out != ytdlp.StdoutTarget {
		if s.Output != nil {
			if err := os.WriteFile(out, s.Output, 0o600); err != nil {
				return err
			}
		}
		for _, suffix := range s.Leftovers {
			if err := os.WriteFile(out+suffix, []byte("partial"), 0o600); err != nil {
				return err
			}
		}
	}

	for _, chunk := range s.Chunks {
		if _, err := pw.Write(chunk); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
	}

	if s.Block {
		<-ctx.Done()
		return ctx.Err()
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if s.ExitCode != 0 {
		return &ytdlp.ExitError{Mode: inv.Mode, Code: s.ExitCode}
	}
	return nil
}

// OutputArg returns the value following "-o" in args.
func OutputArg(args []string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == "-o" {
			return args[i+1]
		}
	}
	return ""
}

type process struct {
	stdout *io.PipeReader
	stderr []string
	done   chan struct{}
	err    error
}

func (p *process) Stdout() io.Reader { return p.stdout }

func (p *process) Wait() error {
	<-p.done
	return p.err
}

func (p *process) StderrTail() []string { return p.stderr }
