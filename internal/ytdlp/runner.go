// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package ytdlp drives the external yt-dlp binary: argument construction,
// process supervision and decoding of its inspection output.
package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrToolFailed marks any failure of the downloader tool: a failed start,
// a non-zero exit or unreadable output. Tool text never travels in it.
var ErrToolFailed = errors.New("ytdlp: tool failed")

// Mode names an invocation kind. It labels logs, spans and metrics.
type Mode string

const (
	ModeInfo   Mode = "info"
	ModeList   Mode = "list"
	ModeDirect Mode = "direct"
	ModeMerge  Mode = "merge"
)

// Invocation is one tool run.
type Invocation struct {
	Mode Mode
	Args []string
}

// Runner starts tool processes. Cancelling ctx terminates the process group.
type Runner interface {
	Start(ctx context.Context, inv Invocation) (Process, error)
}

// Process is a started tool run.
//
// Stdout must be read to EOF (or ctx cancelled) before Wait returns.
// Wait returns nil on exit 0, ctx.Err() when the run was cancelled or timed
// out, and an error wrapping ErrToolFailed otherwise.
type Process interface {
	Stdout() io.Reader
	Wait() error
	// StderrTail returns the last captured stderr lines, for logging only.
	StderrTail() []string
}

// ExitError reports a non-zero tool exit.
type ExitError struct {
	Mode Mode
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("ytdlp: %s exited with code %d", e.Mode, e.Code)
}

// Unwrap lets errors.Is(err, ErrToolFailed) match.
func (e *ExitError) Unwrap() error { return ErrToolFailed }
