// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import "errors"

var (
	// ErrMissingHandler is returned when the HTTP server has no handler.
	ErrMissingHandler = errors.New("HTTP handler is required")

	// ErrManagerNotStarted is returned when trying to shutdown a manager that hasn't started
	ErrManagerNotStarted = errors.New("manager not started")

	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("manager already started")

	// ErrServerStartFailed is returned when the server cannot listen or serve.
	ErrServerStartFailed = errors.New("server failed to start")
)
