// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldJobID     = "job_id"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldMode      = "mode"
	FieldPID       = "pid"
	FieldExitCode  = "exit_code"

	// Media fields
	FieldFormatID   = "format_id"
	FieldCodec      = "codec"
	FieldResolution = "resolution"
	FieldCombined   = "combined"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// Path / URL fields
	FieldPath      = "path"
	FieldSourceURL = "source_url"

	// HTTP fields
	FieldMethod   = "method"
	FieldStatus   = "status"
	FieldBytes    = "bytes"
	FieldDuration = "duration"
	FieldRemote   = "remote"
)
