// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys shared across spans.
const (
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"

	ToolModeKey     = "ytdlp.mode"
	ToolExitCodeKey = "ytdlp.exit_code"
	ToolPIDKey      = "ytdlp.pid"

	DownloadPathKey     = "download.path"
	DownloadFormatIDKey = "download.format_id"
	DownloadOutcomeKey  = "download.outcome"
	DownloadBytesKey    = "download.bytes"

	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes. Raw URLs are left out
// since request targets carry user supplied media links.
func HTTPAttributes(method, route string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// ToolAttributes describes one downloader invocation.
func ToolAttributes(mode string, pid, exitCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(ToolModeKey, mode),
		attribute.Int(ToolPIDKey, pid),
		attribute.Int(ToolExitCodeKey, exitCode),
	}
}

// DownloadAttributes describes a finished download job.
func DownloadAttributes(path, formatID, outcome string, bytes int64) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(DownloadPathKey, path),
		attribute.String(DownloadOutcomeKey, outcome),
		attribute.Int64(DownloadBytesKey, bytes),
	}
	if formatID != "" {
		attrs = append(attrs, attribute.String(DownloadFormatIDKey, formatID))
	}
	return attrs
}

// ErrorAttributes tags a span with an error class.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(ErrorTypeKey, errorType),
	}
}
