// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package metrics holds the Prometheus collectors shared across vgrab packages.
// Labels are bounded enums only; never put urls, titles or request ids in them.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ToolInvocationsTotal counts yt-dlp invocations by mode and result.
	ToolInvocationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vgrab_tool_invocations_total",
		Help: "Total number of downloader tool invocations, by mode and result.",
	}, []string{"mode", "result"})

	// ToolDuration tracks wall time of tool invocations.
	ToolDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vgrab_tool_duration_seconds",
		Help:    "Wall time of downloader tool invocations",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 900, 1800},
	}, []string{"mode"})

	// ProcTerminateTotal counts signals sent to child process groups.
	ProcTerminateTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vgrab_proc_terminate_total",
		Help: "Total number of termination signals sent to child process groups, by signal and result.",
	}, []string{"signal", "result"})

	// ProcWaitTotal counts how terminated child processes were reaped.
	ProcWaitTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vgrab_proc_wait_total",
		Help: "Total number of reaped child processes after termination, by outcome.",
	}, []string{"outcome"})
)

// ObserveTool records one finished tool invocation.
func ObserveTool(mode, result string, d time.Duration) {
	ToolInvocationsTotal.WithLabelValues(mode, result).Inc()
	ToolDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// IncProcTerminate records a termination signal attempt.
func IncProcTerminate(signal, result string) {
	ProcTerminateTotal.WithLabelValues(signal, result).Inc()
}

// IncProcWait records how a terminated process was reaped.
func IncProcWait(outcome string) {
	ProcWaitTotal.WithLabelValues(outcome).Inc()
}
