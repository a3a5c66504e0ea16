// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DownloadJobsTotal counts finished download jobs by dispatch path and outcome.
	DownloadJobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vgrab_download_jobs_total",
		Help: "Total number of finished download jobs, by path (direct/merge) and outcome.",
	}, []string{"path", "outcome"})

	// DownloadBytesTotal counts body bytes relayed to clients.
	DownloadBytesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vgrab_download_bytes_total",
		Help: "Total number of media bytes streamed to clients, by path.",
	}, []string{"path"})

	// TempfileCleanupTotal counts temp file removals.
	TempfileCleanupTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vgrab_tempfile_cleanup_total",
		Help: "Total number of temp file removal attempts, by result (removed/missing/error/stale).",
	}, []string{"result"})

	// ActiveDownloads tracks jobs that currently own a child process.
	ActiveDownloads = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vgrab_active_downloads",
		Help: "Current number of running download jobs, by path.",
	}, []string{"path"})
)

// RecordJob records a finished download job.
func RecordJob(path, outcome string, bytes int64) {
	DownloadJobsTotal.WithLabelValues(path, outcome).Inc()
	if bytes > 0 {
		DownloadBytesTotal.WithLabelValues(path).Add(float64(bytes))
	}
}

// IncCleanup records a temp file removal attempt.
func IncCleanup(result string) {
	TempfileCleanupTotal.WithLabelValues(result).Inc()
}
