// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AdmissionTotal counts admission decisions by class and result.
	AdmissionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vgrab_admission_total",
		Help: "Total number of admission decisions, by class (inspect/download) and result (admitted/rejected).",
	}, []string{"class", "result"})

	// AdmissionInUse tracks held admission slots.
	AdmissionInUse = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vgrab_admission_in_use",
		Help: "Current number of held admission slots, by class.",
	}, []string{"class"})

	// RateLimitExceededTotal counts requests rejected by a rate limiter.
	RateLimitExceededTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vgrab_ratelimit_exceeded_total",
		Help: "Total number of requests rejected by rate limiting, by limit (api/spawn).",
	}, []string{"limit"})
)

// RecordAdmit records an admitted request and bumps the in-use gauge.
func RecordAdmit(class string) {
	AdmissionTotal.WithLabelValues(class, "admitted").Inc()
	AdmissionInUse.WithLabelValues(class).Inc()
}

// RecordRelease lowers the in-use gauge.
func RecordRelease(class string) {
	AdmissionInUse.WithLabelValues(class).Dec()
}

// RecordReject records a rejected request.
func RecordReject(class string) {
	AdmissionTotal.WithLabelValues(class, "rejected").Inc()
}

// IncRateLimitExceeded records a rate-limited request.
func IncRateLimitExceeded(limit string) {
	RateLimitExceededTotal.WithLabelValues(limit).Inc()
}
