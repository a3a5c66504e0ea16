// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getCounterVecValue(t *testing.T, vec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, vec.WithLabelValues(labels...).Write(m))
	return m.GetCounter().GetValue()
}

func getGaugeVecValue(t *testing.T, vec *prometheus.GaugeVec, labels ...string) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, vec.WithLabelValues(labels...).Write(m))
	return m.GetGauge().GetValue()
}

func TestObserveTool(t *testing.T) {
	before := getCounterVecValue(t, ToolInvocationsTotal, "info", "ok")
	ObserveTool("info", "ok", 120*time.Millisecond)
	assert.Equal(t, before+1, getCounterVecValue(t, ToolInvocationsTotal, "info", "ok"))
}

func TestAdmissionGauge(t *testing.T) {
	base := getGaugeVecValue(t, AdmissionInUse, "download")
	admitted := getCounterVecValue(t, AdmissionTotal, "download", "admitted")

	RecordAdmit("download")
	RecordAdmit("download")
	assert.Equal(t, base+2, getGaugeVecValue(t, AdmissionInUse, "download"))

	RecordRelease("download")
	RecordRelease("download")
	assert.Equal(t, base, getGaugeVecValue(t, AdmissionInUse, "download"))
	assert.Equal(t, admitted+2, getCounterVecValue(t, AdmissionTotal, "download", "admitted"))

	rejected := getCounterVecValue(t, AdmissionTotal, "download", "rejected")
	RecordReject("download")
	assert.Equal(t, rejected+1, getCounterVecValue(t, AdmissionTotal, "download", "rejected"))
}

func TestRecordJob_SkipsZeroBytes(t *testing.T) {
	bytesBefore := getCounterVecValue(t, DownloadBytesTotal, "merge")
	jobsBefore := getCounterVecValue(t, DownloadJobsTotal, "merge", "failed")

	RecordJob("merge", "failed", 0)
	assert.Equal(t, jobsBefore+1, getCounterVecValue(t, DownloadJobsTotal, "merge", "failed"))
	assert.Equal(t, bytesBefore, getCounterVecValue(t, DownloadBytesTotal, "merge"))

	RecordJob("merge", "completed", 4096)
	assert.Equal(t, bytesBefore+4096, getCounterVecValue(t, DownloadBytesTotal, "merge"))
}
