// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/vgrab/internal/config"
)

type mockChecker struct {
	name   string
	status Status
}

func (m *mockChecker) Name() string { return m.name }

func (m *mockChecker) Check(_ context.Context) CheckResult {
	return CheckResult{Status: m.status}
}

func TestManager_Health(t *testing.T) {
	m := NewManager("v1.0.0")
	m.RegisterChecker(&mockChecker{name: "ok", status: StatusHealthy})
	m.RegisterChecker(&mockChecker{name: "slow", status: StatusDegraded})

	resp := m.Health(context.Background(), false)
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Equal(t, "v1.0.0", resp.Version)
	assert.GreaterOrEqual(t, resp.Uptime, int64(0))
	assert.Nil(t, resp.Checks)

	resp = m.Health(context.Background(), true)
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.Len(t, resp.Checks, 2)
}

func TestManager_Ready(t *testing.T) {
	t.Run("no checkers", func(t *testing.T) {
		resp := NewManager("").Ready(context.Background())
		assert.True(t, resp.Ready)
		assert.Nil(t, resp.Checks)
	})
	t.Run("degraded is still ready", func(t *testing.T) {
		m := NewManager("")
		m.RegisterChecker(&mockChecker{name: "slow", status: StatusDegraded})
		resp := m.Ready(context.Background())
		assert.True(t, resp.Ready)
		assert.Equal(t, StatusDegraded, resp.Status)
	})
	t.Run("unhealthy wins over degraded", func(t *testing.T) {
		m := NewManager("")
		m.RegisterChecker(&mockChecker{name: "down", status: StatusUnhealthy})
		m.RegisterChecker(&mockChecker{name: "slow", status: StatusDegraded})
		resp := m.Ready(context.Background())
		assert.False(t, resp.Ready)
		assert.Equal(t, StatusUnhealthy, resp.Status)
	})
}

func TestManager_ServeHealthAlways200(t *testing.T) {
	m := NewManager("v1")
	m.RegisterChecker(&mockChecker{name: "down", status: StatusUnhealthy})

	rec := httptest.NewRecorder()
	m.ServeHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz?verbose=true", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, StatusUnhealthy, resp.Status)
}

func TestManager_ServeReady(t *testing.T) {
	m := NewManager("v1")
	m.RegisterChecker(&mockChecker{name: "down", status: StatusUnhealthy})

	rec := httptest.NewRecorder()
	m.ServeReady(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Ready)
	assert.Equal(t, StatusUnhealthy, resp.Checks["down"].Status)
}

func TestBinaryChecker(t *testing.T) {
	c := NewBinaryChecker("yt-dlp", "yt-dlp")
	c.look = func(string) (string, error) { return "/usr/bin/yt-dlp", nil }
	assert.Equal(t, "yt-dlp", c.Name())
	assert.Equal(t, CheckResult{Status: StatusHealthy, Message: "/usr/bin/yt-dlp"}, c.Check(context.Background()))

	c.look = func(string) (string, error) { return "", errors.New("not found") }
	res := c.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, res.Status)
	assert.Equal(t, "yt-dlp", res.Message)
}

func TestDirChecker(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, StatusHealthy, NewDirChecker("downloads", dir).Check(context.Background()).Status)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "probe file is removed")

	missing := filepath.Join(dir, "nope")
	assert.Equal(t, StatusUnhealthy, NewDirChecker("downloads", missing).Check(context.Background()).Status)
}

func TestPerformStartupChecks_CreatesDir(t *testing.T) {
	cfg := config.Defaults()
	cfg.Download.Dir = filepath.Join(t.TempDir(), "nested", "downloads")
	cfg.Tools.YtDlp = "vgrab-definitely-missing-binary"

	require.NoError(t, PerformStartupChecks(cfg))
	info, err := os.Stat(cfg.Download.Dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestPerformStartupChecks_FileInTheWay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "downloads")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	cfg := config.Defaults()
	cfg.Download.Dir = path
	assert.Error(t, PerformStartupChecks(cfg))
}
