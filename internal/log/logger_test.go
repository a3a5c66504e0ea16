// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestConfigure_ServiceAndComponent(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "vgrab-test", Version: "v0.0.1"})
	t.Cleanup(func() { Configure(Config{Level: "info"}) })

	l := WithComponent("download")
	l.Debug().Str(FieldEvent, "test.event").Msg("hello")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "vgrab-test", lines[0]["service"])
	assert.Equal(t, "v0.0.1", lines[0]["version"])
	assert.Equal(t, "download", lines[0][FieldComponent])
	assert.Equal(t, "test.event", lines[0][FieldEvent])
}

func TestSetLevel(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	require.NoError(t, SetLevel("warn"))
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	assert.Error(t, SetLevel("loud"))
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel(), "invalid level must not change state")
}

func TestMiddleware_LogsStatusAndBytes(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "info", Output: &buf})
	t.Cleanup(func() { Configure(Config{Level: "info"}) })

	h := Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req = req.WithContext(ContextWithRequestID(req.Context(), "rid-1"))
	h.ServeHTTP(httptest.NewRecorder(), req)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "request.handled", lines[0][FieldEvent])
	assert.EqualValues(t, http.StatusTeapot, lines[0][FieldStatus])
	assert.EqualValues(t, 5, lines[0][FieldBytes])
	assert.Equal(t, "rid-1", lines[0][FieldRequestID])
}
