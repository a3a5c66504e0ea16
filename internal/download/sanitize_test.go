// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package download

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Rick Astley - Never Gonna Give You Up (Official Video)", "Rick_Astley_-_Never_Gonna_Give_You_Up_Official_Video"},
		{"a ! b", "a_b"},
		{"tabs\tand\n\nnewlines", "tabs_and_newlines"},
		{"Ünïcödé 日本語", "ncd_"},
		{"under_score", "under_score"},
		{"", "video"},
		{"!!!", "video"},
		{"   ", "_"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeTitle(tt.in), "input %q", tt.in)
	}
}

func TestSanitizeTitle_Cap(t *testing.T) {
	got := SanitizeTitle(strings.Repeat("ab ", 80))
	assert.Len(t, got, 100)
}

func TestSanitizeTitle_Idempotent(t *testing.T) {
	for _, in := range []string{
		"Rick Astley - Never Gonna",
		strings.Repeat("x y ", 60),
		"", "!!!", "a b", "--__--",
	} {
		once := SanitizeTitle(in)
		assert.Equal(t, once, SanitizeTitle(once), "input %q", in)
	}
}
