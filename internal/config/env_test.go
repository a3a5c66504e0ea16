// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseString(t *testing.T) {
	t.Setenv("VGRAB_TEST_STRING", "from-env")
	t.Setenv("VGRAB_TEST_EMPTY", "")

	assert.Equal(t, "from-env", ParseString("VGRAB_TEST_STRING", "default"))
	assert.Equal(t, "default", ParseString("VGRAB_TEST_EMPTY", "default"))
	assert.Equal(t, "default", ParseString("VGRAB_TEST_UNSET_STRING", "default"))
}

func TestParseString_SensitiveStillReturned(t *testing.T) {
	t.Setenv("VGRAB_TEST_TOKEN", "s3cret")
	assert.Equal(t, "s3cret", ParseString("VGRAB_TEST_TOKEN", ""))
	assert.True(t, isSensitiveKey("VGRAB_API_TOKEN"))
	assert.True(t, isSensitiveKey("db_password"))
	assert.False(t, isSensitiveKey("VGRAB_LISTEN"))
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want int
	}{
		{"valid", "42", 42},
		{"negative", "-3", -3},
		{"garbage", "forty", 7},
		{"empty", "", 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("VGRAB_TEST_INT", tt.env)
			assert.Equal(t, tt.want, ParseInt("VGRAB_TEST_INT", 7))
		})
	}
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"true", "TRUE", "1", "yes"} {
		t.Setenv("VGRAB_TEST_BOOL", v)
		assert.True(t, ParseBool("VGRAB_TEST_BOOL", false), v)
	}
	for _, v := range []string{"false", "0", "No"} {
		t.Setenv("VGRAB_TEST_BOOL", v)
		assert.False(t, ParseBool("VGRAB_TEST_BOOL", true), v)
	}
	t.Setenv("VGRAB_TEST_BOOL", "maybe")
	assert.True(t, ParseBool("VGRAB_TEST_BOOL", true))
}

func TestParseDuration(t *testing.T) {
	t.Setenv("VGRAB_TEST_DUR", "90s")
	assert.Equal(t, 90*time.Second, ParseDuration("VGRAB_TEST_DUR", time.Second))

	t.Setenv("VGRAB_TEST_DUR", "ninety")
	assert.Equal(t, time.Second, ParseDuration("VGRAB_TEST_DUR", time.Second))
}

func TestParseFloat(t *testing.T) {
	t.Setenv("VGRAB_TEST_FLOAT", "0.25")
	assert.InDelta(t, 0.25, ParseFloat("VGRAB_TEST_FLOAT", 1), 1e-9)

	t.Setenv("VGRAB_TEST_FLOAT", "x")
	assert.InDelta(t, 1.0, ParseFloat("VGRAB_TEST_FLOAT", 1), 1e-9)
}

func TestParseList(t *testing.T) {
	t.Setenv("VGRAB_TEST_LIST", " https://a.example , ,https://b.example")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, ParseList("VGRAB_TEST_LIST", nil))

	t.Setenv("VGRAB_TEST_LIST", " , ")
	assert.Equal(t, []string{"*"}, ParseList("VGRAB_TEST_LIST", []string{"*"}))
}
