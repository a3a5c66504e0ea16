// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package download

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestReserve_NameShape(t *testing.T) {
	dir := t.TempDir()
	tf := NewTempFiles(dir)
	tf.now = func() time.Time { return time.UnixMilli(1700000000123) }

	p, err := tf.Reserve("My Video!")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^1700000000123-[0-9a-f]{8}_My_Video\.mp4$`), filepath.Base(p))
	assert.True(t, tempNameRe.MatchString(filepath.Base(p)))
	assert.Empty(t, listDir(t, dir), "reserve does not create the file")

	p2, err := tf.Reserve("My Video!")
	require.NoError(t, err)
	assert.NotEqual(t, p, p2)
}

func TestCleanup_RemovesStemSiblings(t *testing.T) {
	dir := t.TempDir()
	tf := NewTempFiles(dir)
	p, err := tf.Reserve("clip")
	require.NoError(t, err)

	stem := p[:len(p)-len(".mp4")]
	for _, name := range []string{p, stem + ".f137.mp4", stem + ".f140.m4a.part", stem + ".temp.mp4"} {
		require.NoError(t, os.WriteFile(name, []byte("x"), 0o600))
	}
	other := filepath.Join(dir, "1700000000000-00000000_clip.mp4")
	require.NoError(t, os.WriteFile(other, []byte("x"), 0o600))

	tf.Cleanup(context.Background(), p)
	assert.Equal(t, []string{filepath.Base(other)}, listDir(t, dir))

	// Cleaning up twice is harmless.
	tf.Cleanup(context.Background(), p)
}

func TestSweepStale(t *testing.T) {
	dir := t.TempDir()
	tf := NewTempFiles(dir)

	old := filepath.Join(dir, "1600000000000-0123abcd_old.mp4")
	oldPart := filepath.Join(dir, "1600000000000-0123abcd_old.f137.mp4.part")
	fresh := filepath.Join(dir, "1700000000000-89abcdef_new.mp4")
	foreign := filepath.Join(dir, "notes.txt")
	for _, f := range []string{old, oldPart, fresh, foreign} {
		require.NoError(t, os.WriteFile(f, []byte("x"), 0o600))
	}
	past := time.Now().Add(-7 * time.Hour)
	for _, f := range []string{old, oldPart, foreign} {
		require.NoError(t, os.Chtimes(f, past, past))
	}

	n, err := tf.SweepStale(context.Background(), 6*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.ElementsMatch(t, []string{filepath.Base(fresh), "notes.txt"}, listDir(t, dir))
}

func TestSweepStale_SkipsLiveReservations(t *testing.T) {
	dir := t.TempDir()
	tf := NewTempFiles(dir)

	p, err := tf.Reserve("In Flight")
	require.NoError(t, err)
	part := strings.TrimSuffix(p, ".mp4") + ".f137.mp4.part"
	for _, f := range []string{p, part} {
		require.NoError(t, os.WriteFile(f, []byte("x"), 0o600))
	}
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(part, past, past))

	for _, staleAfter := range []time.Duration{6 * time.Hour, 0} {
		n, err := tf.SweepStale(context.Background(), staleAfter)
		require.NoError(t, err)
		assert.Zero(t, n)
	}
	assert.Len(t, listDir(t, dir), 2)

	tf.Cleanup(context.Background(), p)
	require.Empty(t, listDir(t, dir))

	// Once released, a leftover with the same stem is ordinary stale debris.
	require.NoError(t, os.WriteFile(part, []byte("x"), 0o600))
	require.NoError(t, os.Chtimes(part, past, past))
	n, err := tf.SweepStale(context.Background(), 6*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRunSweeper_StopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	stale := filepath.Join(dir, "1600000000000-0123abcd_old.mp4")
	require.NoError(t, os.WriteFile(stale, nil, 0o600))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(stale, past, past))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewTempFiles(dir).RunSweeper(ctx, 10*time.Millisecond, time.Minute) }()

	assert.Eventually(t, func() bool { return len(listDir(t, dir)) == 0 }, time.Second, 10*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
