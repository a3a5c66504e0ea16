// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package download

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ManuGH/vgrab/internal/fsutil"
	"github.com/ManuGH/vgrab/internal/log"
	"github.com/ManuGH/vgrab/internal/metrics"
)

const mergeExt = ".mp4"

// tempNameRe matches names produced by Reserve, including tool intermediates
// that share the stem (".f137.mp4", ".part", ".temp.mp4", ...).
var tempNameRe = regexp.MustCompile(`^\d+-[0-9a-f]{8}_[A-Za-z0-9_-]+(\.|$)`)

// TempFiles hands out merge output paths under one directory and removes them.
// Stems of reserved paths stay live until Cleanup and are never swept.
type TempFiles struct {
	dir string
	now func() time.Time

	mu   sync.Mutex
	live map[string]struct{}
}

// NewTempFiles manages temp files under dir. The directory must exist.
func NewTempFiles(dir string) *TempFiles {
	return &TempFiles{dir: dir, now: time.Now, live: make(map[string]struct{})}
}

// Dir returns the managed directory.
func (t *TempFiles) Dir() string { return t.dir }

// Reserve returns a fresh, confined path "<unix-ms>-<8 hex>_<title>.mp4".
// Nothing is created; the tool writes the file.
func (t *TempFiles) Reserve(title string) (string, error) {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	name := fmt.Sprintf("%d-%s_%s%s", t.now().UnixMilli(), suffix, SanitizeTitle(title), mergeExt)
	p, err := fsutil.ConfineRelPath(t.dir, name)
	if err != nil {
		return "", fmt.Errorf("reserve temp path: %w", err)
	}
	t.mu.Lock()
	t.live[strings.TrimSuffix(name, mergeExt)] = struct{}{}
	t.mu.Unlock()
	return p, nil
}

// stemOf returns the reserved stem a file name belongs to. Sanitized titles
// contain no dots, so the stem ends at the first one.
func stemOf(name string) string {
	stem, _, _ := strings.Cut(name, ".")
	return stem
}

func (t *TempFiles) isLive(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.live[stemOf(name)]
	return ok
}

// Cleanup removes path and every sibling sharing its stem. Failures are
// logged and counted, never returned.
func (t *TempFiles) Cleanup(ctx context.Context, path string) {
	logger := log.WithComponentFromContext(ctx, "download")
	dir, base := filepath.Split(path)
	stem := strings.TrimSuffix(base, mergeExt)
	defer func() {
		t.mu.Lock()
		delete(t.live, stem)
		t.mu.Unlock()
	}()

	entries, err := os.ReadDir(dir)
	if err != nil {
		metrics.IncCleanup("error")
		logger.Warn().Err(err).Str(log.FieldEvent, "download.cleanup_failed").Str(log.FieldPath, path).Msg("failed to list temp dir")
		return
	}

	removed := 0
	for _, e := range entries {
		name := e.Name()
		if name != base && !strings.HasPrefix(name, stem+".") {
			continue
		}
		target := filepath.Join(dir, name)
		if err := os.Remove(target); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			metrics.IncCleanup("error")
			logger.Warn().Err(err).Str(log.FieldEvent, "download.cleanup_failed").Str(log.FieldPath, target).Msg("failed to remove temp file")
			continue
		}
		removed++
		metrics.IncCleanup("removed")
	}
	if removed == 0 {
		metrics.IncCleanup("missing")
	}
	logger.Debug().Str(log.FieldEvent, "download.cleanup").Str(log.FieldPath, path).Int("removed", removed).Msg("temp files removed")
}

// SweepStale removes temp files older than staleAfter, left behind by a
// crashed process. Files of reservations not yet cleaned up are skipped. It
// returns the number of removed files.
func (t *TempFiles) SweepStale(ctx context.Context, staleAfter time.Duration) (int, error) {
	logger := log.WithComponentFromContext(ctx, "download")
	entries, err := os.ReadDir(t.dir)
	if err != nil {
		return 0, fmt.Errorf("sweep %s: %w", t.dir, err)
	}

	cutoff := t.now().Add(-staleAfter)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !tempNameRe.MatchString(e.Name()) || t.isLive(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		target := filepath.Join(t.dir, e.Name())
		if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
			metrics.IncCleanup("error")
			logger.Warn().Err(err).Str(log.FieldEvent, "download.sweep_failed").Str(log.FieldPath, target).Msg("failed to remove stale temp file")
			continue
		}
		removed++
		metrics.IncCleanup("stale")
	}
	if removed > 0 {
		logger.Info().Str(log.FieldEvent, "download.sweep").Int("removed", removed).Msg("removed stale temp files")
	}
	return removed, nil
}

// RunSweeper sweeps once, then every interval until ctx is done.
func (t *TempFiles) RunSweeper(ctx context.Context, interval, staleAfter time.Duration) error {
	logger := log.WithComponent("download")
	sweep := func() {
		if _, err := t.SweepStale(ctx, staleAfter); err != nil {
			logger.Warn().Err(err).Str(log.FieldEvent, "download.sweep_failed").Msg("stale sweep failed")
		}
	}

	sweep()
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			sweep()
		}
	}
}
