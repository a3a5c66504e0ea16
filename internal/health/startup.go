// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"fmt"
	"os/exec"

	"github.com/ManuGH/vgrab/internal/config"
	"github.com/ManuGH/vgrab/internal/fsutil"
	"github.com/ManuGH/vgrab/internal/log"
)

// PerformStartupChecks prepares the downloads directory and reports missing
// tool binaries. An unusable directory is fatal; a missing binary only fails
// readiness later, so the daemon can still answer probes.
func PerformStartupChecks(cfg config.AppConfig) error {
	logger := log.WithComponent("startup-check")

	if err := fsutil.EnsureDir(cfg.Download.Dir); err != nil {
		return fmt.Errorf("downloads directory check failed: %w", err)
	}
	if err := fsutil.CheckWritable(cfg.Download.Dir); err != nil {
		return fmt.Errorf("downloads directory check failed: %w", err)
	}
	logger.Info().Str(log.FieldPath, cfg.Download.Dir).Msg("downloads directory is writable")

	for _, bin := range []string{cfg.Tools.YtDlp, cfg.Tools.FFmpeg} {
		if path, err := exec.LookPath(bin); err != nil {
			logger.Warn().Err(err).Str("binary", bin).Msg("tool binary not found; readiness will fail")
		} else {
			logger.Info().Str("binary", path).Msg("tool binary resolved")
		}
	}
	return nil
}
