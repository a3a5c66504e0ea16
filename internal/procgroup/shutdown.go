// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package procgroup

import (
	"os/exec"
	"syscall"
	"time"

	"github.com/ManuGH/vgrab/internal/metrics"
)

// Terminate stops the process group of cmd: SIGTERM, then SIGKILL once grace
// has passed without the process exiting.
// waitCh must deliver the result of cmd.Wait. Terminate always drains it and
// returns that result. A nil or unstarted command returns nil.
func Terminate(cmd *exec.Cmd, waitCh <-chan error, grace time.Duration) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}

	metrics.IncProcTerminate("SIGTERM", signalResult(signalGroup(cmd, syscall.SIGTERM)))

	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case err := <-waitCh:
		if err == nil {
			metrics.IncProcWait("exit0")
		} else {
			metrics.IncProcWait("exit_nonzero")
		}
		return err
	case <-timer.C:
		metrics.IncProcTerminate("SIGKILL", signalResult(signalGroup(cmd, syscall.SIGKILL)))

		// SIGKILL cannot be ignored, so Wait is expected to return promptly.
		err := <-waitCh
		if err == nil {
			metrics.IncProcWait("forced_exit0")
		} else {
			metrics.IncProcWait("forced_error")
		}
		return err
	}
}

func signalResult(err error) string {
	switch {
	case err == nil:
		return "sent"
	case isGone(err):
		return "esrch"
	default:
		return "error"
	}
}
