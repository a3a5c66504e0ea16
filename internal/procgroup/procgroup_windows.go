// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build windows

package procgroup

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// Set is a no-op on Windows.
func Set(cmd *exec.Cmd) {}

// Kill maps SIGKILL to Process.Kill. Other signals are ignored since Windows
// has no reliable graceful equivalent; callers escalate to SIGKILL anyway.
func Kill(cmd *exec.Cmd, sig syscall.Signal) error {
	if err := signalGroup(cmd, sig); err != nil && !isGone(err) {
		return err
	}
	return nil
}

func signalGroup(cmd *exec.Cmd, sig syscall.Signal) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	if sig == syscall.SIGKILL {
		return cmd.Process.Kill()
	}
	return nil
}

func isGone(err error) bool {
	return errors.Is(err, os.ErrProcessDone)
}
