// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build unix

// Package procgroup starts child processes in their own process group and
// signals the whole group, so helpers spawned by a child (ffmpeg under yt-dlp)
// go down with it.
package procgroup

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// Set configures the command to start in a new process group.
// Mandatory for Kill to reach grandchildren.
func Set(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

// Kill sends sig to the process group of cmd.
// A nil command, an unstarted command or an already exited group is not an error.
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
	pid := cmd.Process.Pid
	// Setpgid makes the child a group leader, so PGID == PID.
	pgid, err := syscall.Getpgid(pid)
	if err != nil {
		return err
	}
	if err := syscall.Kill(-pgid, sig); err != nil {
		// Fall back to the leader alone when the group is off limits.
		if errors.Is(err, syscall.EPERM) {
			return cmd.Process.Signal(sig)
		}
		return err
	}
	return nil
}

func isGone(err error) bool {
	return errors.Is(err, syscall.ESRCH) || errors.Is(err, os.ErrProcessDone)
}
