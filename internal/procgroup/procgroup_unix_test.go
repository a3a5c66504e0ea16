// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build linux

package procgroup

import (
	"bufio"
	"errors"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// goneOrZombie reports whether pid no longer runs. Orphans may linger as
// zombies when the test runs under a PID 1 that does not reap.
func goneOrZombie(pid int) bool {
	if err := syscall.Kill(pid, 0); errors.Is(err, syscall.ESRCH) {
		return true
	}
	data, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/stat")
	if err != nil {
		return true
	}
	// pid (comm) state ...
	s := string(data)
	if i := strings.LastIndexByte(s, ')'); i >= 0 && i+2 < len(s) {
		return s[i+2] == 'Z'
	}
	return false
}

// startTree starts sh with one background sleep and returns the child pid.
func startTree(t *testing.T, script string) (*exec.Cmd, int) {
	t.Helper()
	cmd := exec.Command("sh", "-c", script)
	Set(cmd)
	stdout, err := cmd.StdoutPipe()
	require.NoError(t, err)
	require.NoError(t, cmd.Start())

	line, err := bufio.NewReader(stdout).ReadString('\n')
	require.NoError(t, err)
	child, err := strconv.Atoi(strings.TrimSpace(line))
	require.NoError(t, err)
	return cmd, child
}

func TestSet_MakesGroupLeader(t *testing.T) {
	cmd, _ := startTree(t, "sleep 30 & echo $!; wait")
	defer func() {
		_ = Kill(cmd, syscall.SIGKILL)
		_ = cmd.Wait()
	}()

	pgid, err := syscall.Getpgid(cmd.Process.Pid)
	require.NoError(t, err)
	assert.Equal(t, cmd.Process.Pid, pgid)
}

func TestKill_ReachesGrandchildren(t *testing.T) {
	cmd, child := startTree(t, "sleep 30 & echo $!; wait")

	require.NoError(t, Kill(cmd, syscall.SIGKILL))

	err := cmd.Wait()
	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	status, ok := exitErr.Sys().(syscall.WaitStatus)
	require.True(t, ok)
	assert.True(t, status.Signaled())
	assert.Equal(t, syscall.SIGKILL, status.Signal())

	assert.Eventually(t, func() bool { return goneOrZombie(child) }, 2*time.Second, 20*time.Millisecond,
		"background child %d survived the group kill", child)
}

func TestKill_NilAndExited(t *testing.T) {
	assert.NoError(t, Kill(nil, syscall.SIGTERM))
	assert.NoError(t, Kill(exec.Command("true"), syscall.SIGTERM), "unstarted command")

	cmd := exec.Command("true")
	Set(cmd)
	require.NoError(t, cmd.Run())
	assert.NoError(t, Kill(cmd, syscall.SIGTERM), "reaped process")
}

func TestTerminate_GracefulExit(t *testing.T) {
	cmd, _ := startTree(t, "sleep 30 & echo $!; wait")
	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	start := time.Now()
	err := Terminate(cmd, waitCh, 5*time.Second)
	require.Error(t, err, "SIGTERM exit is non-zero")
	assert.Less(t, time.Since(start), 4*time.Second, "should not wait for the grace period")
}

func TestTerminate_EscalatesToSIGKILL(t *testing.T) {
	cmd, child := startTree(t, "trap '' TERM; sleep 30 & echo $!; while true; do sleep 1; done")
	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	err := Terminate(cmd, waitCh, 200*time.Millisecond)
	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	status, ok := exitErr.Sys().(syscall.WaitStatus)
	require.True(t, ok)
	assert.Equal(t, syscall.SIGKILL, status.Signal())

	assert.Eventually(t, func() bool { return goneOrZombie(child) }, 2*time.Second, 20*time.Millisecond)
}

func TestTerminate_NilCommand(t *testing.T) {
	assert.NoError(t, Terminate(nil, nil, time.Millisecond))
}
