// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"os/exec"

	"github.com/ManuGH/vgrab/internal/fsutil"
)

// BinaryChecker reports whether an executable resolves on PATH.
type BinaryChecker struct {
	name string
	bin  string
	look func(string) (string, error)
}

// NewBinaryChecker creates a checker for bin.
func NewBinaryChecker(name, bin string) *BinaryChecker {
	return &BinaryChecker{name: name, bin: bin, look: exec.LookPath}
}

func (c *BinaryChecker) Name() string { return c.name }

func (c *BinaryChecker) Check(_ context.Context) CheckResult {
	path, err := c.look(c.bin)
	if err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: "binary not found", Message: c.bin}
	}
	return CheckResult{Status: StatusHealthy, Message: path}
}

// DirChecker reports whether a directory exists and accepts new files.
type DirChecker struct {
	name string
	dir  string
}

// NewDirChecker creates a checker for dir.
func NewDirChecker(name, dir string) *DirChecker {
	return &DirChecker{name: name, dir: dir}
}

func (c *DirChecker) Name() string { return c.name }

func (c *DirChecker) Check(_ context.Context) CheckResult {
	if err := fsutil.CheckWritable(c.dir); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: "directory not writable", Message: c.dir}
	}
	return CheckResult{Status: StatusHealthy, Message: "writable"}
}
