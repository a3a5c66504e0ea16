// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package fsutil

import (
	"fmt"
	"os"
)

// EnsureDir creates dir (and parents) with 0750 if it does not exist.
func EnsureDir(dir string) error {
	// #nosec G301 -- downloads dir is private to the service user
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}
	return nil
}

// CheckWritable verifies that a file can be created in dir.
func CheckWritable(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", dir)
	}
	f, err := os.CreateTemp(dir, ".vgrab-probe-*")
	if err != nil {
		return fmt.Errorf("dir %s not writable: %w", dir, err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
