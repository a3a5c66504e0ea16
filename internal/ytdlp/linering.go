// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ytdlp

import (
	"bytes"
	"sync"
)

// maxPartialLine bounds the unterminated tail kept between writes.
const maxPartialLine = 4096

// LineRing is a thread-safe ring buffer holding the last N lines written to it.
// Partial lines are carried across writes until a newline or Flush.
type LineRing struct {
	mu      sync.RWMutex
	lines   []string
	head    int
	count   int
	partial []byte

	// OnLine, if set, is called for every completed line. It runs under the
	// ring's lock and must not call back into the ring.
	OnLine func(line string)
}

// NewLineRing creates a LineRing with the specified capacity.
func NewLineRing(capacity int) *LineRing {
	if capacity < 1 {
		capacity = 50
	}
	return &LineRing{lines: make([]string, capacity)}
}

// Write implements io.Writer.
func (r *LineRing) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := p
	for len(data) > 0 {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			r.partial = append(r.partial, data...)
			if len(r.partial) > maxPartialLine {
				r.addLocked(string(r.partial))
				r.partial = r.partial[:0]
			}
			break
		}
		r.partial = append(r.partial, data[:i]...)
		r.addLocked(string(bytes.TrimRight(r.partial, "\r")))
		r.partial = r.partial[:0]
		data = data[i+1:]
	}
	return len(p), nil
}

// Flush records a pending partial line, if any.
func (r *LineRing) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.partial) > 0 {
		r.addLocked(string(r.partial))
		r.partial = r.partial[:0]
	}
}

func (r *LineRing) addLocked(line string) {
	if line == "" {
		return
	}
	r.lines[r.head] = line
	r.head = (r.head + 1) % len(r.lines)
	if r.count < len(r.lines) {
		r.count++
	}
	if r.OnLine != nil {
		r.OnLine(line)
	}
}

// LastN returns up to n of the most recent lines, oldest first.
func (r *LineRing) LastN(n int) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if n > r.count {
		n = r.count
	}
	out := make([]string, 0, n)
	size := len(r.lines)
	for i := n; i > 0; i-- {
		out = append(out, r.lines[(r.head-i+size)%size])
	}
	return out
}
