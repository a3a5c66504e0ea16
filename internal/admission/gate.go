// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package admission caps the number of concurrently running tool jobs per class.
// Requests over a cap are rejected at once; there is no queue.
package admission

import (
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/ManuGH/vgrab/internal/metrics"
)

// Class groups jobs sharing one cap.
type Class string

const (
	ClassInspect  Class = "inspect"
	ClassDownload Class = "download"
)

// ErrRejected is returned when a class has no free slot.
var ErrRejected = errors.New("admission: capacity exhausted")

type slot struct {
	sem   *semaphore.Weighted
	limit int64
	inUse atomic.Int64
}

// Gate holds one weighted semaphore per class. Classes without a limit are
// always admitted.
type Gate struct {
	slots map[Class]*slot
}

// NewGate builds a Gate from per-class limits. Non-positive limits are ignored.
func NewGate(limits map[Class]int) *Gate {
	g := &Gate{slots: make(map[Class]*slot, len(limits))}
	for c, n := range limits {
		if n <= 0 {
			continue
		}
		g.slots[c] = &slot{sem: semaphore.NewWeighted(int64(n)), limit: int64(n)}
	}
	return g
}

// TryAcquire takes a slot of class without blocking. The returned release is
// idempotent and must be called once the job is done.
func (g *Gate) TryAcquire(class Class) (release func(), err error) {
	s, ok := g.slots[class]
	if !ok {
		return func() {}, nil
	}
	if !s.sem.TryAcquire(1) {
		metrics.RecordReject(string(class))
		return nil, ErrRejected
	}
	s.inUse.Add(1)
	metrics.RecordAdmit(string(class))

	var once sync.Once
	return func() {
		once.Do(func() {
			s.inUse.Add(-1)
			s.sem.Release(1)
			metrics.RecordRelease(string(class))
		})
	}, nil
}

// InUse reports held slots of class.
func (g *Gate) InUse(class Class) int {
	if s, ok := g.slots[class]; ok {
		return int(s.inUse.Load())
	}
	return 0
}

// Limit reports the cap of class, 0 when unlimited.
func (g *Gate) Limit(class Class) int {
	if s, ok := g.slots[class]; ok {
		return int(s.limit)
	}
	return 0
}
