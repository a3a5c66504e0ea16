// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package download

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ManuGH/vgrab/internal/log"
)

// State is the lifecycle state of a download job.
type State int

const (
	StateIdle State = iota
	StateSpawned
	StateMerging
	StateStreaming
	StateCompleted
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSpawned:
		return "spawned"
	case StateMerging:
		return "merging"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// ErrIllegalTransition is returned for a transition outside the state graph.
var ErrIllegalTransition = errors.New("download: illegal state transition")

// Idle -> Spawned -> {Streaming | Merging -> Streaming} -> terminal.
// A start failure goes Idle -> Failed.
var transitions = map[State][]State{
	StateIdle:      {StateSpawned, StateFailed, StateCancelled},
	StateSpawned:   {StateStreaming, StateMerging, StateFailed, StateCancelled},
	StateMerging:   {StateStreaming, StateFailed, StateCancelled},
	StateStreaming: {StateCompleted, StateFailed, StateCancelled},
}

// Job tracks one download request. It is owned by a single request goroutine;
// the lock guards readers such as metrics and tests.
type Job struct {
	ID  string
	Req Request

	mu     sync.Mutex
	state  State
	logger zerolog.Logger
}

func newJob(id string, req Request, logger zerolog.Logger) *Job {
	return &Job{ID: id, Req: req, logger: logger}
}

// State returns the current state.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Transition moves the job to next, rejecting edges outside the graph.
func (j *Job) Transition(next State) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !slices.Contains(transitions[j.state], next) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, j.state, next)
	}
	prev := j.state
	j.state = next

	j.logger.Debug().
		Str(log.FieldEvent, "download.state").
		Str(log.FieldOldState, prev.String()).
		Str(log.FieldNewState, next.String()).
		Msg("job state changed")
	return nil
}

// finish moves a non-terminal job to a terminal state. It is a no-op on a
// job that already finished.
func (j *Job) finish(final State) {
	if j.State().Terminal() {
		return
	}
	_ = j.Transition(final)
}
