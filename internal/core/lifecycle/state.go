// SPDX-License-Identifier: MPL-2.0

package lifecycle

import (
	"errors"
	"fmt"
)

// A background worker or watcher moves through these states in order:
// Created, Starting, Running, Stopping, Stopped. Failed can be reached
// from Starting or Running.
const (
	// StateCreated is a worker that has not been started yet.
	StateCreated State = iota
	// StateStarting is set while Run spawns the loop goroutine.
	StateStarting
	// StateRunning means the loop is consuming its queue or event channel.
	StateRunning
	// StateStopping means the context was cancelled and the loop is draining.
	StateStopping
	// StateStopped means Shutdown returned.
	StateStopped
	// StateFailed means the loop gave up, for example on a lost fsnotify channel.
	StateFailed
)

var (
	// ErrInvalidState is wrapped by InvalidStateError.
	ErrInvalidState = errors.New("invalid lifecycle state")
	// ErrAlreadyStarted is returned when Run or TransitionToStarting is
	// called on a worker that left StateCreated.
	ErrAlreadyStarted = errors.New("already started")

	stateNames = [...]string{
		StateCreated:  "created",
		StateStarting: "starting",
		StateRunning:  "running",
		StateStopping: "stopping",
		StateStopped:  "stopped",
		StateFailed:   "failed",
	}
)

type (
	// State is the lifecycle position of a worker. It is stored atomically
	// by Base.
	State int32

	// InvalidStateError reports a State outside the defined range.
	InvalidStateError struct {
		Value State
	}
)

func (s State) String() string {
	if s.Validate() != nil {
		return "unknown"
	}
	return stateNames[s]
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("lifecycle state %d out of range [%d, %d]", e.Value, StateCreated, StateFailed)
}

func (e *InvalidStateError) Unwrap() error {
	return ErrInvalidState
}

// Validate returns an *InvalidStateError for values outside the defined states.
func (s State) Validate() error {
	if s < StateCreated || s > StateFailed {
		return &InvalidStateError{Value: s}
	}
	return nil
}

// IsTerminal reports whether no further transition is possible.
func (s State) IsTerminal() bool {
	return s == StateStopped || s == StateFailed
}
