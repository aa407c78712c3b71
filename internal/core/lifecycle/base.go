// SPDX-License-Identifier: MPL-2.0

package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Base carries the lifecycle state of a background service.
// Services embed it and drive it from their Start and Stop methods.
//
// A Base is single-use: once stopped or failed, create a new service.
type Base struct {
	name string

	// Lock-free reads; transitions that touch lastErr hold stateMu.
	state   atomic.Int32
	stateMu sync.Mutex

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	errCh     chan error
	closeOnce sync.Once
	lastErr   error
}

// NewBase creates a new Base with the given options.
func NewBase(opts ...Option) *Base {
	b := &Base{
		name:  "service",
		errCh: make(chan error, 1),
	}
	b.state.Store(int32(StateCreated))

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Name returns the service name.
func (b *Base) Name() string {
	return b.name
}

// State returns the current state (atomic, lock-free read).
func (b *Base) State() State {
	return State(b.state.Load())
}

// IsRunning returns true in StateRunning.
func (b *Base) IsRunning() bool {
	return b.State() == StateRunning
}

// Err returns the channel of asynchronous service failures. Shutdown closes it.
func (b *Base) Err() <-chan error {
	return b.errCh
}

// LastError returns the error that caused the Failed state, or nil.
func (b *Base) LastError() error {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()
	return b.lastErr
}

// TransitionToStarting moves Created to Starting and creates the service
// context. It fails on an already cancelled ctx or in any other state.
//
// The service context is detached from ctx: ctx only gates the start.
func (b *Base) TransitionToStarting(ctx context.Context) error {
	// Checked first so a cancelled start never reaches StateRunning.
	select {
	case <-ctx.Done():
		b.TransitionToFailed(fmt.Errorf("%s: context cancelled before start: %w", b.name, ctx.Err()))
		return b.LastError()
	default:
	}

	if !b.state.CompareAndSwap(int32(StateCreated), int32(StateStarting)) {
		return fmt.Errorf("%s in state %s: %w", b.name, b.State(), ErrAlreadyStarted)
	}

	b.ctx, b.cancel = context.WithCancel(context.Background())

	return nil
}

// TransitionToRunning moves Starting to Running.
func (b *Base) TransitionToRunning() {
	b.state.CompareAndSwap(int32(StateStarting), int32(StateRunning))
}

// Run starts the service: it moves to Starting, runs loop on a tracked
// goroutine with the service context and moves to Running.
func (b *Base) Run(ctx context.Context, loop func(ctx context.Context)) error {
	if err := b.TransitionToStarting(ctx); err != nil {
		return err
	}
	b.Go(loop)
	b.TransitionToRunning()
	return nil
}

// Go runs fn on a tracked goroutine with the service context.
// Call it only after TransitionToStarting.
func (b *Base) Go(fn func(ctx context.Context)) {
	ctx := b.ctx
	b.wg.Go(func() { fn(ctx) })
}

// Shutdown cancels the service context, waits for every tracked goroutine,
// records StateStopped and closes the error channel. It reports whether
// this call stopped a started service; later calls return false.
func (b *Base) Shutdown() bool {
	stopping := b.TransitionToStopping()
	b.wg.Wait()
	if stopping {
		b.TransitionToStopped()
	}
	b.closeOnce.Do(func() { close(b.errCh) })
	return stopping
}

// TransitionToFailed records err, cancels the service context and
// publishes err on the error channel (non-blocking).
func (b *Base) TransitionToFailed(err error) {
	b.stateMu.Lock()
	b.lastErr = err
	b.stateMu.Unlock()

	b.state.Store(int32(StateFailed))

	if b.cancel != nil {
		b.cancel()
	}

	b.SendError(err)
}

// TransitionToStopping moves a started service to Stopping and cancels its
// context. It returns false when there is nothing to stop.
func (b *Base) TransitionToStopping() bool {
	for {
		current := b.State()
		if current.IsTerminal() || current == StateStopping {
			return false
		}
		switch current {
		case StateCreated:
			if b.state.CompareAndSwap(int32(StateCreated), int32(StateStopped)) {
				return false
			}
		case StateStarting, StateRunning:
			if !b.state.CompareAndSwap(int32(current), int32(StateStopping)) {
				continue
			}
			if b.cancel != nil {
				b.cancel()
			}
			return true
		default:
			return false
		}
	}
}

// TransitionToStopped marks the service as fully stopped.
func (b *Base) TransitionToStopped() {
	b.state.Store(int32(StateStopped))
}

// Context returns the service context, or nil before Start.
func (b *Base) Context() context.Context {
	return b.ctx
}

// SendError publishes err without blocking. It is dropped when the channel is full.
func (b *Base) SendError(err error) {
	select {
	case b.errCh <- err:
	default:
	}
}
