// SPDX-License-Identifier: MPL-2.0

package component

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNotRunning is returned when waiting on a worker that is not running.
var ErrNotRunning = errors.New("component worker not running")

// workQueue is an unbounded FIFO of file names. A name is queued at most once
// until the worker has finished it.
type workQueue struct {
	mu      sync.Mutex
	items   []string
	pending map[string]bool
	wake    chan struct{}
	idle    chan struct{}
	busy    bool
}

func (q *workQueue) init() {
	q.pending = make(map[string]bool)
	q.wake = make(chan struct{}, 1)
	q.idle = make(chan struct{})
	close(q.idle)
}

// push queues name unless it is already pending. It reports whether name was added.
func (q *workQueue) push(name string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.pending[name] {
		return false
	}
	if len(q.items) == 0 && !q.busy {
		q.idle = make(chan struct{})
	}
	q.pending[name] = true
	q.items = append(q.items, name)

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

// pop takes the oldest name and marks the queue busy.
func (q *workQueue) pop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return "", false
	}
	name := q.items[0]
	q.items[0] = ""
	q.items = q.items[1:]
	q.busy = true
	return name, true
}

// done releases name and signals idleness once nothing is left.
func (q *workQueue) done(name string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	delete(q.pending, name)
	q.busy = false
	if len(q.items) == 0 {
		close(q.idle)
	}
}

func (q *workQueue) idleChannel() (<-chan struct{}, int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.idle, len(q.items)
}

// Len returns the number of queued names not yet picked up by the worker.
func (q *workQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (db *Database) enqueue(name string) {
	if db.queue.push(name) {
		db.logger.Debug("queued component analysis", "file", name)
	}
}

// Queued returns the number of files waiting for analysis.
func (db *Database) Queued() int {
	return db.queue.Len()
}

// Start launches the background worker. Files queued before Start are
// processed first, in submission order.
func (db *Database) Start(ctx context.Context) error {
	if err := db.Run(ctx, db.run); err != nil {
		return fmt.Errorf("start component worker: %w", err)
	}
	db.logger.Info("component worker started", "queued", db.Queued())
	return nil
}

// Stop cancels the running analysis, waits for the worker to exit and
// persists the database. Safe to call multiple times.
func (db *Database) Stop() error {
	if !db.Shutdown() {
		return nil
	}

	db.logger.Info("component worker stopped", "queued", db.Queued())
	return db.Save()
}

// WaitIdle blocks until the queue is drained and no analysis is running.
// It fails with ErrNotRunning when work is queued but the worker is not
// running, or when the worker stops while waiting.
func (db *Database) WaitIdle(ctx context.Context) error {
	idle, queued := db.queue.idleChannel()
	select {
	case <-idle:
		return nil
	default:
	}
	if !db.IsRunning() {
		return fmt.Errorf("%w (state %s, %d queued)", ErrNotRunning, db.State(), queued)
	}

	select {
	case <-idle:
		return nil
	case <-db.Context().Done():
		return fmt.Errorf("%w (state %s)", ErrNotRunning, db.State())
	case <-ctx.Done():
		return fmt.Errorf("waiting for component worker: %w", ctx.Err())
	}
}

func (db *Database) run(ctx context.Context) {
	for {
		name, ok := db.queue.pop()
		if !ok {
			select {
			case <-db.queue.wake:
				continue
			case <-ctx.Done():
				return
			}
		}

		db.analyze(ctx, name)
		db.queue.done(name)

		if ctx.Err() != nil {
			return
		}
	}
}
