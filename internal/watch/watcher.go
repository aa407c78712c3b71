// SPDX-License-Identifier: MPL-2.0

// Package watch reloads state when the TeX filename databases change.
//
// It monitors the directories holding ls-R or fndb files and invokes a
// callback after a debounce period. Events within the debounce window are
// coalesced so the callback fires once with the full set of changed files.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/texlsp/texindex/internal/core/lifecycle"
)

// defaultDebounce is the quiet period before OnChange fires. mktexlsr and
// initexmf rewrite databases in several steps.
const defaultDebounce = 2 * time.Second

var (
	// ErrNoDirectories is returned by New when Config.Dirs is empty.
	ErrNoDirectories = errors.New("watch: no directories to watch")
	// ErrInvalidPattern is returned by New for a malformed name pattern.
	ErrInvalidPattern = errors.New("watch: invalid name pattern")
)

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Dirs are watched non-recursively.
		Dirs []string

		// Names are filepath.Match patterns applied to the base name of
		// changed files. An empty slice accepts every file.
		Names []string

		// Debounce is the quiet period after the last event before OnChange
		// fires. Zero or negative values fall back to defaultDebounce.
		Debounce time.Duration

		// OnChange receives the sorted, deduplicated absolute paths of the
		// changed files. A nil callback is a no-op.
		OnChange func(ctx context.Context, changed []string) error

		// Logger receives warnings. Nil discards them.
		Logger *log.Logger
	}

	// Watcher monitors filename databases and fires a debounced callback
	// when they change. It is single-use: Start once, Stop once.
	Watcher struct {
		*lifecycle.Base

		cfg       Config
		fsw       *fsnotify.Watcher
		logger    *log.Logger
		debounce  time.Duration
		closeOnce sync.Once
	}
)

// New creates a Watcher and registers every directory in cfg.Dirs.
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Dirs) == 0 {
		return nil, ErrNoDirectories
	}
	for _, pat := range cfg.Names {
		if _, err := filepath.Match(pat, ""); err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidPattern, pat, err)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	for _, dir := range cfg.Dirs {
		if addErr := fsw.Add(dir); addErr != nil {
			fsw.Close() //nolint:errcheck // best-effort cleanup
			return nil, fmt.Errorf("watch: add directory %q: %w", dir, addErr)
		}
	}

	return &Watcher{
		Base:     lifecycle.NewBase(lifecycle.WithName("filename database watcher")),
		cfg:      cfg,
		fsw:      fsw,
		logger:   logger,
		debounce: debounce,
	}, nil
}

// Start launches the event loop. ctx only gates the start; call Stop to end it.
func (w *Watcher) Start(ctx context.Context) error {
	return w.Run(ctx, w.loop)
}

// Stop ends the event loop and releases the fsnotify watcher. Pending
// changes that did not reach OnChange yet are dropped.
func (w *Watcher) Stop() {
	w.Shutdown()
	w.closeOnce.Do(func() {
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("closing fsnotify watcher", "err", err)
		}
	})
}

func (w *Watcher) loop(ctx context.Context) {
	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	// fire may run after ctx is cancelled through time.AfterFunc.
	// A slow callback never overlaps with the next one; the batch is retried.
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			w.logger.Debug("reload still in progress, deferring")
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		if w.cfg.OnChange == nil {
			return
		}
		if err := w.cfg.OnChange(ctx, changed); err != nil {
			w.logger.Warn("reload after filename database change failed", "err", err)
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case evt, ok := <-w.fsw.Events:
			if !ok {
				w.TransitionToFailed(errors.New("watch: fsnotify event channel closed unexpectedly"))
				return
			}
			if !w.matches(evt.Name) || evt.Op == fsnotify.Chmod {
				continue
			}

			mu.Lock()
			pending[evt.Name] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				w.TransitionToFailed(errors.New("watch: fsnotify error channel closed unexpectedly"))
				return
			}
			if unrecoverableWatchError(err) {
				w.TransitionToFailed(fmt.Errorf("watch: fatal fsnotify error: %w", err))
				return
			}
			w.logger.Warn("fsnotify error", "err", err)
		}
	}
}

// matches reports whether path is a file of interest.
func (w *Watcher) matches(path string) bool {
	if len(w.cfg.Names) == 0 {
		return true
	}
	base := filepath.Base(path)
	for _, pat := range w.cfg.Names {
		if matched, err := filepath.Match(pat, base); err == nil && matched {
			return true
		}
	}
	return false
}

// unrecoverableWatchError reports an error listed in the platform's
// unrecoverable set.
func unrecoverableWatchError(err error) bool {
	var errno syscall.Errno
	return errors.As(err, &errno) && slices.Contains(unrecoverable, errno)
}
