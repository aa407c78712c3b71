// SPDX-License-Identifier: MPL-2.0

// Package component maintains the database of analyzed package and class
// files and the background worker that fills it.
//
// Reads are synchronous. A miss for a file known to the distribution queues
// it for analysis and returns immediately; a single worker drains the queue
// in submission order, so at most one probe pipeline runs at a time. The
// database is persisted as a JSON list after every completed request.
package component

import (
	"cmp"
	"errors"
	"io"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/texlsp/texindex/internal/core/lifecycle"
	"github.com/texlsp/texindex/internal/unit"
)

// ErrNoCompiler is returned by Open when Options.Compiler is nil.
var ErrNoCompiler = errors.New("component database requires a compiler")

type (
	// Options configures a Database.
	Options struct {
		// Path of the persisted JSON database. Empty keeps the database in memory.
		Path string
		// Resolver maps file names to paths inside the distribution.
		Resolver unit.FileResolver
		// Compiler runs probe documents.
		Compiler unit.Compiler
		// Progress receives per-request progress events. May be nil.
		Progress ProgressSink
		// ReadConcurrency bounds concurrent reads of included files.
		ReadConcurrency int
		// Logger receives service logs. Nil discards them.
		Logger *log.Logger
	}

	// Database maps file names to components and schedules analysis of
	// unknown files. It is safe for concurrent use.
	Database struct {
		*lifecycle.Base

		path            string
		compiler        unit.Compiler
		prober          *unit.Prober
		progress        ProgressSink
		readConcurrency int
		logger          *log.Logger
		resolver        atomic.Pointer[resolverRef]

		mu         sync.RWMutex
		components map[string]*Component

		queue workQueue
	}

	resolverRef struct {
		unit.FileResolver
	}
)

// Open creates a Database and loads the persisted components from
// opts.Path. A corrupt or unreadable database file is logged and the database
// starts empty.
func Open(opts Options) (*Database, error) {
	if opts.Compiler == nil {
		return nil, ErrNoCompiler
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	db := &Database{
		Base:            lifecycle.NewBase(lifecycle.WithName("component database")),
		path:            opts.Path,
		compiler:        opts.Compiler,
		prober:          unit.NewProber(opts.Compiler, logger),
		progress:        opts.Progress,
		readConcurrency: opts.ReadConcurrency,
		logger:          logger,
		components:      make(map[string]*Component),
	}
	db.queue.init()
	db.SetResolver(opts.Resolver)

	if opts.Path != "" {
		comps, err := Load(opts.Path)
		if err != nil {
			logger.Warn("starting with an empty component database", "path", opts.Path, "error", err)
		}
		for _, c := range comps {
			db.publishLocked(c)
		}
		logger.Debug("loaded component database", "path", opts.Path, "components", len(comps))
	}

	return db, nil
}

// SetResolver replaces the distribution resolver used for new analyses.
// Known components are kept.
func (db *Database) SetResolver(r unit.FileResolver) {
	db.resolver.Store(&resolverRef{FileResolver: r})
}

// Path returns the location of the persisted database.
func (db *Database) Path() string {
	return db.path
}

// Lookup returns the component of name without scheduling any work.
func (db *Database) Lookup(name string) (*Component, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	c, ok := db.components[name]
	return c, ok
}

// GetComponent returns the component of name. On a miss the file is queued
// for analysis if the distribution knows it, and nil is returned. It never
// waits for a compilation.
func (db *Database) GetComponent(name string) *Component {
	if c, ok := db.Lookup(name); ok {
		return c
	}
	if db.knowsFile(name) {
		db.enqueue(name)
	}
	return nil
}

// RelatedComponents returns the components of every package and class
// declared by documents, plus the components they reference directly.
// Unknown files are queued and left out of the result.
func (db *Database) RelatedComponents(documents []Document) []*Component {
	var (
		out  []*Component
		seen = make(map[*Component]bool)
	)
	add := func(c *Component) {
		if c != nil && !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}

	for _, doc := range documents {
		for _, name := range doc.DeclaredPackagesAndClasses() {
			c := db.GetComponent(name)
			if c == nil {
				continue
			}
			add(c)
			for _, ref := range c.References {
				add(db.GetComponent(ref))
			}
		}
	}
	return out
}

// Components returns every distinct component, ordered by first file name.
func (db *Database) Components() []*Component {
	db.mu.RLock()
	defer db.mu.RUnlock()

	seen := make(map[*Component]bool, len(db.components))
	out := make([]*Component, 0, len(db.components))
	for _, c := range db.components {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b *Component) int {
		return cmp.Compare(a.FileNames[0], b.FileNames[0])
	})
	return out
}

// Len returns the number of known file names.
func (db *Database) Len() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.components)
}

// Save persists the database to its path. It is a no-op for in-memory
// databases.
func (db *Database) Save() error {
	if db.path == "" {
		return nil
	}
	return Save(db.path, db.Components())
}

func (db *Database) currentResolver() unit.FileResolver {
	if ref := db.resolver.Load(); ref != nil {
		return ref.FileResolver
	}
	return nil
}

// InDistribution reports whether the current resolver knows name.
func (db *Database) InDistribution(name string) bool {
	return db.knowsFile(name)
}

func (db *Database) knowsFile(name string) bool {
	r := db.currentResolver()
	if r == nil {
		return false
	}
	_, ok := r.Lookup(name)
	return ok
}

// publish makes c visible under every one of its file names.
func (db *Database) publish(c *Component) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.publishLocked(c)
}

func (db *Database) publishLocked(c *Component) {
	c = c.normalize()
	for _, name := range c.FileNames {
		db.components[name] = c
	}
}
