// SPDX-License-Identifier: MPL-2.0

package component

import (
	"context"
	"slices"
	"time"

	"github.com/texlsp/texindex/internal/dag"
	"github.com/texlsp/texindex/internal/unit"
)

// analyze loads name and its unknown references, groups them into strongly
// connected components and probes each group in dependency order. Failures
// publish degenerate components; nothing is published once ctx is canceled.
func (db *Database) analyze(ctx context.Context, name string) {
	if _, ok := db.Lookup(name); ok {
		return
	}

	start := time.Now()
	progress := newProgressReporter(db.progress)
	progress.begin(name)
	defer progress.end()

	loader := unit.NewLoader(db.compiler, db.currentResolver(),
		unit.WithReadConcurrency(db.readConcurrency), unit.WithLogger(db.logger))

	root, err := loader.Load(ctx, name)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		db.logger.Warn("failed to load unit", "file", name, "error", err)
		db.publish(Degenerate(name))
		db.persist()
		return
	}

	batch := db.loadBatch(ctx, loader, root)
	if ctx.Err() != nil {
		return
	}

	g := dag.New()
	for _, u := range batch {
		g.AddNode(u.Name)
	}
	byName := make(map[string]*unit.Unit, len(batch))
	for _, u := range batch {
		byName[u.Name] = u
	}
	for _, u := range batch {
		for _, ref := range u.References {
			if g.HasNode(ref) {
				g.AddEdge(u.Name, ref)
			}
		}
	}

	sccs := g.StronglyConnectedComponents()
	for i, scc := range sccs {
		progress.step(scc[0], i, len(sccs))

		units := make([]*unit.Unit, len(scc))
		for j, n := range scc {
			units[j] = byName[n]
		}

		c, ok := db.probe(ctx, units)
		if !ok {
			return
		}
		db.publish(c)
	}

	db.enqueueTransitive(batch)
	db.persist()
	db.logger.Info("analyzed component", "file", name, "units", len(batch), "groups", len(sccs),
		"elapsed", time.Since(start).Round(time.Millisecond))
}

// loadBatch returns root followed by every reference of root that is not yet
// known. References that fail to load are published as degenerate components.
func (db *Database) loadBatch(ctx context.Context, loader *unit.Loader, root *unit.Unit) []*unit.Unit {
	batch := []*unit.Unit{root}
	for _, ref := range root.References {
		if _, ok := db.Lookup(ref); ok {
			continue
		}
		u, err := loader.Load(ctx, ref)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			db.logger.Warn("failed to load referenced unit", "file", ref, "referrer", root.Name, "error", err)
			db.publish(Degenerate(ref))
			continue
		}
		batch = append(batch, u)
	}
	return batch
}

// probe classifies the merged candidates of one strongly connected component.
// Primitives already attributed to a referenced component are excluded. It
// returns false when ctx was canceled.
func (db *Database) probe(ctx context.Context, units []*unit.Unit) (*Component, bool) {
	members := make([]string, len(units))
	for i, u := range units {
		members[i] = u.Name
	}

	var references []string
	for _, u := range units {
		for _, ref := range u.References {
			if !slices.Contains(members, ref) {
				references = append(references, ref)
			}
		}
	}

	var inherited []*Component
	for _, ref := range references {
		if c, ok := db.Lookup(ref); ok && !slices.Contains(inherited, c) {
			inherited = append(inherited, c)
		}
	}

	candidates := unit.Candidates(units, func(name string) bool {
		for _, c := range inherited {
			if c.Defines(name) {
				return true
			}
		}
		return false
	})

	prims, err := db.prober.Check(ctx, units[0], candidates)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false
		}
		db.logger.Warn("primitive probe failed", "files", members, "candidates", len(candidates), "error", err)
	}

	return &Component{
		FileNames:    members,
		References:   references,
		Commands:     prims.Commands,
		Environments: prims.Environments,
	}, true
}

// enqueueTransitive queues references of the batch that are still unknown.
func (db *Database) enqueueTransitive(batch []*unit.Unit) {
	for _, u := range batch {
		for _, ref := range u.References {
			if _, ok := db.Lookup(ref); !ok && db.knowsFile(ref) {
				db.enqueue(ref)
			}
		}
	}
}

func (db *Database) persist() {
	if err := db.Save(); err != nil {
		db.logger.Error("failed to persist component database", "path", db.path, "error", err)
	}
}
