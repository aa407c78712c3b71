// SPDX-License-Identifier: MPL-2.0

package unit

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/texlsp/texindex/internal/probe"
)

const (
	// fileListMarker precedes the \listfiles report in the log.
	fileListMarker = "*File List*"

	// DefaultReadConcurrency bounds concurrent reads of included files.
	DefaultReadConcurrency = 8

	baseClass = "article.cls"
)

var (
	includedFileRegex = regexp.MustCompile(`[A-Za-z0-9_.\-]+\.(sty|tex|def|cls)`)
	wordRegex         = regexp.MustCompile(`[A-Za-z]+`)
)

type (
	// Loader compiles \listfiles probes and builds Units from the logs.
	Loader struct {
		compiler        Compiler
		resolver        FileResolver
		readConcurrency int
		logger          *log.Logger
	}

	// LoaderOption configures a Loader.
	LoaderOption func(*Loader)
)

// WithReadConcurrency bounds how many included files are read at once.
// Values below one select DefaultReadConcurrency.
func WithReadConcurrency(n int) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.readConcurrency = n
		}
	}
}

// WithLogger sets the loader's logger.
func WithLogger(logger *log.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader creates a Loader that compiles with compiler and resolves file
// names through resolver.
func NewLoader(compiler Compiler, resolver FileResolver, opts ...LoaderOption) *Loader {
	l := &Loader{
		compiler:        compiler,
		resolver:        resolver,
		readConcurrency: DefaultReadConcurrency,
		logger:          log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ListFilesDocument returns the probe source that makes the engine list every
// file loaded by u.
func ListFilesDocument(u *Unit) string {
	return u.Header() + `\listfiles\begin{document}\end{document}`
}

// Load compiles a \listfiles probe for the named file and mines the log.
//
// The returned error wraps ErrLoadFailed when the file is unknown to the
// distribution or the compilation produced no log. Unreadable included files
// and unresolvable names in the log are skipped.
func (l *Loader) Load(ctx context.Context, name string) (*Unit, error) {
	path, ok := l.resolver.Lookup(name)
	if !ok {
		return nil, &LoadError{Name: name, Reason: "not found in distribution"}
	}

	u := &Unit{
		Name:   name,
		Path:   path,
		Kind:   KindForFile(name),
		Format: probe.FormatForFile(path),
	}

	out, err := l.compiler.Compile(ctx, ListFilesDocument(u), u.Format)
	if err != nil {
		return nil, &LoadError{Name: name, Err: err}
	}

	includes := l.resolveIncludes(ParseFileList(out), u.Kind)

	for _, inc := range includes {
		if inc.name != name && filepath.Ext(inc.name) == ".sty" {
			u.References = append(u.References, inc.name)
		}
	}

	paths := make([]string, len(includes))
	for i, inc := range includes {
		paths[i] = inc.path
	}
	u.LikelyPrimitives, err = LikelyPrimitives(ctx, paths, l.readConcurrency)
	if err != nil {
		return nil, &LoadError{Name: name, Err: err}
	}

	l.logger.Debug("loaded unit", "file", name, "format", u.Format,
		"includes", len(includes), "references", len(u.References), "candidates", len(u.LikelyPrimitives))
	return u, nil
}

type include struct {
	name string
	path string
}

func (l *Loader) resolveIncludes(names []string, kind Kind) []include {
	var out []include
	for _, name := range names {
		if name == baseClass && kind != KindClass {
			continue
		}
		path, ok := l.resolver.Lookup(name)
		if !ok {
			l.logger.Debug("dropping unresolvable include", "file", name)
			continue
		}
		out = append(out, include{name: name, path: path})
	}
	return out
}

// ParseFileList returns the distinct file names listed after the *File List*
// marker of a log, in order of first appearance. A log without the marker
// lists nothing.
func ParseFileList(log string) []string {
	_, list, ok := strings.Cut(log, fileListMarker)
	if !ok {
		return nil
	}

	var (
		names []string
		seen  = make(map[string]bool)
	)
	for _, name := range includedFileRegex.FindAllString(list, -1) {
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// LikelyPrimitives reads the given files and returns the sorted set of
// alphabetic runs in their text. Files that cannot be read are skipped.
func LikelyPrimitives(ctx context.Context, paths []string, concurrency int) ([]string, error) {
	if concurrency < 1 {
		concurrency = DefaultReadConcurrency
	}

	var (
		mu    sync.Mutex
		words = make(map[string]struct{})
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return nil
			}
			found := wordRegex.FindAll(data, -1)

			mu.Lock()
			defer mu.Unlock()
			for _, w := range found {
				words[string(w)] = struct{}{}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(words))
	for w := range words {
		out = append(out, w)
	}
	slices.Sort(out)
	return out, nil
}
