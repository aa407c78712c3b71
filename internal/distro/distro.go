// SPDX-License-Identifier: MPL-2.0

package distro

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

const (
	// KindTexlive is a TeX Live (or MacTeX) installation indexed by ls-R.
	KindTexlive Kind = "texlive"
	// KindMiktex is a MiKTeX installation indexed by fndb files.
	KindMiktex Kind = "miktex"
	// KindUnknown means no supported filename database was found.
	KindUnknown Kind = "unknown"

	// texliveDatabasePath is the ls-R index, relative to a root directory.
	texliveDatabasePath = "ls-R"
	// miktexDatabasePath is the fndb directory, relative to a root directory.
	miktexDatabasePath = "miktex/data/le"

	// DefaultKpsewhich is the kpsewhich executable looked up on PATH.
	DefaultKpsewhich = "kpsewhich"
)

var (
	// ErrDistributionNotFound is returned when kpsewhich cannot be run.
	ErrDistributionNotFound = errors.New("TeX distribution not found")
	// ErrUnknownDistribution is returned when no root carries a supported database.
	ErrUnknownDistribution = errors.New("unknown TeX distribution")
	// ErrInvalidDistribution is returned when a filename database cannot be parsed.
	ErrInvalidDistribution = errors.New("invalid TeX distribution")

	fndbFileRegex = regexp.MustCompile(`^\w+\.fndb-\d+$`)
)

type (
	// Kind identifies the flavor of TeX distribution.
	Kind string

	// File is a single entry of a filename database.
	File struct {
		// Name is the base file name, e.g. "amsmath.sty".
		Name string
		// Path is the absolute path of the file.
		Path string
	}

	// DatabaseError describes a filename database that could not be read or parsed.
	// It wraps ErrInvalidDistribution for errors.Is() compatibility.
	DatabaseError struct {
		Path   string
		Reason string
		Err    error
	}

	// Options configures Create.
	Options struct {
		// Kpsewhich is the kpsewhich executable. Empty means DefaultKpsewhich.
		Kpsewhich string
		// Roots skips kpsewhich and uses these root directories as-is.
		Roots []string
		// Logger receives debug output. Nil discards it.
		Logger *log.Logger
	}

	// Resolver maps file names to absolute paths inside the TeX distribution.
	// It is immutable and safe for concurrent use.
	Resolver struct {
		kind      Kind
		roots     []string
		databases []string
		files     map[string]string
	}
)

// Error implements the error interface.
func (e *DatabaseError) Error() string {
	var sb strings.Builder
	sb.WriteString("invalid filename database")
	if e.Path != "" {
		sb.WriteString(" ")
		sb.WriteString(e.Path)
	}
	if e.Reason != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Reason)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Unwrap returns ErrInvalidDistribution and the underlying cause, if any.
func (e *DatabaseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidDistribution}
	}
	return []error{ErrInvalidDistribution, e.Err}
}

// String returns the kind name.
func (k Kind) String() string {
	return string(k)
}

// NewResolver creates a Resolver from an existing name -> path map.
// The map is copied.
func NewResolver(kind Kind, roots []string, files map[string]string) *Resolver {
	return &Resolver{
		kind:  kind,
		roots: slices.Clone(roots),
		files: maps.Clone(files),
	}
}

// Lookup returns the absolute path of the file with the given name.
func (r *Resolver) Lookup(name string) (string, bool) {
	if r == nil {
		return "", false
	}
	path, ok := r.files[name]
	return path, ok
}

// Len returns the number of indexed files.
func (r *Resolver) Len() int {
	if r == nil {
		return 0
	}
	return len(r.files)
}

// Kind returns the detected distribution kind.
func (r *Resolver) Kind() Kind {
	if r == nil {
		return KindUnknown
	}
	return r.kind
}

// Roots returns the root directories the resolver was built from.
func (r *Resolver) Roots() []string {
	if r == nil {
		return nil
	}
	return slices.Clone(r.roots)
}

// Databases returns the filename database files that were parsed.
func (r *Resolver) Databases() []string {
	if r == nil {
		return nil
	}
	return slices.Clone(r.databases)
}

// WatchTargets returns the directories holding the filename databases and
// the base-name patterns (filepath.Match syntax) of the database files.
// Directories that do not exist are skipped.
func (r *Resolver) WatchTargets() (dirs []string, patterns []string) {
	if r == nil {
		return nil, nil
	}
	switch r.kind {
	case KindTexlive:
		patterns = []string{texliveDatabasePath}
		for _, root := range r.roots {
			if exists(root) {
				dirs = append(dirs, root)
			}
		}
	case KindMiktex:
		patterns = []string{"*.fndb-*"}
		for _, root := range r.roots {
			dir := filepath.Join(root, filepath.FromSlash(miktexDatabasePath))
			if exists(dir) {
				dirs = append(dirs, dir)
			}
		}
	}
	return dirs, patterns
}

// Create discovers the TeX distribution and reads its filename databases.
//
// Errors wrap ErrDistributionNotFound (kpsewhich missing), ErrUnknownDistribution
// (no root has a database) or ErrInvalidDistribution (a database is corrupt).
func Create(ctx context.Context, opts Options) (*Resolver, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	roots := opts.Roots
	if len(roots) == 0 {
		var err error
		roots, err = RootDirectories(ctx, opts.Kpsewhich)
		if err != nil {
			return nil, err
		}
	}

	kind := DetectKind(roots)
	if kind == KindUnknown {
		return nil, fmt.Errorf("%w: no %s or %s found under %s",
			ErrUnknownDistribution, texliveDatabasePath, miktexDatabasePath, strings.Join(roots, ", "))
	}

	r := &Resolver{
		kind:  kind,
		roots: slices.Clone(roots),
		files: make(map[string]string),
	}

	for _, root := range roots {
		var (
			files     []File
			databases []string
			err       error
		)
		switch kind {
		case KindTexlive:
			files, databases, err = readTexliveRoot(root)
		case KindMiktex:
			files, databases, err = readMiktexRoot(ctx, root)
		}
		if err != nil {
			return nil, err
		}

		for _, f := range files {
			r.files[f.Name] = f.Path
		}
		r.databases = append(r.databases, databases...)
		logger.Debug("read filename database", "root", root, "kind", kind, "files", len(files))
	}

	return r, nil
}

// DetectKind returns the kind of the first root that carries a filename database.
func DetectKind(roots []string) Kind {
	for _, root := range roots {
		if exists(filepath.Join(root, texliveDatabasePath)) {
			return KindTexlive
		}
		if exists(filepath.Join(root, filepath.FromSlash(miktexDatabasePath))) {
			return KindMiktex
		}
	}
	return KindUnknown
}

func readTexliveRoot(root string) ([]File, []string, error) {
	path := filepath.Join(root, texliveDatabasePath)
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, &DatabaseError{Path: path, Err: err}
	}
	defer f.Close()

	files, err := ParseTexliveDatabase(root, f)
	if err != nil {
		return nil, nil, &DatabaseError{Path: path, Err: err}
	}
	return files, []string{path}, nil
}

// readMiktexRoot parses every fndb file of root concurrently and merges them in
// directory order.
func readMiktexRoot(ctx context.Context, root string) ([]File, []string, error) {
	dir := filepath.Join(root, filepath.FromSlash(miktexDatabasePath))
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, &DatabaseError{Path: dir, Err: err}
	}

	var paths []string
	for _, entry := range entries {
		if !entry.IsDir() && fndbFileRegex.MatchString(entry.Name()) {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}

	results := make([][]File, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return &DatabaseError{Path: path, Err: err}
			}
			files, err := ParseMiktexDatabase(root, data)
			if err != nil {
				var dbErr *DatabaseError
				if errors.As(err, &dbErr) && dbErr.Path == "" {
					dbErr.Path = path
					return dbErr
				}
				return &DatabaseError{Path: path, Err: err}
			}
			results[i] = files
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var merged []File
	for _, files := range results {
		merged = append(merged, files...)
	}
	return merged, paths, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
