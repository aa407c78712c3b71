// SPDX-License-Identifier: MPL-2.0

package component

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// ErrDatabaseCorrupt is returned when the persisted database cannot be decoded.
var ErrDatabaseCorrupt = errors.New("component database corrupt")

// Load reads the persisted component list from path. A missing file yields an
// empty list.
func Load(path string) ([]*Component, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read component database: %w", err)
	}

	var comps []*Component
	if err := json.Unmarshal(data, &comps); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDatabaseCorrupt, path, err)
	}

	out := comps[:0]
	for _, c := range comps {
		if c == nil || len(c.FileNames) == 0 {
			continue
		}
		out = append(out, c.normalize())
	}
	return out, nil
}

// Save writes comps to path as an indented JSON array, replacing the file
// atomically. Components listed more than once are written once.
func Save(path string, comps []*Component) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}

	list := make([]*Component, 0, len(comps))
	seen := make(map[*Component]bool, len(comps))
	for _, c := range comps {
		if c == nil || len(c.FileNames) == 0 || seen[c] {
			continue
		}
		seen[c] = true
		list = append(list, c.normalize())
	}
	slices.SortFunc(list, func(a, b *Component) int {
		return cmp.Compare(a.FileNames[0], b.FileNames[0])
	})

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("encode component database: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("create temporary database file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write component database: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync component database: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close component database: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("replace component database: %w", err)
	}
	return nil
}
