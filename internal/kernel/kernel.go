// SPDX-License-Identifier: MPL-2.0

// Package kernel exposes the fixed tables of commands and environments that the
// LaTeX kernel defines on its own. Primitives in these tables are never
// attributed to a package or class.
package kernel

import (
	_ "embed"
	"slices"
	"strings"
	"sync"
)

var (
	//go:embed commands.txt
	commandsTable string

	//go:embed environments.txt
	environmentsTable string

	tables = sync.OnceValue(func() *primitiveTables {
		return &primitiveTables{
			commands:     parseTable(commandsTable),
			environments: parseTable(environmentsTable),
		}
	})
)

type primitiveTables struct {
	commands     map[string]struct{}
	environments map[string]struct{}
}

// IsCommand reports whether name is a kernel command.
func IsCommand(name string) bool {
	_, ok := tables().commands[name]
	return ok
}

// IsEnvironment reports whether name is a kernel environment.
func IsEnvironment(name string) bool {
	_, ok := tables().environments[name]
	return ok
}

// IsPrimitive reports whether name is either a kernel command or a kernel environment.
func IsPrimitive(name string) bool {
	return IsCommand(name) || IsEnvironment(name)
}

// parseTable reads one name per line. Blank lines and "// " comment lines are skipped.
// The comment marker carries a trailing space because "/" is itself a kernel command.
func parseTable(table string) map[string]struct{} {
	names := make(map[string]struct{})
	for line := range strings.Lines(table) {
		line = strings.TrimRight(line, "\r\n")
		if line == "" || strings.HasPrefix(line, "// ") {
			continue
		}
		names[line] = struct{}{}
	}
	return names
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
