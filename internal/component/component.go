// SPDX-License-Identifier: MPL-2.0

package component

import (
	"slices"
)

type (
	// Component is the unit of attribution: one or more mutually dependent
	// package or class files and the primitives they define.
	//
	// Components are immutable once published. Callers must not modify the
	// slices of a Component returned by a Database.
	Component struct {
		// FileNames lists every file of the component, e.g. "amsmath.sty".
		FileNames []string `json:"fileNames"`
		// References are the packages loaded by the component's files.
		References []string `json:"references"`
		// Commands defined by the component, without backslash.
		Commands []string `json:"commands"`
		// Environments defined by the component.
		Environments []string `json:"environments"`
	}

	// Document is an open document that declares packages and classes. Names
	// include the extension, e.g. "amsmath.sty" or "article.cls".
	Document interface {
		DeclaredPackagesAndClasses() []string
	}

	// DocumentFunc adapts a function to the Document interface.
	DocumentFunc func() []string
)

// DeclaredPackagesAndClasses calls f.
func (f DocumentFunc) DeclaredPackagesAndClasses() []string {
	return f()
}

// Degenerate returns the empty component recorded for files that could not
// be analyzed, so they are not retried.
func Degenerate(names ...string) *Component {
	return (&Component{FileNames: names}).normalize()
}

// Defines reports whether the component defines name as a command or an
// environment. Published components keep both lists sorted.
func (c *Component) Defines(name string) bool {
	if _, ok := slices.BinarySearch(c.Commands, name); ok {
		return true
	}
	_, ok := slices.BinarySearch(c.Environments, name)
	return ok
}

// IsEmpty reports whether the component defines nothing.
func (c *Component) IsEmpty() bool {
	return len(c.Commands) == 0 && len(c.Environments) == 0
}

// normalize returns a copy with sorted, distinct, non-nil fields.
func (c *Component) normalize() *Component {
	return &Component{
		FileNames:    sortedSet(c.FileNames),
		References:   sortedSet(c.References),
		Commands:     sortedSet(c.Commands),
		Environments: sortedSet(c.Environments),
	}
}

func sortedSet(values []string) []string {
	out := slices.Clone(values)
	if out == nil {
		out = []string{}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
