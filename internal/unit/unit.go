// SPDX-License-Identifier: MPL-2.0

// Package unit loads single package and class files of a TeX distribution and
// probes which commands and environments they define.
//
// A Unit is the transient result of compiling a \listfiles probe for one file:
// the files it pulls in, the other packages it references and a coarse set of
// identifiers that might be primitives. A Prober then narrows those candidates
// down with a single \ifcsundef probe per batch.
package unit

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/texlsp/texindex/internal/probe"
)

const (
	// KindStyle is a package (.sty) file.
	KindStyle Kind = iota
	// KindClass is a document class (.cls) file.
	KindClass
)

// ErrLoadFailed is returned when a unit cannot be loaded.
var ErrLoadFailed = errors.New("unit load failed")

type (
	// Kind distinguishes packages from classes.
	Kind int

	// Unit is one loaded package or class file.
	Unit struct {
		// Name is the file name, e.g. "amsmath.sty".
		Name string
		// Path is the absolute path resolved through the distribution.
		Path string
		// Kind is KindClass for .cls files and KindStyle otherwise.
		Kind Kind
		// Format is the engine able to load the file.
		Format probe.Format
		// References are the names of the .sty files the unit loads, excluding itself.
		References []string
		// LikelyPrimitives is a sorted superset of the identifiers the unit may define.
		LikelyPrimitives []string
	}

	// Compiler compiles probe documents and returns the engine log.
	Compiler interface {
		Compile(ctx context.Context, code string, format probe.Format) (string, error)
	}

	// FileResolver maps file names to absolute paths.
	FileResolver interface {
		Lookup(name string) (string, bool)
	}

	// LoadError describes a unit that could not be loaded.
	// It wraps ErrLoadFailed and the underlying cause.
	LoadError struct {
		Name   string
		Reason string
		Err    error
	}
)

// KindForFile returns KindClass for .cls files and KindStyle otherwise.
func KindForFile(name string) Kind {
	if strings.EqualFold(filepath.Ext(name), ".cls") {
		return KindClass
	}
	return KindStyle
}

// String returns "style" or "class".
func (k Kind) String() string {
	if k == KindClass {
		return "class"
	}
	return "style"
}

// Stem returns the file name without its extension, i.e. the name used in
// \usepackage or \documentclass.
func (u *Unit) Stem() string {
	return stem(u.Name)
}

// Header returns the document preamble that loads the unit.
func (u *Unit) Header() string {
	if u.Kind == KindClass {
		return `\documentclass{` + u.Stem() + `}`
	}
	return `\documentclass{article}\usepackage{` + u.Stem() + `}`
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	var sb strings.Builder
	sb.WriteString("load ")
	sb.WriteString(e.Name)
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

// Unwrap returns ErrLoadFailed and the underlying cause, if any.
func (e *LoadError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrLoadFailed}
	}
	return []error{ErrLoadFailed, e.Err}
}

func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
