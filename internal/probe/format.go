// SPDX-License-Identifier: MPL-2.0

package probe

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// FormatLatex compiles with the latex engine.
	FormatLatex Format = iota
	// FormatLualatex compiles with the lualatex engine.
	FormatLualatex
	// FormatXelatex compiles with the xelatex engine.
	FormatXelatex
)

// ErrInvalidFormat is returned when a Format value is not one of the defined formats.
var ErrInvalidFormat = errors.New("invalid format")

type (
	// Format selects the TeX engine used for a probe compilation.
	Format int

	// InvalidFormatError is returned when a Format value is not recognized.
	// It wraps ErrInvalidFormat for errors.Is() compatibility.
	InvalidFormatError struct {
		Value Format
	}
)

// FormatForFile picks the engine able to load the given package or class.
// Files under a lualatex/xelatex tree, or named after the engine, usually
// refuse to load anywhere else.
func FormatForFile(path string) Format {
	switch {
	case strings.Contains(path, "lua"):
		return FormatLualatex
	case strings.Contains(path, "xe"):
		return FormatXelatex
	default:
		return FormatLatex
	}
}

// Formats returns all defined formats.
func Formats() []Format {
	return []Format{FormatLatex, FormatLualatex, FormatXelatex}
}

// String returns the engine name of the format.
func (f Format) String() string {
	switch f {
	case FormatLatex:
		return "latex"
	case FormatLualatex:
		return "lualatex"
	case FormatXelatex:
		return "xelatex"
	default:
		return "unknown"
	}
}

// Validate returns nil if the Format is defined, or an error wrapping ErrInvalidFormat.
func (f Format) Validate() error {
	switch f {
	case FormatLatex, FormatLualatex, FormatXelatex:
		return nil
	default:
		return &InvalidFormatError{Value: f}
	}
}

// Error implements the error interface for InvalidFormatError.
func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid format %d (valid: 0=latex, 1=lualatex, 2=xelatex)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidFormatError) Unwrap() error {
	return ErrInvalidFormat
}
