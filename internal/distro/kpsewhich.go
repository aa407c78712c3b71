// SPDX-License-Identifier: MPL-2.0

package distro

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"
)

// RootDirectories asks kpsewhich for the TEXMF search path and returns the
// existing root directories in search order, without duplicates.
func RootDirectories(ctx context.Context, kpsewhich string) ([]string, error) {
	if kpsewhich == "" {
		kpsewhich = DefaultKpsewhich
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, kpsewhich, "-var-value", "TEXMF")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("%w: %s: %w: %s", ErrDistributionNotFound, kpsewhich, err, strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrDistributionNotFound, kpsewhich, err)
	}

	value, _, _ := strings.Cut(stdout.String(), "\n")
	roots := ExpandTexmf(strings.TrimSpace(value))
	if len(roots) == 0 {
		return nil, fmt.Errorf("%w: TEXMF expands to no existing directory", ErrDistributionNotFound)
	}
	return roots, nil
}

// ExpandTexmf expands a kpathsea TEXMF value such as
// "{/home/u/texmf,!!/usr/share/texmf-dist}" into existing directories.
//
// Braces are expanded like in a POSIX shell, "!!" search markers are stripped and
// each resulting word may itself be a path list.
func ExpandTexmf(value string) []string {
	var (
		roots []string
		seen  = make(map[string]bool)
	)
	for _, candidate := range expandBraces(value) {
		candidate = strings.ReplaceAll(candidate, "!", "")
		for _, dir := range filepath.SplitList(candidate) {
			dir = strings.TrimSpace(dir)
			if dir == "" {
				continue
			}
			dir = filepath.Clean(dir)
			if seen[dir] {
				continue
			}
			if info, err := os.Stat(dir); err != nil || !info.IsDir() {
				continue
			}
			seen[dir] = true
			roots = append(roots, dir)
		}
	}
	return roots
}

// expandBraces parses value as a here-document word, so that only '$' and '\'
// are special, and expands its brace groups.
func expandBraces(value string) []string {
	word, err := syntax.NewParser().Document(strings.NewReader(value))
	if err != nil || word == nil {
		return []string{value}
	}
	if !syntax.SplitBraces(word) {
		return []string{value}
	}

	cfg := &expand.Config{}
	var out []string
	for _, w := range expand.Braces(word) {
		lit, err := expand.Literal(cfg, w)
		if err != nil {
			continue
		}
		out = append(out, lit)
	}
	return out
}
