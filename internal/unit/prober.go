// SPDX-License-Identifier: MPL-2.0

package unit

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/texlsp/texindex/internal/kernel"
)

const (
	commandPrefix     = "cmd:"
	environmentPrefix = "env:"
)

type (
	// Primitives are the commands and environments found by a probe.
	Primitives struct {
		Commands     []string
		Environments []string
	}

	// Prober classifies candidate identifiers by compiling an \ifcsundef probe.
	Prober struct {
		compiler Compiler
		logger   *log.Logger
	}
)

// NewProber creates a Prober. A nil logger discards output.
func NewProber(compiler Compiler, logger *log.Logger) *Prober {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Prober{compiler: compiler, logger: logger}
}

// Empty reports whether no primitive was found.
func (p Primitives) Empty() bool {
	return len(p.Commands) == 0 && len(p.Environments) == 0
}

// Candidates merges the likely primitives of units and removes kernel
// primitives and every name for which inherited returns true. The result is
// sorted.
func Candidates(units []*Unit, inherited func(name string) bool) []string {
	set := make(map[string]struct{})
	for _, u := range units {
		for _, name := range u.LikelyPrimitives {
			set[name] = struct{}{}
		}
	}

	out := make([]string, 0, len(set))
	for name := range set {
		if kernel.IsPrimitive(name) {
			continue
		}
		if inherited != nil && inherited(name) {
			continue
		}
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// ProbeDocument returns the source that logs "cmd:<name>" or "env:<name>" for
// every candidate defined after loading header.
func ProbeDocument(header *Unit, candidates []string) string {
	var sb strings.Builder
	sb.WriteString(header.Header())
	sb.WriteString(`\usepackage{etoolbox}`)
	for _, c := range candidates {
		fmt.Fprintf(&sb, `\ifcsundef{%[1]s}{}{\ifcsundef{end%[1]s}{\wlog{cmd:%[1]s}}{\wlog{env:%[1]s}}}`, c)
		sb.WriteByte('\n')
	}
	sb.WriteString(`\begin{document}\end{document}`)
	return sb.String()
}

// Check compiles one probe for candidates in the context of header and
// classifies each of them. An empty candidate list returns without compiling.
// Candidates missing from the log are dropped.
func (p *Prober) Check(ctx context.Context, header *Unit, candidates []string) (Primitives, error) {
	if len(candidates) == 0 {
		return Primitives{}, nil
	}

	out, err := p.compiler.Compile(ctx, ProbeDocument(header, candidates), header.Format)
	if err != nil {
		return Primitives{}, fmt.Errorf("probe primitives of %s: %w", header.Name, err)
	}

	prims := ParsePrimitives(out, candidates)
	p.logger.Debug("probed primitives", "file", header.Name, "candidates", len(candidates),
		"commands", len(prims.Commands), "environments", len(prims.Environments))
	return prims, nil
}

// ParsePrimitives reads "cmd:" and "env:" lines from a probe log. Only names
// contained in candidates are accepted; the results are sorted and distinct.
func ParsePrimitives(log string, candidates []string) Primitives {
	allowed := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		allowed[c] = true
	}

	commands := make(map[string]struct{})
	environments := make(map[string]struct{})

	sc := bufio.NewScanner(strings.NewReader(log))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if name, ok := strings.CutPrefix(line, commandPrefix); ok && allowed[name] {
			commands[name] = struct{}{}
		} else if name, ok := strings.CutPrefix(line, environmentPrefix); ok && allowed[name] {
			environments[name] = struct{}{}
		}
	}

	return Primitives{
		Commands:     sortedKeys(commands),
		Environments: sortedKeys(environments),
	}
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
