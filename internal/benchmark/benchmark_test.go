// SPDX-License-Identifier: MPL-2.0

package benchmark

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/texlsp/texindex/internal/config"
	"github.com/texlsp/texindex/internal/dag"
	"github.com/texlsp/texindex/internal/distro"
	"github.com/texlsp/texindex/internal/unit"
)

const (
	// lsRDirectories and lsRFilesPerDir size the synthetic ls-R index,
	// roughly a scheme-medium TeX Live installation.
	lsRDirectories = 2000
	lsRFilesPerDir = 25

	sampleConfig = `
kpsewhich: "kpsewhich"
log_level: "warn"

engines: {
	latex:    "latex"
	lualatex: "lualatex"
	xelatex:  "xelatex"
}

compile: {
	timeout:      "20s"
	shell_escape: false
}

index: {
	read_concurrency: 16
}

watch: {
	enabled:  true
	debounce: "5s"
}
`
)

func syntheticLsR() string {
	var sb strings.Builder
	sb.WriteString("% ls-R -- filename database for kpathsea; do not change this line.\n./:\nls-R\n\n")
	for d := range lsRDirectories {
		fmt.Fprintf(&sb, "./tex/latex/pkg%d:\n", d)
		for f := range lsRFilesPerDir {
			fmt.Fprintf(&sb, "pkg%d-part%d.sty\n", d, f)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// syntheticLog is a probe log naming n candidates, half commands and half
// environments, surrounded by engine noise.
func syntheticLog(n int) (string, []string) {
	var (
		sb         strings.Builder
		candidates = make([]string, 0, n)
	)
	sb.WriteString("This is pdfTeX, Version 3.141592653-2.6-1.40.26\n")
	for i := range n {
		name := fmt.Sprintf("prim%d", i)
		candidates = append(candidates, name)
		if i%2 == 0 {
			fmt.Fprintf(&sb, "cmd:%s\n", name)
		} else {
			fmt.Fprintf(&sb, "env:%s\n", name)
		}
		sb.WriteString("(/usr/share/texlive/texmf-dist/tex/latex/base/size10.clo)\n")
	}
	return sb.String(), candidates
}

func BenchmarkParseTexliveDatabase(b *testing.B) {
	data := syntheticLsR()

	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		files, err := distro.ParseTexliveDatabase("/usr/share/texlive/texmf-dist", strings.NewReader(data))
		if err != nil {
			b.Fatal(err)
		}
		if len(files) != lsRDirectories*lsRFilesPerDir {
			b.Fatalf("got %d files", len(files))
		}
	}
}

func BenchmarkStronglyConnectedComponents(b *testing.B) {
	// A long reference chain with a cycle every ten files.
	const nodes = 5000

	g := dag.New()
	for i := range nodes {
		g.AddNode(fmt.Sprintf("f%d.sty", i))
	}
	for i := 1; i < nodes; i++ {
		g.AddEdge(fmt.Sprintf("f%d.sty", i), fmt.Sprintf("f%d.sty", i-1))
		if i%10 == 9 {
			g.AddEdge(fmt.Sprintf("f%d.sty", i-9), fmt.Sprintf("f%d.sty", i))
		}
	}

	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		if sccs := g.StronglyConnectedComponents(); len(sccs) == 0 {
			b.Fatal("no components")
		}
	}
}

func BenchmarkParsePrimitives(b *testing.B) {
	log, candidates := syntheticLog(2000)

	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		prims := unit.ParsePrimitives(log, candidates)
		if len(prims.Commands) != 1000 {
			b.Fatalf("got %d commands", len(prims.Commands))
		}
	}
}

func BenchmarkLikelyPrimitives(b *testing.B) {
	dir := b.TempDir()
	var paths []string
	for i := range 50 {
		var sb strings.Builder
		for j := range 200 {
			fmt.Fprintf(&sb, "\\newcommand\\cmd%dx%d{%d}\n\\newenvironment{env%dx%d}{}{}\n", i, j, j, i, j)
		}
		path := filepath.Join(dir, fmt.Sprintf("pkg%d.sty", i))
		if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
			b.Fatal(err)
		}
		paths = append(paths, path)
	}
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		if _, err := unit.LikelyPrimitives(ctx, paths, 8); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkConfigLoad(b *testing.B) {
	path := filepath.Join(b.TempDir(), "config.cue")
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		b.Fatal(err)
	}
	provider := config.NewProvider()
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		cfg, err := provider.Load(ctx, config.LoadOptions{ConfigFilePath: path})
		if err != nil {
			b.Fatal(err)
		}
		if cfg.Index.ReadConcurrency != 16 {
			b.Fatalf("read_concurrency = %d", cfg.Index.ReadConcurrency)
		}
	}
}
