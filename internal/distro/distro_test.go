// SPDX-License-Identifier: MPL-2.0

package distro

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildFndb assembles a minimal fndb buffer holding (name, directory) records.
func buildFndb(t *testing.T, records [][2]string) []byte {
	t.Helper()

	const tableAddress = 32
	stringsBase := tableAddress + fndbEntrySize*len(records)

	buf := make([]byte, stringsBase)
	binary.LittleEndian.PutUint32(buf[0:], fndbSignature)
	binary.LittleEndian.PutUint32(buf[fndbTablePointerOffset:], tableAddress)
	binary.LittleEndian.PutUint32(buf[fndbTableSizeOffset:], uint32(len(records)))

	for i, rec := range records {
		entry := tableAddress + i*fndbEntrySize
		binary.LittleEndian.PutUint32(buf[entry:], uint32(len(buf)))
		buf = append(buf, rec[0]...)
		buf = append(buf, 0)
		binary.LittleEndian.PutUint32(buf[entry+fndbWordSize:], uint32(len(buf)))
		buf = append(buf, rec[1]...)
		buf = append(buf, 0)
	}
	return buf
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestParseTexliveDatabase(t *testing.T) {
	t.Parallel()

	root := filepath.FromSlash("/opt/texlive/texmf-dist")
	lsR := strings.Join([]string{
		"% ls-R -- filename database for kpathsea; do not change this line.",
		"./:",
		"ls-R",
		"README.md",
		"",
		"./tex/latex/amsmath:",
		"amsmath.sty",
		"amsopn.sty\r",
		"Makefile",
		"",
		"./tex/latex/base/:",
		"article.cls",
	}, "\n")

	files, err := ParseTexliveDatabase(root, strings.NewReader(lsR))
	require.NoError(t, err)

	want := []File{
		{Name: "README.md", Path: filepath.Join(root, "README.md")},
		{Name: "amsmath.sty", Path: filepath.Join(root, "tex", "latex", "amsmath", "amsmath.sty")},
		{Name: "amsopn.sty", Path: filepath.Join(root, "tex", "latex", "amsmath", "amsopn.sty")},
		{Name: "article.cls", Path: filepath.Join(root, "tex", "latex", "base", "article.cls")},
	}
	assert.Equal(t, want, files)
}

func TestParseMiktexDatabase(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	abs := filepath.Join(root, "abs")
	data := buildFndb(t, [][2]string{
		{"amsmath.sty", "tex/latex/amsmath"},
		{"article.cls", abs},
	})

	files, err := ParseMiktexDatabase(root, data)
	require.NoError(t, err)
	assert.Equal(t, []File{
		{Name: "amsmath.sty", Path: filepath.Join(root, "tex", "latex", "amsmath", "amsmath.sty")},
		{Name: "article.cls", Path: filepath.Join(abs, "article.cls")},
	}, files)
}

func TestParseMiktexDatabase_Invalid(t *testing.T) {
	t.Parallel()

	valid := buildFndb(t, [][2]string{{"a.sty", "tex"}})

	badSignature := append([]byte(nil), valid...)
	badSignature[0] ^= 0xFF

	truncatedTable := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint32(truncatedTable[fndbTableSizeOffset:], 1000)

	badStringOffset := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint32(badStringOffset[32:], uint32(len(valid)+10))

	unterminated := append([]byte(nil), valid[:len(valid)-1]...)

	tests := map[string][]byte{
		"empty":            nil,
		"short":            {0x46, 0x4E},
		"bad signature":    badSignature,
		"header only sig":  {0x46, 0x4E, 0x44, 0x42, 0, 0},
		"table overflow":   truncatedTable,
		"string offset":    badStringOffset,
		"unterminated str": unterminated,
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			files, err := ParseMiktexDatabase("/root", data)
			require.ErrorIs(t, err, ErrInvalidDistribution)
			assert.Nil(t, files, "no partial data on error")
		})
	}
}

func TestCreate_Texlive(t *testing.T) {
	t.Parallel()

	first := t.TempDir()
	second := t.TempDir()
	writeFile(t, filepath.Join(first, "ls-R"), "./tex/latex/a:\namsmath.sty\nonly-first.sty\n")
	writeFile(t, filepath.Join(second, "ls-R"), "./tex/latex/b:\namsmath.sty\n")

	r, err := Create(context.Background(), Options{Roots: []string{first, second}})
	require.NoError(t, err)

	assert.Equal(t, KindTexlive, r.Kind())
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{first, second}, r.Roots())
	assert.Len(t, r.Databases(), 2)

	path, ok := r.Lookup("amsmath.sty")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(second, "tex", "latex", "b", "amsmath.sty"), path, "later roots win")

	path, ok = r.Lookup("only-first.sty")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(first, "tex", "latex", "a", "only-first.sty"), path)

	_, ok = r.Lookup("missing.sty")
	assert.False(t, ok)

	dirs, patterns := r.WatchTargets()
	assert.Equal(t, []string{first, second}, dirs)
	assert.Equal(t, []string{"ls-R"}, patterns)
}

func TestCreate_Miktex(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dbDir := filepath.Join(root, "miktex", "data", "le")
	require.NoError(t, os.MkdirAll(dbDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dbDir, "pathname.fndb-5"),
		buildFndb(t, [][2]string{{"amsmath.sty", "tex/latex/amsmath"}}), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dbDir, "second.fndb-6"),
		buildFndb(t, [][2]string{{"tikz.sty", "tex/latex/pgf"}}), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dbDir, "notes.txt"), []byte("ignored"), 0o644))

	r, err := Create(context.Background(), Options{Roots: []string{root}})
	require.NoError(t, err)

	assert.Equal(t, KindMiktex, r.Kind())
	assert.Equal(t, 2, r.Len())
	path, ok := r.Lookup("tikz.sty")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "tex", "latex", "pgf", "tikz.sty"), path)

	dirs, patterns := r.WatchTargets()
	assert.Equal(t, []string{dbDir}, dirs)
	require.Len(t, patterns, 1)
	matched, err := filepath.Match(patterns[0], "pathname.fndb-5")
	require.NoError(t, err)
	assert.True(t, matched)
}

func TestCreate_Errors(t *testing.T) {
	t.Parallel()

	t.Run("unknown distribution", func(t *testing.T) {
		t.Parallel()
		_, err := Create(context.Background(), Options{Roots: []string{t.TempDir()}})
		require.ErrorIs(t, err, ErrUnknownDistribution)
	})

	t.Run("corrupt fndb", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "miktex", "data", "le", "x.fndb-5"), "not an fndb file")

		_, err := Create(context.Background(), Options{Roots: []string{root}})
		require.ErrorIs(t, err, ErrInvalidDistribution)

		var dbErr *DatabaseError
		require.ErrorAs(t, err, &dbErr)
		assert.Equal(t, filepath.Join(root, "miktex", "data", "le", "x.fndb-5"), dbErr.Path)
	})

	t.Run("kpsewhich missing", func(t *testing.T) {
		t.Parallel()
		_, err := Create(context.Background(), Options{
			Kpsewhich: filepath.Join(t.TempDir(), "no-such-kpsewhich"),
		})
		require.ErrorIs(t, err, ErrDistributionNotFound)
	})
}

func TestDetectKind(t *testing.T) {
	t.Parallel()

	empty := t.TempDir()
	texlive := t.TempDir()
	writeFile(t, filepath.Join(texlive, "ls-R"), "")
	miktex := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(miktex, "miktex", "data", "le"), 0o755))

	assert.Equal(t, KindUnknown, DetectKind(nil))
	assert.Equal(t, KindUnknown, DetectKind([]string{empty}))
	assert.Equal(t, KindTexlive, DetectKind([]string{empty, texlive, miktex}))
	assert.Equal(t, KindMiktex, DetectKind([]string{miktex, texlive}))
}

func TestExpandTexmf(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	home := filepath.Join(base, "texmf")
	dist := filepath.Join(base, "texmf-dist")
	local := filepath.Join(base, "texmf-local")
	for _, dir := range []string{home, dist, local} {
		require.NoError(t, os.MkdirAll(dir, 0o755))
	}
	missing := filepath.Join(base, "missing")

	value := "{" + home + "," + missing + ",!!" + dist + ",!!" + dist + "}"
	assert.Equal(t, []string{home, dist}, ExpandTexmf(value))

	assert.Equal(t, []string{local}, ExpandTexmf("!!"+local))

	listed := local + string(os.PathListSeparator) + home
	assert.Equal(t, []string{local, home}, ExpandTexmf(listed))

	assert.Empty(t, ExpandTexmf(""))
}

func TestRootDirectories_FakeKpsewhich(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in requires a POSIX shell")
	}

	base := t.TempDir()
	a := filepath.Join(base, "a")
	b := filepath.Join(base, "b")
	require.NoError(t, os.MkdirAll(a, 0o755))
	require.NoError(t, os.MkdirAll(b, 0o755))

	script := filepath.Join(base, "kpsewhich")
	writeFile(t, script, "#!/bin/sh\necho '{"+a+",!!"+b+"}'\n")
	require.NoError(t, os.Chmod(script, 0o755))

	roots, err := RootDirectories(context.Background(), script)
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, roots)
}

func TestNilResolver(t *testing.T) {
	t.Parallel()

	var r *Resolver
	_, ok := r.Lookup("amsmath.sty")
	assert.False(t, ok)
	assert.Zero(t, r.Len())
	assert.Equal(t, KindUnknown, r.Kind())
	assert.Nil(t, r.Roots())
	dirs, patterns := r.WatchTargets()
	assert.Nil(t, dirs)
	assert.Nil(t, patterns)
}
