// SPDX-License-Identifier: MPL-2.0

package distro

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// maxLsRLineSize bounds a single ls-R line.
const maxLsRLineSize = 1 << 20

// ParseTexliveDatabase parses a TeX Live ls-R index rooted at root.
//
// A line ending in ':' switches the current directory (relative to root). Blank
// lines and '%' comments are skipped. Every other line is a file name in the
// current directory; only names with an extension are returned.
func ParseTexliveDatabase(root string, r io.Reader) ([]File, error) {
	var (
		files      []File
		currentDir = filepath.Clean(root)
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLsRLineSize)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "%") {
			continue
		}

		if dir, ok := strings.CutSuffix(line, ":"); ok {
			currentDir = filepath.Join(root, filepath.FromSlash(dir))
			continue
		}

		if len(filepath.Ext(line)) <= 1 {
			continue
		}
		files = append(files, File{
			Name: line,
			Path: filepath.Join(currentDir, line),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ls-R: %w", err)
	}

	return files, nil
}
