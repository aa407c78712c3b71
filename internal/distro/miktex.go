// SPDX-License-Identifier: MPL-2.0

package distro

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"path/filepath"
)

const (
	fndbSignature          = 0x42444E46
	fndbWordSize           = 4
	fndbTablePointerOffset = 4 * fndbWordSize
	fndbTableSizeOffset    = 6 * fndbWordSize
	fndbHeaderSize         = fndbTableSizeOffset + fndbWordSize
	fndbEntrySize          = 4 * fndbWordSize
)

// ParseMiktexDatabase parses a MiKTeX fndb file.
//
// The buffer is little-endian. It starts with the signature word, the word at
// offset 16 points to the record table and the word at offset 24 holds the record
// count. Each 16-byte record starts with two offsets to NUL-terminated strings:
// the file name and its directory. Relative directories are resolved against root.
//
// Any structural problem, including a bad signature, yields a *DatabaseError and
// no files.
func ParseMiktexDatabase(root string, data []byte) ([]File, error) {
	if len(data) < fndbWordSize || binary.LittleEndian.Uint32(data) != fndbSignature {
		return nil, &DatabaseError{Reason: "missing fndb signature"}
	}
	if len(data) < fndbHeaderSize {
		return nil, &DatabaseError{Reason: "truncated fndb header"}
	}

	tableAddress := uint64(binary.LittleEndian.Uint32(data[fndbTablePointerOffset:]))
	tableSize := uint64(binary.LittleEndian.Uint32(data[fndbTableSizeOffset:]))
	if tableAddress+tableSize*fndbEntrySize > uint64(len(data)) {
		return nil, &DatabaseError{
			Reason: fmt.Sprintf("record table (%d entries at %d) exceeds buffer of %d bytes", tableSize, tableAddress, len(data)),
		}
	}

	files := make([]File, 0, tableSize)
	for i := range tableSize {
		offset := tableAddress + i*fndbEntrySize
		name, err := readCString(data, binary.LittleEndian.Uint32(data[offset:]))
		if err != nil {
			return nil, &DatabaseError{Reason: fmt.Sprintf("record %d file name", i), Err: err}
		}
		dir, err := readCString(data, binary.LittleEndian.Uint32(data[offset+fndbWordSize:]))
		if err != nil {
			return nil, &DatabaseError{Reason: fmt.Sprintf("record %d directory", i), Err: err}
		}

		dir = filepath.FromSlash(dir)
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(root, dir)
		}
		files = append(files, File{Name: name, Path: filepath.Join(dir, name)})
	}

	return files, nil
}

func readCString(data []byte, offset uint32) (string, error) {
	if uint64(offset) >= uint64(len(data)) {
		return "", fmt.Errorf("string offset %d out of range", offset)
	}
	end := bytes.IndexByte(data[offset:], 0)
	if end < 0 {
		return "", fmt.Errorf("unterminated string at offset %d", offset)
	}
	return string(data[offset : uint64(offset)+uint64(end)]), nil
}
