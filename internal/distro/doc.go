// SPDX-License-Identifier: MPL-2.0

// Package distro locates the installed TeX distribution and builds a map from
// file name to absolute path for every file it ships.
//
// Root directories are discovered through kpsewhich (the TEXMF variable,
// brace-expanded locally). Each root is then probed for a filename database:
//   - TeX Live: the plain-text ls-R index at the root
//   - MiKTeX: the binary fndb-N files under miktex/data/le
//
// The resulting Resolver is immutable. Later roots override earlier ones when two
// roots ship a file with the same name.
package distro
