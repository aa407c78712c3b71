// SPDX-License-Identifier: MPL-2.0

// Package benchmark holds benchmarks for the indexing hot paths:
//   - filename database parsing
//   - dependency grouping of large reference graphs
//   - probe log parsing and candidate scanning
//   - configuration loading
//
// Run them with:
//
//	go test -run '^$' -bench . ./internal/benchmark
package benchmark
