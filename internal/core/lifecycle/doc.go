// SPDX-License-Identifier: MPL-2.0

// Package lifecycle provides the state machine shared by texindex's
// background services: the component database worker and the filename
// database watcher.
//
// A service embeds Base, starts its loop with Run and ends it with Shutdown,
// which cancels the loop's context and waits for it. Further goroutines
// started with Go are waited for as well.
package lifecycle
