// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package watch

import "syscall"

// unrecoverable are the inotify errors after which no further events arrive:
// the per-user watch limit and the file descriptor limits.
var unrecoverable = []syscall.Errno{syscall.ENOSPC, syscall.EMFILE, syscall.ENFILE}
