// SPDX-License-Identifier: MPL-2.0

//go:build windows

package watch

import "syscall"

// unrecoverable are the Win32 errors after which ReadDirectoryChangesW stops
// reporting. ERROR_INVALID_HANDLE follows the removal of the watched
// directory, which MiKTeX updates do to miktex/data/le.
var unrecoverable = []syscall.Errno{
	4, // ERROR_TOO_MANY_OPEN_FILES
	6, // ERROR_INVALID_HANDLE
	8, // ERROR_NOT_ENOUGH_MEMORY
}
