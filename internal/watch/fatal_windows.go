// SPDX-License-Identifier: MPL-2.0

//go:build windows

package watch

import (
	"errors"
	"syscall"
)

// isFatal reports Win32 errors after which ReadDirectoryChangesW cannot
// recover: ERROR_TOO_MANY_OPEN_FILES (4), ERROR_INVALID_HANDLE (6) and
// ERROR_NOT_ENOUGH_MEMORY (8).
func isFatal(err error) bool {
	for _, errno := range []syscall.Errno{4, 6, 8} {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}
