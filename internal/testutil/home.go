// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"path/filepath"
	"runtime"
	"testing"
)

// SetHomeDir points the platform home variable (USERPROFILE on Windows,
// HOME elsewhere) and XDG_CONFIG_HOME at dir. The returned function
// restores the previous values.
//
//	t.Cleanup(testutil.SetHomeDir(t, t.TempDir()))
func SetHomeDir(t testing.TB, dir string) func() {
	t.Helper()

	key := "HOME"
	if runtime.GOOS == "windows" {
		key = "USERPROFILE"
	}
	restoreHome := MustSetenv(t, key, dir)
	restoreXDG := MustSetenv(t, "XDG_CONFIG_HOME", filepath.Join(dir, ".config"))
	return func() {
		restoreXDG()
		restoreHome()
	}
}
