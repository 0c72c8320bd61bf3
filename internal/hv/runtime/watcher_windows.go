//go:build windows

package runtime

import (
	"os"

	"golang.org/x/sys/windows"
)

// StartParentWatcher launches the optional background thread spec.md
// §4.1 and §9's scheduling model describe as the sole background work
// the core initiates: it waits on the respawn parent's process handle
// and exits this process if the parent dies first, so an orphaned
// second-respawn child never outlives supervision.
func StartParentWatcher(parentPID int) {
	h, err := windows.OpenProcess(windows.SYNCHRONIZE, false, uint32(parentPID))
	if err != nil {
		return
	}
	go func() {
		defer windows.CloseHandle(h)
		windows.WaitForSingleObject(h, windows.INFINITE)
		os.Exit(1)
	}()
}
