//go:build windows

package hvlog

import (
	"strings"

	"golang.org/x/sys/windows"
)

// volumeRoot derives the `\\.\C:` device path for the volume containing
// path, so Flush can also flush the containing volume.
func volumeRoot(path string) string {
	if len(path) < 2 || path[1] != ':' {
		return ""
	}
	return `\\.\` + strings.ToUpper(path[:1]) + ":"
}

// flushVolume best-effort flushes the volume containing the startup
// log, so a crash immediately after a write does not lose it to
// write-back caching at the volume layer. root is the drive root
// captured at Open time (e.g. `\\.\C:`); failures are swallowed, per
// spec.md §4.3.
func flushVolume(root string) {
	if root == "" {
		return
	}
	p, err := windows.UTF16PtrFromString(root)
	if err != nil {
		return
	}
	h, err := windows.CreateFile(
		p,
		windows.GENERIC_WRITE,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE,
		nil,
		windows.OPEN_EXISTING,
		0,
		0,
	)
	if err != nil {
		return
	}
	defer windows.CloseHandle(h)
	_ = windows.FlushFileBuffers(h)
}
