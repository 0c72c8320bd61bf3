//go:build !windows

package hvlog

// flushVolume is a no-op outside the desktop OS: on UNIX-like systems
// fsync on the file descriptor (done in Sink.Flush) is the platform's
// durability primitive and there is no separate volume handle to hold
// open.
func flushVolume(string) {}

// volumeRoot has no meaning outside the desktop OS.
func volumeRoot(string) string { return "" }
