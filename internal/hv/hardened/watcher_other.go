//go:build !windows

package hardened

// startParentWatcherIfRespawned is a no-op outside the desktop OS.
func startParentWatcherIfRespawned(ctx *Context) {}
