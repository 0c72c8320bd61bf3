//go:build !windows

package hardened

// runPlatformRespawn is a no-op on UNIX: spec.md §4.4 scopes the
// Respawn Controller to the desktop OS only.
func runPlatformRespawn(ctx *Context, cfg Config) (exitCode int, handled bool) {
	return 0, false
}
