//go:build !windows

package respawn

// NotApplicable reports that the respawn controller has nothing to do
// on this platform; spec.md §4.4 scopes it to the desktop OS only.
const NotApplicable = true

// RunFirstRespawn and RunSecondRespawnParent are never called outside
// the desktop OS: package hardened's non-Windows build of
// runPlatformRespawn is a no-op that never calls into this package.
