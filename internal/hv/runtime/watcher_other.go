//go:build !windows

package runtime

// StartParentWatcher is a no-op outside the desktop OS: spec.md §4.7
// scopes the parent-watcher thread to Windows only.
func StartParentWatcher(parentPID int) {}
