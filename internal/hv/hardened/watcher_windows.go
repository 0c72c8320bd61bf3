//go:build windows

package hardened

import (
	"os"

	hvruntime "hvlaunch.dev/hvlaunch/internal/hv/runtime"
)

// startParentWatcherIfRespawned launches the optional background
// thread of spec.md §4.7 once this process is itself a respawned
// child, so an orphaned child never outlives its parent unsupervised.
func startParentWatcherIfRespawned(ctx *Context) {
	hvruntime.StartParentWatcher(os.Getppid())
}
