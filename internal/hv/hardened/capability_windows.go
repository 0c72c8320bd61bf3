//go:build windows

package hardened

import (
	"hvlaunch.dev/hvlaunch/internal/hv/hvos"
	"hvlaunch.dev/hvlaunch/internal/hv/identity"
)

// capResult mirrors capnego.Result's shape without importing the
// UNIX-only package on this platform.
type capResult struct {
	Skipped bool
}

// negotiateCapabilities is a no-op on the desktop OS: spec.md §4.6
// scopes the Capability Negotiator to UNIX only. Windows trust comes
// from the driver-side process-object hardening applied during the
// second respawn (§4.4) instead.
func negotiateCapabilities(osi hvos.OS, id *identity.Identity) (capResult, error) {
	return capResult{Skipped: true}, nil
}
