//go:build unix

package hardened

import (
	"hvlaunch.dev/hvlaunch/internal/hv/capnego"
	"hvlaunch.dev/hvlaunch/internal/hv/hvos"
	"hvlaunch.dev/hvlaunch/internal/hv/identity"
)

// capResult mirrors the handful of capnego.Result fields the
// orchestrator needs, so hardened.go can stay platform-neutral while
// the Windows build never imports capnego at all.
type capResult struct {
	Skipped          bool
	RUID, EUID, SUID int
	RGID, EGID, SGID int
}

// negotiateCapabilities runs C (spec.md §4.6) on UNIX; the package is
// never imported on Windows, which keeps capnego's real syscall-heavy
// files out of that build entirely rather than merely skipping the
// call at runtime.
func negotiateCapabilities(osi hvos.OS, id *identity.Identity) (capResult, error) {
	opts := capnego.OptionsFromEnv(osi)
	res, err := capnego.Negotiate(osi, id.RealUID, id.RealGID, opts)
	return capResult{
		Skipped: res.Skipped,
		RUID:    res.RUID, EUID: res.EUID, SUID: res.SUID,
		RGID: res.RGID, EGID: res.EGID, SGID: res.SGID,
	}, err
}
