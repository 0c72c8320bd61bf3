// Package capnego implements the Capability Negotiator (spec.md §4.6,
// UNIX only): raising the one extra capability the VM needs while
// effective UID is still the superuser, then irrevocably dropping
// root and verifying the drop took effect in all three UID/GID
// variants.
package capnego

import (
	"hvlaunch.dev/hvlaunch/internal/hv/herr"
	"hvlaunch.dev/hvlaunch/internal/hv/hvos"
)

// Options controls which extra capability bits are raised, per the two
// recognized environment variables of spec.md §6.
type Options struct {
	NetRaw         bool
	NetBindService bool
}

// OptionsFromEnv reads HARD_CAP_NET_RAW (default on; "0" disables) and
// HARD_CAP_NET_BIND_SERVICE (default off; any non-"0" value enables).
func OptionsFromEnv(osi hvos.OS) Options {
	opts := Options{NetRaw: true, NetBindService: false}
	if v, ok := osi.LookupEnv("HARD_CAP_NET_RAW"); ok && v == "0" {
		opts.NetRaw = false
	}
	if v, ok := osi.LookupEnv("HARD_CAP_NET_BIND_SERVICE"); ok && v != "0" {
		opts.NetBindService = true
	}
	return opts
}

// Result records the UID/GID state observed after Negotiate returns,
// so callers (and tests) can check the post-drop invariant of
// spec.md §3 directly: no UID of 0 persists in effective, real, or
// saved, for either UID or GID.
type Result struct {
	RUID, EUID, SUID int
	RGID, EGID, SGID int
	Skipped          bool // real UID was already 0; the dance was skipped entirely
}

// AnyZero reports whether any of the six recorded IDs is 0.
func (r Result) AnyZero() bool {
	return r.RUID == 0 || r.EUID == 0 || r.SUID == 0 || r.RGID == 0 || r.EGID == 0 || r.SGID == 0
}

// Negotiate runs the full raise-then-drop sequence for a process whose
// real UID/GID are realUID/realGID. Processes whose real UID is
// already zero skip the capability dance entirely (spec.md §4.6).
func Negotiate(osi hvos.OS, realUID, realGID int, opts Options) (Result, error) {
	// S4 of spec.md §8: a caller with no elevated authority at all
	// cannot negotiate anything.
	if osi.Geteuid() != 0 {
		return Result{}, herr.New(herr.RootCheck, "effective uid is not 0, this program is not running with elevated authority")
	}
	if realUID == 0 {
		return Result{Skipped: true}, nil
	}
	return negotiate(osi, realUID, realGID, opts)
}
