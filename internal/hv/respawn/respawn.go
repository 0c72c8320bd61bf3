// Package respawn implements the Respawn Controller (spec.md §4.4),
// desktop-OS only: two generations of self-respawn used to shed
// inherited OS compatibility shims and, on the second respawn, create
// a child whose address space is purified before any third-party code
// runs in it.
package respawn

import "strings"

// Generation is a state of the R state machine of spec.md §4.4.
type Generation int

const (
	Unspawned Generation = iota
	FirstSpawned
	FirstExited
	SecondSpawnedSuspended
	HookInstalled
	Resumed
	EarlyInitWaiting
	Purifying
	Purified
	Running
)

func (g Generation) String() string {
	switch g {
	case Unspawned:
		return "UNSPAWNED"
	case FirstSpawned:
		return "FIRST_SPAWNED"
	case FirstExited:
		return "FIRST_EXITED"
	case SecondSpawnedSuspended:
		return "SECOND_SPAWNED_SUSPENDED"
	case HookInstalled:
		return "HOOK_INSTALLED"
	case Resumed:
		return "RESUMED"
	case EarlyInitWaiting:
		return "EARLY_INIT_WAITING"
	case Purifying:
		return "PURIFYING"
	case Purified:
		return "PURIFIED"
	case Running:
		return "RUNNING"
	default:
		return "UNKNOWN"
	}
}

// SecondRespawnSentinel replaces argv[0] in the second-respawn child;
// its presence is the sole signal spec.md §6 defines for detecting
// "this is the second-respawn child".
const SecondRespawnSentinel = "de305d54-75b4-431b-adb2-eb6b9e546014"

// Phase identifies which of the two respawns, if any, the current
// process is, as detected from its own argv.
type Phase int

const (
	PhaseOriginal Phase = iota
	PhaseFirstRespawn
	PhaseSecondRespawn
)

// DetectPhase inspects argv[0] for the second-respawn sentinel and an
// out-of-band marker for the first respawn (carried in env by the
// parent, since the first respawn keeps its real argv[0] per spec.md
// §6's "preserve all other arguments" rule).
func DetectPhase(argv []string, firstRespawnMarkerSet bool) Phase {
	if len(argv) > 0 && IsSentinelArgv0(argv[0]) {
		return PhaseSecondRespawn
	}
	if firstRespawnMarkerSet {
		return PhaseFirstRespawn
	}
	return PhaseOriginal
}

// RewriteArgvForSecondRespawn returns a copy of argv with argv[0]
// replaced by the sentinel, preserving every other argument's order
// and value unchanged, per spec.md §6.
func RewriteArgvForSecondRespawn(argv []string) []string {
	if len(argv) == 0 {
		return []string{SecondRespawnSentinel}
	}
	out := make([]string, len(argv))
	copy(out, argv)
	out[0] = SecondRespawnSentinel
	return out
}

// IsSentinelArgv0 reports whether s is the second-respawn sentinel,
// case-insensitively (UUIDs are conventionally lower-case but the
// comparison must not depend on that).
func IsSentinelArgv0(s string) bool {
	return strings.EqualFold(s, SecondRespawnSentinel)
}
