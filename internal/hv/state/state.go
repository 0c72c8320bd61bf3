// Package state implements the StateMarker of spec.md §3: a
// process-wide ordinal describing how far the hardened pipeline has
// advanced, which error reporters consult to decide which output
// channels and payload entry points are safe to use.
package state

import (
	"fmt"
	"sync/atomic"
)

// Marker is one point in the pipeline's progress. The zero value is
// NotYetCalled; values increase strictly as HardenedMain advances.
type Marker uint32

const (
	NotYetCalled Marker = iota
	HardenedMainCalled
	WinEarlyStubCalled
	WinEarlyStubPurified
	WinEarlyImportsResolved
	WinEarlyInitDone
	WinImportsResolved
	WinVerifyTrustReady
	InitRuntime
	GetTrustedMain
	CalledTrustedMain

	numMarkers
)

var names = [numMarkers]string{
	NotYetCalled:            "NOT_YET_CALLED",
	HardenedMainCalled:      "HARDENED_MAIN_CALLED",
	WinEarlyStubCalled:      "WIN_EARLY_STUB_CALLED",
	WinEarlyStubPurified:    "WIN_EARLY_STUB_PURIFIED",
	WinEarlyImportsResolved: "WIN_EARLY_IMPORTS_RESOLVED",
	WinEarlyInitDone:        "WIN_EARLY_INIT_DONE",
	WinImportsResolved:      "WIN_IMPORTS_RESOLVED",
	WinVerifyTrustReady:     "WIN_VERIFY_TRUST_READY",
	InitRuntime:             "INIT_RUNTIME",
	GetTrustedMain:          "GET_TRUSTED_MAIN",
	CalledTrustedMain:       "CALLED_TRUSTED_MAIN",
}

func (m Marker) String() string {
	if m >= numMarkers {
		return fmt.Sprintf("Marker(%d)", uint32(m))
	}
	return names[m]
}

// Holder is the process-wide witness of pipeline progress. The zero
// value is ready to use and starts at NotYetCalled.
type Holder struct {
	v atomic.Uint32
}

// Advance moves the marker to m. It panics if m does not strictly
// increase on top of the current value — per spec.md §3, "StateMarker
// never decreases" is an invariant the pipeline must never violate,
// and a backward or stale advance call is a programming error in the
// orchestrator, not a recoverable runtime condition.
func (h *Holder) Advance(m Marker) {
	for {
		cur := Marker(h.v.Load())
		if m <= cur {
			panic(fmt.Sprintf("state: illegal transition %s -> %s", cur, m))
		}
		if h.v.CompareAndSwap(uint32(cur), uint32(m)) {
			return
		}
	}
}

// Load returns the current marker.
func (h *Holder) Load() Marker { return Marker(h.v.Load()) }

// AtLeast reports whether the current marker is at or past m.
func (h *Holder) AtLeast(m Marker) bool { return h.Load() >= m }
