package respawn

import "hvlaunch.dev/hvlaunch/internal/hv/herr"

// TrustedModules is the small allow-list of DLLs the module-unload
// purification step may leave loaded. Nothing in this repository reads
// it: package hardened's Windows build wires UnloadUntrustedModules as
// a no-op, so no module is unloaded from the child.
var TrustedModules = []string{
	"ntdll.dll",
	"kernel32.dll",
	"kernelbase.dll",
}

// Controller drives the R state machine for one respawned generation.
// Its zero value starts at Unspawned.
type Controller struct {
	gen Generation
}

// Generation returns the controller's current state.
func (c *Controller) Generation() Generation { return c.gen }

// advance moves the controller forward, rejecting any transition that
// is not the single legal next step, mirroring the strict ping-pong
// ordering of spec.md §4.4.
func (c *Controller) advance(to Generation, legalFrom ...Generation) error {
	for _, from := range legalFrom {
		if c.gen == from {
			c.gen = to
			return nil
		}
	}
	return herr.New(herr.Misc, "illegal respawn state transition from "+c.gen.String()+" to "+to.String())
}

// RunFirstRespawn drives the parent side of the first respawn: spawn,
// then wait for the child's exit code. It does not verify the
// installation before spawning. spawn and wait are injected so the
// state machine is testable without an OS process.
func (c *Controller) RunFirstRespawn(spawn func() (wait func() (int, error), err error)) (int, error) {
	if err := c.advance(FirstSpawned, Unspawned); err != nil {
		return 0, err
	}
	wait, err := spawn()
	if err != nil {
		return 0, herr.Wrap(herr.Misc, err, "first respawn failed to start")
	}
	code, err := wait()
	if err != nil {
		return 0, herr.Wrap(herr.Misc, err, "first respawn child failed")
	}
	if err := c.advance(FirstExited, FirstSpawned); err != nil {
		return 0, err
	}
	return code, nil
}

// PurificationSteps is the ordered set of callbacks the second-respawn
// parent runs between PURIFYING and PURIFIED: the three numbered steps
// of spec.md §4.4's "child purification" list, then closing the
// parent's writable handles to the child.
type PurificationSteps struct {
	FreeUnknownExecutableRegions func() error
	RestorePristineImagePages   func() error
	UnloadUntrustedModules      func() error
	CloseWritableHandles        func() error
}

// RunSecondRespawnParent drives the parent side of the second respawn
// through suspend, hook-install, resume, the early-init rendezvous
// wait, and purification, in the exact order spec.md §4.4 specifies.
func (c *Controller) RunSecondRespawnParent(
	spawnSuspended func() error,
	installHook func() error,
	resume func() error,
	waitEarlyInitSignal func() error,
	steps PurificationSteps,
	signalPurified func() error,
) error {
	if err := c.advance(SecondSpawnedSuspended, Unspawned); err != nil {
		return err
	}
	if err := spawnSuspended(); err != nil {
		return herr.Wrap(herr.Misc, err, "cannot create suspended child")
	}

	if err := c.advance(HookInstalled, SecondSpawnedSuspended); err != nil {
		return err
	}
	if err := installHook(); err != nil {
		return herr.Wrap(herr.Misc, err, "cannot install loader-init hook")
	}

	if err := c.advance(Resumed, HookInstalled); err != nil {
		return err
	}
	if err := resume(); err != nil {
		return herr.Wrap(herr.Misc, err, "cannot resume suspended child")
	}

	if err := c.advance(EarlyInitWaiting, Resumed); err != nil {
		return err
	}
	if err := waitEarlyInitSignal(); err != nil {
		return herr.Wrap(herr.Misc, err, "timed out waiting for early_process_init rendezvous signal")
	}

	if err := c.advance(Purifying, EarlyInitWaiting); err != nil {
		return err
	}
	if steps.FreeUnknownExecutableRegions != nil {
		if err := steps.FreeUnknownExecutableRegions(); err != nil {
			return herr.Wrap(herr.Misc, err, "cannot free unknown executable region in child")
		}
	}
	if steps.RestorePristineImagePages != nil {
		if err := steps.RestorePristineImagePages(); err != nil {
			return herr.Wrap(herr.Misc, err, "cannot restore pristine image pages in child")
		}
	}
	if steps.UnloadUntrustedModules != nil {
		if err := steps.UnloadUntrustedModules(); err != nil {
			return herr.Wrap(herr.Misc, err, "cannot unload untrusted module from child")
		}
	}
	if steps.CloseWritableHandles != nil {
		if err := steps.CloseWritableHandles(); err != nil {
			return herr.Wrap(herr.Misc, err, "cannot close writable handles to child")
		}
	}

	if err := c.advance(Purified, Purifying); err != nil {
		return err
	}
	if err := signalPurified(); err != nil {
		return herr.Wrap(herr.Misc, err, "cannot signal purified to child")
	}

	return c.advance(Running, Purified)
}
