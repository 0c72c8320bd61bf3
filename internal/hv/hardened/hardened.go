// Package hardened implements HardenedMain, the orchestrator that ties
// Bootstrap, Respawn, Log, Verify, Driver, Capability-Negotiate,
// Runtime-Load, and Payload-Load together in that fixed order,
// threading an explicit context object through every stage rather
// than relying on hidden globals (spec.md §9).
package hardened

import (
	"os"

	"hvlaunch.dev/hvlaunch/internal/hv/dload"
	"hvlaunch.dev/hvlaunch/internal/hv/driver"
	"hvlaunch.dev/hvlaunch/internal/hv/herr"
	"hvlaunch.dev/hvlaunch/internal/hv/hvlog"
	"hvlaunch.dev/hvlaunch/internal/hv/hvos"
	"hvlaunch.dev/hvlaunch/internal/hv/identity"
	"hvlaunch.dev/hvlaunch/internal/hv/payload"
	"hvlaunch.dev/hvlaunch/internal/hv/runtime"
	"hvlaunch.dev/hvlaunch/internal/hv/state"
	"hvlaunch.dev/hvlaunch/internal/hv/verify"
)

// Config is everything the outer entry point (cmd/hvstub) knows before
// the pipeline starts: the caller flags word, the protected-file
// table, and the raw argv/envp to hand the payload.
type Config struct {
	Flags        identity.Flags
	Records      verify.Records
	Argv         []string
	Envp         []string
	LogDirsToBan []string // directories the log sink must refuse, see hvlog.ForbiddenDir
}

// Context is the process-wide explicit state object spec.md §9 asks
// for in place of hidden globals: the StateMarker, the captured
// identity, and the log/error-reporting plumbing every stage reaches
// through.
type Context struct {
	OS    hvos.OS
	State *state.Holder
	ID    *identity.Identity
	Log   *hvlog.Sink
	Err   *herr.Reporter

	driverHandle driver.Handle
	runtimeLdr   *runtime.Loader
	payloadLdr   *payload.Loader
}

// Run drives the full pipeline in order and returns the exit code
// TrustedMain produced or, in a desktop-OS respawn parent, the
// respawned child's exit code. A fatal failure goes through
// ctx.Err.Fatal, which exits the process and never returns.
func Run(osi hvos.OS, cfg Config) int {
	ctx := &Context{OS: osi, State: new(state.Holder)}
	ctx.State.Advance(state.HardenedMainCalled)

	// B: Bootstrap
	id, err := identity.Bootstrap(osi, cfg.Flags)
	if err != nil {
		fallbackReporter(osi, ctx.State).Fatal(err)
	}
	ctx.ID = id
	ctx.Err = &herr.Reporter{Prog: id.ProgName, State: ctx.State}

	// R: Respawn (desktop-OS only; runPlatformRespawn is a no-op on UNIX)
	if exitCode, handled := runPlatformRespawn(ctx, cfg); handled {
		return exitCode
	}

	argv, logPath := extractLogFlag(cfg.Argv)

	// L: Log Channel — opened before V so verification failures land
	// in it too, per spec.md §4.3's "never gates progress" contract:
	// a failure to open is ignored and the pipeline proceeds with a
	// nil sink.
	if logPath != "" {
		if hvlog.ForbiddenDir(logPath, cfg.LogDirsToBan) {
			ctx.Err.Fatal(herr.New(herr.Integrity, "hardening log path falls inside the protected set: "+logPath))
		}
		sink, openErr := hvlog.Open(osi, logPath, id.ProgName, os.Getpid())
		if openErr != nil {
			reportLogOpenFailure(osi, id.ProgName, openErr)
		} else {
			ctx.Log = sink
			ctx.Err.Log = sink
		}
	}
	defer func() {
		if ctx.Log != nil {
			ctx.Log.Flush()
		}
	}()

	// V: Installation Verifier
	var argv0 string
	if len(argv) > 0 {
		argv0 = argv[0]
	}
	if err := verify.All(osi, cfg.Records, nil, argv0); err != nil {
		ctx.Err.Fatal(err)
	}

	// D: Driver Opener
	if id.Flags&identity.DontOpenDevice == 0 {
		h, err := driver.Open()
		if err != nil {
			ctx.Err.Fatal(err)
		}
		ctx.driverHandle = h
		defer func() {
			if ctx.driverHandle != nil {
				_ = ctx.driverHandle.Close()
			}
		}()
	}

	// C: Capability Negotiator (UNIX only; no-op on Windows)
	if _, err := negotiateCapabilities(osi, id); err != nil {
		ctx.Err.Fatal(err)
	}

	// SPEC_FULL.md §6 item 5: strip library-injection variables before
	// the first dlopen of an untrusted-until-verified library.
	dload.SanitizeEnv(osi)

	ctx.State.Advance(state.WinImportsResolved)

	// T: Runtime Loader
	rt, err := runtime.Load(id)
	if err != nil {
		ctx.Err.Fatal(err)
	}
	ctx.runtimeLdr = rt
	defer rt.Close()

	if err := rt.InitRuntime(argv, ""); err != nil {
		ctx.Err.Fatal(err)
	}
	ctx.State.Advance(state.InitRuntime)

	if _, err := rt.PreInit(id); err != nil {
		ctx.Err.Fatal(err)
	}

	startParentWatcherIfRespawned(ctx)

	// P: Trusted-Payload Loader
	pl, err := payload.Load(id)
	if err != nil {
		ctx.Err.Fatal(err)
	}
	ctx.payloadLdr = pl
	defer pl.Close()

	ctx.State.Advance(state.GetTrustedMain)
	// TrustedError is resolved lazily, only if Fatal ever actually
	// invokes this closure (spec.md §4.8, §9 blast-radius note).
	ctx.Err.InvokeTrustedError = func(tag herr.Tag, rc int, message string) {
		if pl.ResolveTrustedError() {
			pl.ReportError(id.ProgName, 0, int32(rc), message)
		}
	}

	ctx.State.Advance(state.CalledTrustedMain)
	return int(pl.Run(cfg.Argv, cfg.Envp))
}

// fallbackReporter builds a minimal Reporter for failures that occur
// before identity.Bootstrap succeeds, so even the earliest fatal error
// still goes through the same four-step propagation policy.
func fallbackReporter(osi hvos.OS, st *state.Holder) *herr.Reporter {
	return &herr.Reporter{Prog: "hvstub", State: st}
}

func reportLogOpenFailure(osi hvos.OS, prog string, err error) {
	// spec.md §4.3: a failed log open is never fatal. The failure is
	// discarded; nothing is written to stderr.
	_ = osi
	_ = prog
	_ = err
}

func extractLogFlag(argv []string) (rest []string, path string) {
	path, rest, _ = hvlog.ExtractFlag(argv)
	return rest, path
}
