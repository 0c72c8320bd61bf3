// Package runtime implements the Runtime Loader (T, spec.md §4.7):
// locates and dlopens the fixed-name runtime support library
// (RuntimeLibraryName), resolves its fixed entry points, and hands it
// the pre-init blob before the payload loader (P) runs.
package runtime

import (
	"hvlaunch.dev/hvlaunch/internal/hv/dload"
	"hvlaunch.dev/hvlaunch/internal/hv/herr"
	"hvlaunch.dev/hvlaunch/internal/hv/identity"
)

// PreInitBlob is the process-wide value handed to the runtime's
// pre_init export, per spec.md §6's invoked-interface table and §9's
// "Global mutable state" design note (init-once, single-writer).
type PreInitBlob struct {
	ExePath   string
	AppBinDir string
	ProgName  string
	RealUID   int
	RealGID   int
}

func newPreInitBlob(id *identity.Identity) *PreInitBlob {
	return &PreInitBlob{
		ExePath:   id.ExePath,
		AppBinDir: id.AppBinDir,
		ProgName:  id.ProgName,
		RealUID:   id.RealUID,
		RealGID:   id.RealGID,
	}
}

// initRuntimeExFunc and preInitFunc mirror the fixed C signatures of
// spec.md §6's invoked-interfaces table exactly; no field is ever
// added speculatively since the payload side cannot be recompiled
// along with this loader.
type initRuntimeExFunc func(version uint32, flags uint32, argc int32, argv **byte, exePathOverride *byte) int32
type preInitFunc func(blob *PreInitBlob, flags uint32) int32
type logRelPrintfFunc func(fmt *byte)

// Loader holds the dlopened runtime library and its resolved entry
// points for the lifetime of the process.
type Loader struct {
	lib *dload.Library

	initRuntimeEx initRuntimeExFunc
	preInit       preInitFunc
	logRelPrintf  logRelPrintfFunc
	hasLogRel     bool
}

// Version is the fixed ABI version this loader negotiates with
// init_runtime_ex; bumped only if the exported signature changes.
const Version = 1

// Load dlopens the app_bin_dir/VBoxRT-equivalent path and resolves
// init_runtime_ex and pre_init (required) and log_rel_printf
// (optional). It calls neither entry point; see InitRuntime and
// PreInit. Any failure is an IPRT error per spec.md §7.
func Load(id *identity.Identity) (*Loader, error) {
	path := dload.LibraryPath(id.AppBinDir, id.Flags.Location() == identity.LocationTest, RuntimeLibraryName)

	lib, err := dload.Open(path)
	if err != nil {
		return nil, err
	}

	l := &Loader{lib: lib}
	if err := lib.MustResolve(&l.initRuntimeEx, "init_runtime_ex"); err != nil {
		_ = lib.Close()
		return nil, err
	}
	if err := lib.MustResolve(&l.preInit, "pre_init"); err != nil {
		_ = lib.Close()
		return nil, err
	}
	l.hasLogRel = lib.TryResolve(&l.logRelPrintf, "log_rel_printf")

	return l, nil
}

// RuntimeLibraryName is the library base name Load resolves against
// id.AppBinDir; it has no platform suffix, which dload.LibraryPath
// appends.
const RuntimeLibraryName = "VBoxRT"

// InitRuntime calls init_runtime_ex with the process's argv, per
// spec.md §6.
func (l *Loader) InitRuntime(argv []string, exePathOverride string) error {
	cargv, free := toCArgv(argv)
	defer free()

	var override *byte
	if exePathOverride != "" {
		b, freeOverride := toCString(exePathOverride)
		defer freeOverride()
		override = b
	}

	rc := l.initRuntimeEx(Version, 0, int32(len(argv)), cargv, override)
	if rc != 0 {
		return herr.New(herr.IPRT, "init_runtime_ex returned non-zero status")
	}
	return nil
}

// PreInit builds the PreInitBlob from id and calls pre_init.
func (l *Loader) PreInit(id *identity.Identity) (*PreInitBlob, error) {
	blob := newPreInitBlob(id)
	if rc := l.preInit(blob, 0); rc != 0 {
		return nil, herr.New(herr.IPRT, "pre_init returned non-zero status")
	}
	return blob, nil
}

// LogRelPrintf forwards a pre-formatted line to the runtime's release
// log if the optional export was resolved; it is a no-op otherwise.
func (l *Loader) LogRelPrintf(line string) {
	if !l.hasLogRel {
		return
	}
	b, free := toCString(line)
	defer free()
	l.logRelPrintf(b)
}

// Close releases the runtime library.
func (l *Loader) Close() error {
	return l.lib.Close()
}
