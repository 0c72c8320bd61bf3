// Package payload implements the Trusted-Payload Loader (P, spec.md
// §4.8): dlopens the caller-named payload library, resolves
// TrustedMain (required) and TrustedError (optional, resolved lazily
// only on the error path per spec.md §9's blast-radius note).
package payload

import (
	"hvlaunch.dev/hvlaunch/internal/hv/dload"
	"hvlaunch.dev/hvlaunch/internal/hv/identity"
)

type trustedMainFunc func(argc int32, argv **byte, envp **byte) int32
type trustedErrorFunc func(where *byte, whatKind int32, rc int32, format *byte)

// Loader holds the dlopened payload library. TrustedError is resolved
// lazily by ResolveTrustedError, never at Load time, so a malicious
// payload that never triggers the error path never has that export
// touched.
type Loader struct {
	lib *dload.Library

	trustedMain  trustedMainFunc
	trustedError trustedErrorFunc
	hasError     bool
}

// Load dlopens app_bin_dir/prog_name-equivalent path and resolves the
// required TrustedMain export. Any failure is an IPRT error per
// spec.md §7.
func Load(id *identity.Identity) (*Loader, error) {
	path := dload.LibraryPath(id.AppBinDir, id.Flags.Location() == identity.LocationTest, id.ProgName)

	lib, err := dload.Open(path)
	if err != nil {
		return nil, err
	}

	l := &Loader{lib: lib}
	if err := lib.MustResolve(&l.trustedMain, "TrustedMain"); err != nil {
		_ = lib.Close()
		return nil, err
	}
	return l, nil
}

// ResolveTrustedError resolves the optional TrustedError export. It is
// called exactly once, on the error path, after privilege drop, never
// during the happy path.
func (l *Loader) ResolveTrustedError() bool {
	if l.hasError {
		return true
	}
	l.hasError = l.lib.TryResolve(&l.trustedError, "TrustedError")
	return l.hasError
}

// Run calls TrustedMain with the given argv and envp and returns its
// raw exit status, which becomes the process's own exit code per
// scenario S1 of spec.md §8.
func (l *Loader) Run(argv, envp []string) int32 {
	cargv, freeArgv := toCArgv(argv)
	defer freeArgv()
	cenvp, freeEnvp := toCArgv(envp)
	defer freeEnvp()

	return l.trustedMain(int32(len(argv)), cargv, cenvp)
}

// ReportError invokes TrustedError if it was resolved via
// ResolveTrustedError, and is a no-op otherwise. Recursive re-entry is
// guarded by the caller (herr.Reporter), not here.
func (l *Loader) ReportError(where string, whatKind int32, rc int32, message string) {
	if !l.hasError {
		return
	}
	whereC, freeWhere := toCString(where)
	defer freeWhere()
	msgC, freeMsg := toCString(message)
	defer freeMsg()

	l.trustedError(whereC, whatKind, rc, msgC)
}

// Close releases the payload library.
func (l *Loader) Close() error {
	return l.lib.Close()
}
