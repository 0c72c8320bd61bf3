package dload

import (
	"github.com/ebitengine/purego"

	"hvlaunch.dev/hvlaunch/internal/hv/herr"
	"hvlaunch.dev/hvlaunch/internal/hv/hvos"
)

// Library is an opened shared object with symbols resolved against a
// fixed, caller-declared set. No vtable discovery, no reflection: the
// loader only ever asks for a symbol it already knows the signature
// of, per spec.md §9's "Dynamic dispatch in payload" design note.
type Library struct {
	handle uintptr
	path   string
}

// Open dlopens path, wrapping any failure as an IPRT-tagged error
// (spec.md §7: "Runtime library missing" is the IPRT category).
func Open(path string) (*Library, error) {
	h, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, herr.Wrap(herr.IPRT, err, "cannot load library "+path)
	}
	return &Library{handle: h, path: path}, nil
}

// MustResolve resolves a required symbol into fptr (a pointer to a
// function variable with the C signature's Go equivalent) and returns
// an IPRT error if the symbol is missing.
func (l *Library) MustResolve(fptr any, name string) error {
	sym, err := purego.Dlsym(l.handle, name)
	if err != nil {
		return herr.Wrap(herr.IPRT, err, "missing required symbol "+name+" in "+l.path)
	}
	purego.RegisterFunc(fptr, sym)
	return nil
}

// TryResolve resolves an optional symbol into fptr, reporting whether
// it was found. A missing optional symbol is not an error.
func (l *Library) TryResolve(fptr any, name string) bool {
	sym, err := purego.Dlsym(l.handle, name)
	if err != nil {
		return false
	}
	purego.RegisterFunc(fptr, sym)
	return true
}

// Close releases the library. Errors are reported but are never
// escalated to Fatal: by the time a library is being closed the
// pipeline has already decided to exit for some other reason.
func (l *Library) Close() error {
	return purego.Dlclose(l.handle)
}

// sensitiveEnv is the deny-list of SPEC_FULL.md §6 item 5: variables
// capable of injecting code into the address space of the first
// dlopen call this process makes.
var sensitiveEnv = []string{
	"LD_PRELOAD",
	"LD_LIBRARY_PATH",
	"LD_AUDIT",
	"DYLD_INSERT_LIBRARIES",
	"DYLD_LIBRARY_PATH",
	"DYLD_FRAMEWORK_PATH",
}

// SanitizeEnv clears the environment variables a co-resident "protection"
// product or a malicious parent could have used to preload code into
// this process, before the first dlopen of an untrusted-until-verified
// library. Called once, immediately after the Capability Negotiator.
func SanitizeEnv(osi hvos.OS) {
	for _, k := range sensitiveEnv {
		_ = osi.Unsetenv(k)
	}
}
