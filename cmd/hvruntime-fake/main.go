// Command hvruntime-fake is a -buildmode=c-shared stand-in for the
// runtime support library that the Runtime Loader (T) dlopens. It is
// never linked into hvstub; it exists so integration tests can point
// identity.Identity.AppBinDir at a directory containing a real
// VBoxRT-equivalent shared object without a signed driver build,
// exercising dload and runtime.Loader end to end.
//
// Build separately with:
//
//	go build -buildmode=c-shared -o VBoxRT.so ./cmd/hvruntime-fake
package main

/*
#include <stdint.h>
*/
import "C"

import (
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"
)

var (
	initRuntimeExCalls atomic.Int32
	preInitCalls       atomic.Int32
)

func trace(format string, args ...any) {
	if os.Getenv("HVLAUNCH_FAKE_TRACE") == "" {
		return
	}
	fmt.Fprintf(os.Stderr, "hvruntime-fake: "+format+"\n", args...)
}

//export init_runtime_ex
func init_runtime_ex(version C.uint32_t, flags C.uint32_t, argc C.int32_t, argv **C.char, exePathOverride *C.char) C.int32_t {
	initRuntimeExCalls.Add(1)
	override := ""
	if exePathOverride != nil {
		override = C.GoString(exePathOverride)
	}
	trace("init_runtime_ex version=%d flags=%d argc=%d override=%q", uint32(version), uint32(flags), int32(argc), override)
	return 0
}

// pre_init receives an opaque pointer to the caller's PreInitBlob.
// A real runtime library is handed a C struct laid out by the
// caller's ABI; this fake never dereferences blob, since its only
// job is to prove the call happened and report success.
//
//export pre_init
func pre_init(blob unsafe.Pointer, flags C.uint32_t) C.int32_t {
	preInitCalls.Add(1)
	trace("pre_init flags=%d blob=%p", uint32(flags), blob)
	return 0
}

//export log_rel_printf
func log_rel_printf(line *C.char) {
	if line == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "hvruntime-fake(rel):", C.GoString(line))
}

func main() {}
