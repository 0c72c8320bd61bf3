// Command hvpayload-fake is a -buildmode=c-shared stand-in for a
// payload library, used only by integration tests to exercise
// payload.Loader (the Trusted-Payload Loader, P) without a real
// VBoxSDL-equivalent build. TrustedMain's exit status is controllable
// through an environment variable so tests can assert the Run Loop
// forwards it unchanged as the process's own exit code (scenario S1).
//
// Build separately with:
//
//	go build -buildmode=c-shared -o VBoxSDL.so ./cmd/hvpayload-fake
package main

/*
#include <stdint.h>
*/
import "C"

import (
	"fmt"
	"os"
	"strconv"
)

//export TrustedMain
func TrustedMain(argc C.int32_t, argv **C.char, envp **C.char) C.int32_t {
	if os.Getenv("HVLAUNCH_FAKE_TRACE") != "" {
		fmt.Fprintf(os.Stderr, "hvpayload-fake: TrustedMain argc=%d\n", int32(argc))
	}

	code := 0
	if v := os.Getenv("HVLAUNCH_FAKE_EXIT_CODE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			code = n
		}
	}
	return C.int32_t(code)
}

// TrustedError is resolved lazily by payload.Loader only on the
// fatal-error path. This fake just echoes the call so a test can
// confirm it was (or was not) invoked.
//
//export TrustedError
func TrustedError(where *C.char, whatKind C.int32_t, rc C.int32_t, format *C.char) {
	var whereStr, formatStr string
	if where != nil {
		whereStr = C.GoString(where)
	}
	if format != nil {
		formatStr = C.GoString(format)
	}
	fmt.Fprintf(os.Stderr, "hvpayload-fake: TrustedError where=%s kind=%d rc=%d msg=%s\n", whereStr, int32(whatKind), int32(rc), formatStr)
}

func main() {}
