// Command hvstub is the privileged entry point: the tiny setuid
// executable whose sole purpose is to run the hardened pipeline and
// hand off to the payload named by its own program name.
package main

import (
	"flag"
	"os"

	"hvlaunch.dev/hvlaunch/internal/hv/hardened"
	"hvlaunch.dev/hvlaunch/internal/hv/identity"
	"hvlaunch.dev/hvlaunch/internal/hv/hvos"
	"hvlaunch.dev/hvlaunch/internal/hv/verify"
)

// These flags are the caller-provided bitfield inputs, normally fixed
// at build time per program (VBoxSDL vs. a VM service vs. a testcase
// binary) rather than parsed from argv; here they're read from a
// small set of recognized leading flags so a single hvstub binary can
// stand in for every variant during development and testing.
var (
	dontOpenDevice = flag.Bool("dont-open-device", false, "skip the driver open step (D)")
	testcase       = flag.Bool("testcase", false, "this binary lives under app_bin_dir/testcase")
	checkOnly      = flag.Bool("C", false, "run only the Installation Verifier and exit (SPEC_FULL.md §6 item 2)")
)

func main() {
	flag.Parse()

	var f identity.Flags
	if *dontOpenDevice {
		f |= identity.DontOpenDevice
	} else {
		f |= identity.OpenDevice
	}
	if *testcase {
		f |= identity.LocationTestcase
	}
	if *checkOnly {
		f |= identity.CheckOnly
	}

	cfg := hardened.Config{
		Flags:   f,
		Records: protectedSet(),
		Argv:    os.Args,
		Envp:    os.Environ(),
	}
	cfg.LogDirsToBan = cfg.Records.Dirs()

	if f&identity.CheckOnly != 0 {
		os.Exit(runCheckOnly(cfg))
	}

	os.Exit(hardened.Run(hvos.Std{}, cfg))
}

// runCheckOnly implements SPEC_FULL.md §6 item 2: verify only, never
// open the driver or load anything, for use from packaging scripts.
func runCheckOnly(cfg hardened.Config) int {
	var argv0 string
	if len(os.Args) > 0 {
		argv0 = os.Args[0]
	}
	if err := verify.All(hvos.Std{}, cfg.Records, nil, argv0); err != nil {
		return 1
	}
	return 0
}

// protectedSet returns the closed table of protected-set entries
// this hvstub binary's installation is expected to carry. A real
// packaging pipeline would generate this from cmd/hvinstall's output
// rather than hard-coding it; see DESIGN.md.
func protectedSet() verify.Records {
	exe, err := os.Executable()
	if err != nil {
		return nil
	}
	dir := exe[:len(exe)-len(lastComponent(exe))]
	return verify.Records{
		{Path: exe, RequiredUID: 0, RequiredGID: 0},
		{Path: dir + "VBoxRT.so", RequiredUID: 0, RequiredGID: 0},
	}
}

func lastComponent(p string) string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return p[i+1:]
		}
	}
	return p
}
