package hardened

import (
	"os"
	"os/exec"
	"strings"
	"testing"

	"hvlaunch.dev/hvlaunch/internal/hv/herr"
	"hvlaunch.dev/hvlaunch/internal/hv/hvlog"
	"hvlaunch.dev/hvlaunch/internal/hv/hvos"
	"hvlaunch.dev/hvlaunch/internal/hv/identity"
	"hvlaunch.dev/hvlaunch/internal/hv/state"
	"hvlaunch.dev/hvlaunch/internal/hv/verify"
)

// These tests simulate scenarios S1 and S2 of spec.md §8 at the logic
// level: the Bootstrap/Log/Verify segment of Run against a fake
// hvos.OS, stopping short of the driver/runtime/payload stages since
// those dlopen real shared objects that only the cmd/hvruntime-fake
// and cmd/hvpayload-fake integration doubles can stand in for.
// Scenario S5 (Windows respawn) is exercised by respawn's own test
// file, where the Controller's callback seams make it independently
// testable without real Windows primitives.

func fakeWithProtectedSet() (*hvos.Fake, verify.Records) {
	osi := hvos.NewFake()
	osi.Euid = 0
	osi.Uid, osi.Gid = 1000, 1000

	osi.Dir("/", 0, 0, 0755)
	osi.Dir("/opt", 0, 0, 0755)
	osi.Dir("/opt/app", 0, 0, 0755)
	osi.Dir("/opt/app/bin", 0, 0, 0755)
	osi.Reg("/opt/app/bin/VBoxSDL", 0, 0, 0755, []byte("stub"))
	osi.Reg("/opt/app/bin/VBoxRT.so", 0, 0, 0755, []byte("rt"))
	osi.Reg("/opt/app/bin/VBoxSDL.so", 0, 0, 0755, []byte("payload"))

	records := verify.Records{
		{Path: "/opt/app/bin/VBoxSDL", RequiredUID: 0, RequiredGID: 0},
		{Path: "/opt/app/bin/VBoxRT.so", RequiredUID: 0, RequiredGID: 0},
		{Path: "/opt/app/bin/VBoxSDL.so", RequiredUID: 0, RequiredGID: 0},
	}
	return osi, records
}

// TestScenarioS1BootstrapAndVerify exercises S1's argv/flags against
// Bootstrap and the Installation Verifier: a clean installation with
// OPEN_DEVICE|LOCATION=APP_BIN passes verification and derives the
// app-bin directory and program name the later T/P stages would use
// to build /opt/app/bin/VBoxRT.so and /opt/app/bin/VBoxSDL.so.
func TestScenarioS1BootstrapAndVerify(t *testing.T) {
	osi, records := fakeWithProtectedSet()
	osi.ExecutablePath = "/opt/app/bin/VBoxSDL"

	id, err := identity.Bootstrap(osi, identity.OpenDevice)
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if id.AppBinDir != "/opt/app/bin" {
		t.Fatalf("AppBinDir = %q, want /opt/app/bin", id.AppBinDir)
	}
	if id.ProgName != "VBoxSDL" {
		t.Fatalf("ProgName = %q, want VBoxSDL", id.ProgName)
	}
	if id.Flags&identity.DontOpenDevice != 0 {
		t.Fatal("DontOpenDevice set, want driver open path taken")
	}

	argv := []string{"/opt/app/bin/VBoxSDL", "--startvm", "uuid"}
	if err := verify.All(osi, records, nil, argv[0]); err != nil {
		t.Fatalf("verify.All: %v", err)
	}
}

// TestScenarioS2LogFlagAndArgvRewrite exercises S2's log-flag
// round-trip (testable property 2) and confirms the device is never
// opened when DONT_OPEN_DEVICE is set.
func TestScenarioS2LogFlagAndArgvRewrite(t *testing.T) {
	osi, _ := fakeWithProtectedSet()
	osi.ExecutablePath = "/opt/app/bin/testcase/tstFoo"
	osi.Dir("/opt/app/bin/testcase", 0, 0, 0755)
	osi.Reg("/opt/app/bin/testcase/tstFoo", 0, 0, 0755, []byte("stub"))

	id, err := identity.Bootstrap(osi, identity.DontOpenDevice|identity.LocationTestcase)
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if id.Flags&identity.DontOpenDevice == 0 {
		t.Fatal("DontOpenDevice clear, want driver open skipped")
	}
	if id.Flags.Location() != identity.LocationTest {
		t.Fatalf("Location = %v, want LocationTest", id.Flags.Location())
	}

	argv := []string{"/opt/app/bin/tstFoo", "--sup-hardening-log=/tmp/h.log", "x"}
	rest, path := extractLogFlag(argv)

	if path != "/tmp/h.log" {
		t.Fatalf("extracted path = %q, want /tmp/h.log", path)
	}
	want := []string{"/opt/app/bin/tstFoo", "x"}
	if len(rest) != len(want) {
		t.Fatalf("rest = %v, want %v", rest, want)
	}
	for i := range want {
		if rest[i] != want[i] {
			t.Fatalf("rest[%d] = %q, want %q", i, rest[i], want[i])
		}
	}
}

// TestScenarioS2LogWritesStartupDiagnostic confirms a sink opened the
// way Run opens one produces at least one line carrying the
// diagnostic tag S2 expects in /tmp/h.log.
func TestScenarioS2LogWritesStartupDiagnostic(t *testing.T) {
	osi := hvos.NewFake()
	sink, err := hvlog.Open(osi, "/tmp/h.log", "tstFoo", 4242)
	if err != nil {
		t.Fatalf("hvlog.Open: %v", err)
	}
	sink.Printf("VBoxRT g_hStartupLog: runtime initialized")
	sink.Flush()

	got := osi.Written("/tmp/h.log")
	if got == "" {
		t.Fatal("nothing written to /tmp/h.log")
	}
	if !strings.Contains(got, "VBoxRT g_hStartupLog") {
		t.Fatalf("log content %q missing startup diagnostic tag", got)
	}
}

// TestLogPathInsideProtectedSetIsForbidden guards the SPEC_FULL.md §6
// item 1 write-oracle rule Run enforces before opening the log sink.
func TestLogPathInsideProtectedSetIsForbidden(t *testing.T) {
	dirs := verify.Records{
		{Path: "/opt/app/bin/VBoxSDL"},
		{Path: "/opt/app/bin/VBoxRT.so"},
	}.Dirs()

	if !hvlog.ForbiddenDir("/opt/app/bin/evil.log", dirs) {
		t.Fatal("expected a log path inside the protected directory to be forbidden")
	}
	if hvlog.ForbiddenDir("/tmp/h.log", dirs) {
		t.Fatal("expected /tmp/h.log to be allowed")
	}
}

// TestStateAdvanceSequenceMatchesRunOrder replays the exact Advance
// call sequence Run performs on the success path and checks property
// 4 of spec.md §8: the sequence is strictly increasing.
func TestStateAdvanceSequenceMatchesRunOrder(t *testing.T) {
	st := new(state.Holder)
	sequence := []state.Marker{
		state.HardenedMainCalled,
		state.WinImportsResolved,
		state.InitRuntime,
		state.GetTrustedMain,
		state.CalledTrustedMain,
	}

	prev := state.NotYetCalled
	for _, m := range sequence {
		if m <= prev {
			t.Fatalf("sequence not strictly increasing at %s after %s", m, prev)
		}
		st.Advance(m)
		prev = m
	}
	if st.Load() != state.CalledTrustedMain {
		t.Fatalf("final state = %s, want CalledTrustedMain", st.Load())
	}
}

// TestFatalTrustedErrorGating re-execs this test binary to observe
// herr.Reporter.Fatal's real behavior (it terminates via os.Exit, so
// it cannot run in-process): step 3 of spec.md §7 must only invoke
// TrustedError once the StateMarker has reached WIN_IMPORTS_RESOLVED.
func TestFatalTrustedErrorGating(t *testing.T) {
	for _, tc := range []struct {
		name        string
		reachedMark bool
		wantInvoked bool
	}{
		{"beforeWinImportsResolved", false, false},
		{"afterWinImportsResolved", true, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			out, exitCode := runFatalHelper(t, tc.reachedMark)
			if exitCode != 1 {
				t.Fatalf("helper exit code = %d, want 1; output: %s", exitCode, out)
			}
			if !strings.Contains(out, "boom") {
				t.Fatalf("expected stderr to contain the error message, got: %s", out)
			}
			gotInvoked := strings.Contains(out, "TRUSTED_ERROR_INVOKED")
			if gotInvoked != tc.wantInvoked {
				t.Fatalf("TrustedError invoked = %v, want %v; output: %s", gotInvoked, tc.wantInvoked, out)
			}
		})
	}
}

const fatalHelperEnv = "HVLAUNCH_TEST_FATAL_HELPER"

// TestFatalHelperProcess is not a real test; it is re-exec'd by
// runFatalHelper with fatalHelperEnv set, following the standard
// Go idiom for exercising an os.Exit code path from a test binary.
func TestFatalHelperProcess(t *testing.T) {
	mode := os.Getenv(fatalHelperEnv)
	if mode == "" {
		return
	}

	st := new(state.Holder)
	st.Advance(state.HardenedMainCalled)
	if mode == "after" {
		st.Advance(state.WinImportsResolved)
	}

	r := &herr.Reporter{
		Prog:  "hvstub",
		State: st,
		InvokeTrustedError: func(herr.Tag, int, string) {
			os.Stdout.WriteString("TRUSTED_ERROR_INVOKED\n")
		},
	}
	r.Fatal(herr.New(herr.Misc, "boom"))
}

func runFatalHelper(t *testing.T, reachedMark bool) (output string, exitCode int) {
	t.Helper()
	mode := "before"
	if reachedMark {
		mode = "after"
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestFatalHelperProcess")
	cmd.Env = append(os.Environ(), fatalHelperEnv+"="+mode)
	out, err := cmd.CombinedOutput()

	exitCode = 0
	if exitErr, ok := err.(*exec.ExitError); ok {
		exitCode = exitErr.ExitCode()
	} else if err != nil {
		t.Fatalf("failed to run helper process: %v", err)
	}
	return string(out), exitCode
}
