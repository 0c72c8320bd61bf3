//go:build windows

package respawn

import (
	"unsafe"

	"golang.org/x/sys/windows"

	"hvlaunch.dev/hvlaunch/internal/hv/herr"
)

// NotApplicable is false on the desktop OS: the respawn controller is
// wired in, and package hardened's Windows build runs it.
const NotApplicable = false

// Rendezvous is the pair of inheritable events and small shared
// structure spec.md §4.4 places in an inherited mapping for parent and
// child to ping-pong through during purification.
type Rendezvous struct {
	EarlyInitSignaled windows.Handle // child -> parent: early_process_init reached, wait for purify
	Purified          windows.Handle // parent -> child: purification complete, proceed
}

// NewRendezvous creates the two inheritable, unnamed manual-reset
// events backing a Rendezvous.
func NewRendezvous() (*Rendezvous, error) {
	sa := &windows.SecurityAttributes{InheritHandle: 1}
	e1, err := windows.CreateEvent(sa, 1, 0, nil)
	if err != nil {
		return nil, herr.Wrap(herr.Misc, err, "cannot create early-init rendezvous event")
	}
	e2, err := windows.CreateEvent(sa, 1, 0, nil)
	if err != nil {
		windows.CloseHandle(e1)
		return nil, herr.Wrap(herr.Misc, err, "cannot create purified rendezvous event")
	}
	return &Rendezvous{EarlyInitSignaled: e1, Purified: e2}, nil
}

func (r *Rendezvous) Close() {
	windows.CloseHandle(r.EarlyInitSignaled)
	windows.CloseHandle(r.Purified)
}

// SpawnSuspended creates a suspended child from exePath with argv as
// its command line (callers pass argv already rewritten to carry the
// second-respawn sentinel). A non-zero token is used through
// CreateProcessAsUser; with token 0 the child gets the parent's token.
// The child inherits no handles.
func SpawnSuspended(exePath string, argv []string, token windows.Token) (*windows.ProcessInformation, error) {
	cmdLine, err := windows.UTF16PtrFromString(quoteArgv(argv))
	if err != nil {
		return nil, herr.Wrap(herr.Misc, err, "cannot encode child command line")
	}
	appName, err := windows.UTF16PtrFromString(exePath)
	if err != nil {
		return nil, herr.Wrap(herr.Misc, err, "cannot encode child image path")
	}

	si := new(windows.StartupInfo)
	pi := new(windows.ProcessInformation)

	var createErr error
	if token != 0 {
		createErr = windows.CreateProcessAsUser(
			token, appName, cmdLine, nil, nil, false,
			windows.CREATE_SUSPENDED, nil, nil, si, pi,
		)
	} else {
		createErr = windows.CreateProcess(
			appName, cmdLine, nil, nil, false,
			windows.CREATE_SUSPENDED, nil, nil, si, pi,
		)
	}
	if createErr != nil {
		return nil, herr.Wrap(herr.Misc, createErr, "CreateProcess(CREATE_SUSPENDED) failed")
	}
	return pi, nil
}

// InstallLoaderHook writes a short jump over the child's loader-init
// thunk at addr so the child's first instruction enters
// early_process_init inside its own image, saving the overwritten
// bytes for purification to restore.
func InstallLoaderHook(proc windows.Handle, addr uintptr, trampoline []byte) (saved []byte, err error) {
	saved = make([]byte, len(trampoline))
	var n uintptr
	if err := windows.ReadProcessMemory(proc, addr, &saved[0], uintptr(len(saved)), &n); err != nil {
		return nil, herr.Wrap(herr.Misc, err, "cannot read loader-init thunk bytes before hooking")
	}
	if err := windows.WriteProcessMemory(proc, addr, &trampoline[0], uintptr(len(trampoline)), &n); err != nil {
		return nil, herr.Wrap(herr.Misc, err, "cannot write loader-init hook")
	}
	return saved, nil
}

// RestoreLoaderHook writes saved back over addr, undoing
// InstallLoaderHook, during purification step 2 of spec.md §4.4.
func RestoreLoaderHook(proc windows.Handle, addr uintptr, saved []byte) error {
	var n uintptr
	if err := windows.WriteProcessMemory(proc, addr, &saved[0], uintptr(len(saved)), &n); err != nil {
		return herr.Wrap(herr.Misc, err, "cannot restore loader-init thunk bytes")
	}
	return nil
}

// FreeUnknownExecutableRegions enumerates the child's committed memory
// regions and decommits every executable one not covered by
// knownImageBases, per purification step 1.
func FreeUnknownExecutableRegions(proc windows.Handle, knownImageBases []uintptr) error {
	var addr uintptr
	for {
		var mbi windows.MemoryBasicInformation
		size := unsafe.Sizeof(mbi)
		n, err := windows.VirtualQueryEx(proc, addr, &mbi, size)
		if err != nil || n == 0 {
			break
		}

		isExecutable := mbi.Protect&(windows.PAGE_EXECUTE|windows.PAGE_EXECUTE_READ|
			windows.PAGE_EXECUTE_READWRITE|windows.PAGE_EXECUTE_WRITECOPY) != 0
		if mbi.State == windows.MEM_COMMIT && isExecutable && !coveredBy(mbi.BaseAddress, knownImageBases) {
			if err := windows.VirtualFreeEx(proc, mbi.BaseAddress, 0, windows.MEM_DECOMMIT); err != nil {
				return herr.Wrap(herr.Misc, err, "cannot free unknown executable region in child")
			}
		}

		next := mbi.BaseAddress + mbi.RegionSize
		if next <= addr {
			break
		}
		addr = next
	}
	return nil
}

func coveredBy(addr uintptr, bases []uintptr) bool {
	for _, b := range bases {
		if addr == b {
			return true
		}
	}
	return false
}

// CloseWriteHandles duplicates proc down to a terminate-only handle
// and closes the original, per the "parent closes every handle ...
// leaving only a terminate handle" step of spec.md §4.4.
func CloseWriteHandles(proc windows.Handle) (windows.Handle, error) {
	self := windows.CurrentProcess()
	var narrowed windows.Handle
	if err := windows.DuplicateHandle(self, proc, self, &narrowed, windows.PROCESS_TERMINATE, false, 0); err != nil {
		return 0, herr.Wrap(herr.Misc, err, "cannot narrow child handle to terminate-only")
	}
	windows.CloseHandle(proc)
	return narrowed, nil
}

func quoteArgv(argv []string) string {
	s := ""
	for i, a := range argv {
		if i > 0 {
			s += " "
		}
		s += `"` + a + `"`
	}
	return s
}
