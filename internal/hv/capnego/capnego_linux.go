//go:build linux

package capnego

import (
	"syscall"

	"github.com/syndtr/gocapability/capability"
	"golang.org/x/sys/unix"

	"hvlaunch.dev/hvlaunch/internal/hv/herr"
	"hvlaunch.dev/hvlaunch/internal/hv/hvos"
)

// negotiate is the Linux kernel-capability-API branch of spec.md §4.6.
func negotiate(osi hvos.OS, realUID, realGID int, opts Options) (Result, error) {
	wanted := wantedCaps(opts)

	if err := raise(wanted); err != nil {
		return Result{}, err
	}

	if err := drop(realUID, realGID); err != nil {
		return Result{}, err
	}

	res, err := readBack()
	if err != nil {
		return Result{}, err
	}
	if res.AnyZero() {
		return res, herr.New(herr.RootCheck, "privilege drop left a zero uid or gid in effect")
	}

	// the uid change cleared the ambient set; re-assert it now that
	// the process is running as the target unprivileged user.
	if err := reassertAmbient(wanted); err != nil {
		return res, herr.Wrap(herr.RootCheck, err, "cannot re-assert ambient capabilities after privilege drop")
	}

	return res, nil
}

func wantedCaps(opts Options) []capability.Cap {
	var caps []capability.Cap
	if opts.NetRaw {
		caps = append(caps, capability.CAP_NET_RAW)
	}
	if opts.NetBindService {
		caps = append(caps, capability.CAP_NET_BIND_SERVICE)
	}
	return caps
}

// raise narrows the permitted/effective/inheritable capability sets to
// exactly wanted while the process is still fully privileged, per
// spec.md §4.6's ordering requirement.
func raise(wanted []capability.Cap) error {
	caps, err := capability.NewPid2(0)
	if err != nil {
		return herr.Wrap(herr.RootCheck, err, "cannot open capability state")
	}
	if err := caps.Load(); err != nil {
		return herr.Wrap(herr.RootCheck, err, "cannot load capability state")
	}

	caps.Clear(capability.CAPS | capability.BOUNDS | capability.AMBIENT)
	caps.Set(capability.PERMITTED|capability.INHERITABLE|capability.EFFECTIVE, wanted...)
	caps.Set(capability.BOUNDS, wanted...)

	if err := caps.Apply(capability.CAPS | capability.BOUNDS); err != nil {
		return herr.Wrap(herr.RootCheck, err, "cannot apply narrowed capability set")
	}
	return nil
}

// drop performs the irrevocable setresuid/setresgid change and sets
// PR_SET_NO_NEW_PRIVS, grounded on the teacher's cmd/fsu/main.go.
func drop(uid, gid int) error {
	if err := unix.Setresgid(gid, gid, gid); err != nil {
		return herr.Wrap(herr.RootCheck, err, "cannot set gid")
	}
	if err := unix.Setresuid(uid, uid, uid); err != nil {
		return herr.Wrap(herr.RootCheck, err, "cannot set uid")
	}
	if _, _, errno := syscall.AllThreadsSyscall(syscall.SYS_PRCTL, unix.PR_SET_NO_NEW_PRIVS, 1, 0); errno != 0 {
		return herr.Wrap(herr.RootCheck, errno, "cannot set no_new_privs")
	}
	return nil
}

func readBack() (Result, error) {
	ruid, euid, suid := unix.Getresuid()
	rgid, egid, sgid := unix.Getresgid()
	return Result{RUID: ruid, EUID: euid, SUID: suid, RGID: rgid, EGID: egid, SGID: sgid}, nil
}

// reassertAmbient restores the ambient capability set the uid change
// cleared, via PR_CAP_AMBIENT, so the narrowed capabilities remain
// usable by the unprivileged process going forward.
func reassertAmbient(wanted []capability.Cap) error {
	for _, c := range wanted {
		if _, _, errno := syscall.AllThreadsSyscall6(
			syscall.SYS_PRCTL, unix.PR_CAP_AMBIENT, unix.PR_CAP_AMBIENT_RAISE, uintptr(c), 0, 0, 0,
		); errno != 0 {
			return errno
		}
	}
	return nil
}
