//go:build !linux && unix

package capnego

import (
	"syscall"

	"hvlaunch.dev/hvlaunch/internal/hv/herr"
)

// dropIDs performs the best-effort irrevocable privilege drop available
// outside Linux: setresuid/setresgid are not portable BSD/Darwin calls,
// so group is dropped before user (the reverse would leave the process
// unable to change its group).
func dropIDs(uid, gid int) error {
	if err := syscall.Setgid(gid); err != nil {
		return herr.Wrap(herr.RootCheck, err, "cannot set gid")
	}
	if err := syscall.Setuid(uid); err != nil {
		return herr.Wrap(herr.RootCheck, err, "cannot set uid")
	}
	return nil
}

func readBackIDs() (Result, error) {
	uid := syscall.Getuid()
	euid := syscall.Geteuid()
	gid := syscall.Getgid()
	egid := syscall.Getegid()
	return Result{
		RUID: uid, EUID: euid, SUID: euid,
		RGID: gid, EGID: egid, SGID: egid,
	}, nil
}
