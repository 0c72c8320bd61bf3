//go:build linux

package driver

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// DevicePath is the kernel support device node opened by the stub.
const DevicePath = "/dev/hvlaunch"

type fdHandle struct {
	fd int
}

func (h fdHandle) Close() error {
	return unix.Close(h.fd)
}

// openDevice issues the single blocking open(2) call spec.md §4.5
// describes, classifying errno into the fixed taxonomy.
func openDevice() (Handle, Reason, error) {
	fd, err := unix.Open(DevicePath, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err == nil {
		return fdHandle{fd: fd}, ReasonOther, nil
	}

	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, ReasonNotInstalled, err
	case errors.Is(err, os.ErrPermission):
		return nil, ReasonPermissionDenied, err
	case err == unix.EBUSY, err == unix.EACCES:
		return nil, ReasonNotAccessible, err
	case err == unix.ENOMEM, err == unix.ENOBUFS:
		return nil, ReasonOutOfMemory, err
	case err == unix.ENXIO, err == unix.ENODEV:
		return nil, ReasonLoadError, err
	default:
		return nil, ReasonOpenError, err
	}
}
