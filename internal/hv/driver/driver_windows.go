//go:build windows

package driver

import (
	"errors"

	"golang.org/x/sys/windows"
)

// DevicePath is the Win32 device namespace path of the kernel support
// driver's symbolic link, opened once by Open. No separate "stub"
// device is opened.
const DevicePath = `\\.\HVLaunch`

type winHandle struct {
	h windows.Handle
}

func (w winHandle) Close() error {
	return windows.CloseHandle(w.h)
}

func openDevice() (Handle, Reason, error) {
	path, err := windows.UTF16PtrFromString(DevicePath)
	if err != nil {
		return nil, ReasonOpenError, err
	}

	h, err := windows.CreateFile(
		path,
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		0,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_ATTRIBUTE_NORMAL,
		0,
	)
	if err == nil {
		return winHandle{h: h}, ReasonOther, nil
	}

	switch {
	case errors.Is(err, windows.ERROR_FILE_NOT_FOUND), errors.Is(err, windows.ERROR_PATH_NOT_FOUND):
		return nil, ReasonNotInstalled, err
	case errors.Is(err, windows.ERROR_ACCESS_DENIED):
		return nil, ReasonPermissionDenied, err
	case errors.Is(err, windows.ERROR_SHARING_VIOLATION), errors.Is(err, windows.ERROR_BUSY):
		return nil, ReasonNotAccessible, err
	case errors.Is(err, windows.ERROR_NOT_ENOUGH_MEMORY), errors.Is(err, windows.ERROR_OUTOFMEMORY):
		return nil, ReasonOutOfMemory, err
	case errors.Is(err, windows.ERROR_REVISION_MISMATCH):
		return nil, ReasonVersionMismatch, err
	default:
		return nil, ReasonOpenError, err
	}
}
