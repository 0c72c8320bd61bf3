//go:build !linux && !windows

package driver

import "errors"

// DevicePath is unset on platforms with no wired kernel support driver
// in this tree; opening always reports ReasonNotInstalled.
const DevicePath = ""

func openDevice() (Handle, Reason, error) {
	return nil, ReasonNotInstalled, errors.New("no support driver is wired for this platform")
}
