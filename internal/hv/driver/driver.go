// Package driver implements the Driver Opener (spec.md §4.5): a single
// call to the platform device-open primitive, with the result
// translated into the fixed failure taxonomy the core reports on.
package driver

import "hvlaunch.dev/hvlaunch/internal/hv/herr"

// Reason classifies why opening the support device failed, mirroring
// the closed taxonomy in spec.md §4.5. ReasonOther carries the raw
// platform error code unclassified.
type Reason int

const (
	ReasonOther Reason = iota
	ReasonNotInstalled
	ReasonNotAccessible
	ReasonLoadError
	ReasonOpenError
	ReasonVersionMismatch
	ReasonPermissionDenied
	ReasonOutOfMemory
	ReasonIntegrityViolation
)

func (r Reason) String() string {
	switch r {
	case ReasonNotInstalled:
		return "driver not installed"
	case ReasonNotAccessible:
		return "driver not accessible"
	case ReasonLoadError:
		return "driver load error"
	case ReasonOpenError:
		return "driver open error"
	case ReasonVersionMismatch:
		return "driver version mismatch"
	case ReasonPermissionDenied:
		return "permission denied"
	case ReasonOutOfMemory:
		return "out of memory"
	case ReasonIntegrityViolation:
		return "integrity violation"
	default:
		return "other driver error"
	}
}

// Handle is the single-owner device handle spec.md §3 invariants refer
// to. It is an opaque platform-specific value behind a uniform Close.
type Handle interface {
	Close() error
}

// Open opens the platform support device node and classifies any
// failure into the fixed Reason taxonomy, wrapped as a herr.Driver
// error. A nil Handle and nil error is never returned together.
func Open() (Handle, error) {
	h, reason, rawErr := openDevice()
	if rawErr == nil {
		return h, nil
	}
	return nil, herr.Wrap(herr.Driver, rawErr, reason.String())
}
