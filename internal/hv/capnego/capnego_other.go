//go:build !linux && unix

package capnego

import (
	"hvlaunch.dev/hvlaunch/internal/hv/herr"
	"hvlaunch.dev/hvlaunch/internal/hv/hvos"
)

// negotiate on non-Linux unix platforms has no kernel capability API to
// narrow against, so it performs only the irrevocable uid/gid drop the
// spec requires and skips the capability-raise step entirely.
func negotiate(osi hvos.OS, realUID, realGID int, opts Options) (Result, error) {
	if err := dropIDs(realUID, realGID); err != nil {
		return Result{}, err
	}

	res, err := readBackIDs()
	if err != nil {
		return Result{}, err
	}
	if res.AnyZero() {
		return res, herr.New(herr.RootCheck, "privilege drop left a zero uid or gid in effect")
	}
	return res, nil
}
