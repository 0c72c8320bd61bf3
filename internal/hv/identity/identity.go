// Package identity implements the Bootstrap component (spec.md §4.1):
// capturing the process's own identity before any privilege change.
package identity

import (
	"path/filepath"

	"hvlaunch.dev/hvlaunch/internal/hv/herr"
	"hvlaunch.dev/hvlaunch/internal/hv/hvos"
)

// Flags is the small bitfield of recognized caller options, per
// spec.md §3.
type Flags uint32

const (
	OpenDevice Flags = 1 << iota
	DontOpenDevice
	HasTrustedError
	LocationTestcase
	DarwinVMApp
	CheckOnly // SPEC_FULL.md §6 item 2
)

// Location reports which app-bin-directory derivation rule applies.
type Location int

const (
	LocationAppBin Location = iota
	LocationTest
)

func (f Flags) Location() Location {
	if f&LocationTestcase != 0 {
		return LocationTest
	}
	return LocationAppBin
}

// Identity is the immutable, process-wide ProcessIdentity of spec.md
// §3. It is created once by Bootstrap and never mutated afterward.
type Identity struct {
	ExePath   string
	AppBinDir string
	ProgName  string
	Flags     Flags

	// UNIX only; zero on platforms without a UID/GID model.
	RealUID, RealGID int

	// ExtraCaps names the capability mask requested by the caller
	// beyond the negotiator's default (raw ICMP). UNIX only.
	ExtraCaps uint64
}

// Bootstrap resolves the process's own executable path via the
// platform's most authoritative mechanism, derives the app-bin
// directory, and snapshots the real UID/GID before anything else in
// the pipeline runs.
func Bootstrap(osi hvos.OS, flags Flags) (*Identity, error) {
	exe, err := osi.Executable()
	if err != nil {
		return nil, herr.Wrap(herr.Misc, err, "cannot resolve own executable path")
	}
	if exe == "" {
		return nil, herr.New(herr.Misc, "resolved executable path is empty")
	}

	dir := filepath.Dir(exe)
	if flags.Location() == LocationTest {
		dir = filepath.Dir(dir)
	}

	id := &Identity{
		ExePath:   exe,
		AppBinDir: dir,
		ProgName:  progName(exe),
		Flags:     flags,
		RealUID:   osi.Getuid(),
		RealGID:   osi.Getgid(),
	}
	return id, nil
}

func progName(exe string) string {
	base := filepath.Base(exe)
	return base
}
