package verify

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hvlaunch.dev/hvlaunch/internal/hv/herr"
	"hvlaunch.dev/hvlaunch/internal/hv/hvos"
)

func cleanInstall() *hvos.Fake {
	f := hvos.NewFake()
	f.Dir("/", 0, 0, 0o755)
	f.Dir("/opt", 0, 0, 0o755)
	f.Dir("/opt/app", 0, 0, 0o755)
	f.Dir("/opt/app/bin", 0, 0, 0o755)
	f.Reg("/opt/app/bin/VBoxRT.so", 0, 0, 0o755, []byte("rt"))
	f.Reg("/opt/app/bin/VBoxSDL", 0, 0, 0o755, []byte("stub"))
	return f
}

func recordsFor() Records {
	return Records{
		{Path: "/opt/app/bin/VBoxRT.so", RequiredUID: 0, RequiredGID: 0},
		{Path: "/opt/app/bin/VBoxSDL", RequiredUID: 0, RequiredGID: 0},
	}
}

// TestAllPassesOnCleanInstall covers testable property 5's positive
// half: on a clean installation the verifier succeeds.
func TestAllPassesOnCleanInstall(t *testing.T) {
	f := cleanInstall()
	err := All(f, recordsFor(), nil, "/opt/app/bin/VBoxSDL")
	require.NoError(t, err)
}

// TestAllFailsOnWidenedFilePermission covers testable property 5's
// negative half: modifying a protected file's mode to include
// group/other write is a fatal Integrity error.
func TestAllFailsOnWidenedFilePermission(t *testing.T) {
	f := cleanInstall()
	f.Files["/opt/app/bin/VBoxRT.so"].Mode = fs.FileMode(0o664)

	err := All(f, recordsFor(), nil, "")
	require.Error(t, err)
	tag, ok := herr.As(err)
	require.True(t, ok)
	assert.Equal(t, herr.Integrity, tag)
}

func TestAllFailsOnWrongOwner(t *testing.T) {
	f := cleanInstall()
	f.Files["/opt/app/bin/VBoxRT.so"].Uid = 1000

	err := All(f, recordsFor(), nil, "")
	require.Error(t, err)
	tag, _ := herr.As(err)
	assert.Equal(t, herr.Integrity, tag)
}

// TestAllFailsOnWidenedAncestorPermission covers the ancestor-directory
// half of property 5.
func TestAllFailsOnWidenedAncestorPermission(t *testing.T) {
	f := cleanInstall()
	f.Files["/opt/app/bin"].Mode = fs.ModeDir | 0o777

	err := All(f, recordsFor(), nil, "")
	require.Error(t, err)
	tag, _ := herr.As(err)
	assert.Equal(t, herr.Integrity, tag)
}

// TestAllFailsOnArgv0OutsideProtectedSet covers spec.md §4.2's edge
// case: a file named in argv[0] that isn't in the protected set is
// fatal, independent of file-level checks.
func TestAllFailsOnArgv0OutsideProtectedSet(t *testing.T) {
	f := cleanInstall()
	err := All(f, recordsFor(), nil, "/opt/app/bin/not-protected")
	require.Error(t, err)
	tag, _ := herr.As(err)
	assert.Equal(t, herr.Integrity, tag)
}

func TestAllFollowsSymlinkedAncestor(t *testing.T) {
	f := cleanInstall()
	f.Symlink("/opt/real", "/opt/app")
	f.Reg("/opt/real/bin/VBoxRT.so", 0, 0, 0o755, []byte("rt"))

	records := Records{{Path: "/opt/real/bin/VBoxRT.so", RequiredUID: 0, RequiredGID: 0}}
	// The symlinked ancestor itself must still resolve to a
	// non-writable directory for verification to pass.
	f.Dir("/opt/real/bin", 0, 0, 0o755)
	err := All(f, records, nil, "")
	require.NoError(t, err)
}
