package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hvlaunch.dev/hvlaunch/internal/hv/hvos"
)

func TestBootstrapAppBin(t *testing.T) {
	f := hvos.NewFake()
	f.ExecutablePath = "/opt/app/bin/VBoxSDL"
	f.Uid, f.Gid = 1000, 1000

	id, err := Bootstrap(f, OpenDevice)
	require.NoError(t, err)
	assert.Equal(t, "/opt/app/bin", id.AppBinDir)
	assert.Equal(t, "VBoxSDL", id.ProgName)
	assert.Equal(t, 1000, id.RealUID)
	assert.Equal(t, LocationAppBin, id.Flags.Location())
}

func TestBootstrapTestcase(t *testing.T) {
	f := hvos.NewFake()
	f.ExecutablePath = "/opt/app/bin/testcase/tstFoo"

	id, err := Bootstrap(f, DontOpenDevice|LocationTestcase)
	require.NoError(t, err)
	assert.Equal(t, "/opt/app/bin", id.AppBinDir)
	assert.Equal(t, LocationTest, id.Flags.Location())
}

func TestBootstrapFailsOnEmptyPath(t *testing.T) {
	f := hvos.NewFake()
	f.ExecutablePath = ""

	_, err := Bootstrap(f, 0)
	require.Error(t, err)
}
