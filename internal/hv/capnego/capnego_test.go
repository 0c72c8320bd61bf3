package capnego

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hvlaunch.dev/hvlaunch/internal/hv/herr"
	"hvlaunch.dev/hvlaunch/internal/hv/hvos"
)

// TestNegotiateRejectsNonRoot covers S4: a caller whose effective uid
// is not 0 cannot negotiate anything, independent of platform.
func TestNegotiateRejectsNonRoot(t *testing.T) {
	f := hvos.NewFake()
	f.Euid = 1000

	_, err := Negotiate(f, 1000, 1000, Options{})
	require.Error(t, err)
	tag, ok := herr.As(err)
	require.True(t, ok)
	assert.Equal(t, herr.RootCheck, tag)
}

// TestNegotiateSkipsWhenRealUIDIsRoot: a process whose real uid is
// already 0 has nothing to drop, and Negotiate must report that rather
// than attempting the dance.
func TestNegotiateSkipsWhenRealUIDIsRoot(t *testing.T) {
	f := hvos.NewFake()
	f.Euid = 0

	res, err := Negotiate(f, 0, 0, Options{})
	require.NoError(t, err)
	assert.True(t, res.Skipped)
}

// TestResultAnyZero checks the helper behind the post-drop "no zero
// id" check: it flags a zero id in any of the six fields.
func TestResultAnyZero(t *testing.T) {
	clean := Result{RUID: 1000, EUID: 1000, SUID: 1000, RGID: 1000, EGID: 1000, SGID: 1000}
	assert.False(t, clean.AnyZero())

	for _, dirty := range []Result{
		{EUID: 0, RUID: 1000, SUID: 1000, RGID: 1000, EGID: 1000, SGID: 1000},
		{RGID: 0, RUID: 1000, EUID: 1000, SUID: 1000, EGID: 1000, SGID: 1000},
	} {
		assert.True(t, dirty.AnyZero())
	}
}

func TestOptionsFromEnv(t *testing.T) {
	f := hvos.NewFake()
	opts := OptionsFromEnv(f)
	assert.True(t, opts.NetRaw)
	assert.False(t, opts.NetBindService)

	f.Setenv("HARD_CAP_NET_RAW", "0")
	f.Setenv("HARD_CAP_NET_BIND_SERVICE", "1")
	opts = OptionsFromEnv(f)
	assert.False(t, opts.NetRaw)
	assert.True(t, opts.NetBindService)
}
