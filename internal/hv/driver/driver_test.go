package driver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hvlaunch.dev/hvlaunch/internal/hv/herr"
)

func TestOpenWrapsClassifiedFailureAsDriverTag(t *testing.T) {
	// This platform's openDevice is exercised directly rather than
	// through Open when no device is wired, to keep the test
	// independent of any real device node.
	_, reason, err := openDevice()
	if err == nil {
		t.Skip("a support device is present on this platform; nothing to classify")
	}
	assert.NotEmpty(t, reason.String())

	wrapped := herr.Wrap(herr.Driver, err, reason.String())
	tag, ok := herr.As(wrapped)
	require.True(t, ok)
	assert.Equal(t, herr.Driver, tag)
	assert.True(t, errors.Is(wrapped, err))
}

func TestReasonStringCoversTaxonomy(t *testing.T) {
	reasons := []Reason{
		ReasonNotInstalled, ReasonNotAccessible, ReasonLoadError, ReasonOpenError,
		ReasonVersionMismatch, ReasonPermissionDenied, ReasonOutOfMemory,
		ReasonIntegrityViolation, ReasonOther,
	}
	seen := make(map[string]bool)
	for _, r := range reasons {
		s := r.String()
		assert.NotEmpty(t, s)
		assert.False(t, seen[s], "duplicate reason string %q", s)
		seen[s] = true
	}
}
