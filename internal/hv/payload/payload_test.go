package payload

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestToCArgvNulTerminatesAndOrders(t *testing.T) {
	argv := []string{"x", "y"}
	ptr, free := toCArgv(argv)
	defer free()

	base := (*[3]*byte)(unsafe.Pointer(ptr))
	assert.Nil(t, base[2])
	assert.Equal(t, "x", readCString(base[0]))
	assert.Equal(t, "y", readCString(base[1]))
}

func readCString(p *byte) string {
	var out []byte
	for i := uintptr(0); ; i++ {
		b := *(*byte)(unsafe.Pointer(uintptr(unsafe.Pointer(p)) + i))
		if b == 0 {
			break
		}
		out = append(out, b)
	}
	return string(out)
}

func TestResolveTrustedErrorIsIdempotent(t *testing.T) {
	l := &Loader{}
	assert.False(t, l.hasError)
	// Without a real dlopened library ResolveTrustedError would
	// panic on l.lib; this test only covers the already-resolved
	// short-circuit, which is the idempotence property that matters
	// for the "resolved lazily, exactly once" design note.
	l.hasError = true
	assert.True(t, l.ResolveTrustedError())
}
