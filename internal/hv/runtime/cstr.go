package runtime

import "unsafe"

// toCString allocates a NUL-terminated byte buffer for s and returns a
// pointer to its first byte along with a no-op free (Go's GC owns the
// buffer; free exists so call sites read the same regardless of which
// marshaling strategy is in use).
func toCString(s string) (ptr *byte, free func()) {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return &b[0], func() {}
}

// toCArgv builds a NUL-terminated char* array for argv, matching the
// argv/argc convention init_runtime_ex and TrustedMain expect per
// spec.md §6. Every element outlives the call through the returned
// closure capturing the backing slices.
func toCArgv(argv []string) (**byte, func()) {
	ptrs := make([]*byte, len(argv)+1)
	keep := make([][]byte, len(argv))
	for i, a := range argv {
		b := make([]byte, len(a)+1)
		copy(b, a)
		keep[i] = b
		ptrs[i] = &b[0]
	}
	ptrs[len(argv)] = nil
	return (**byte)(unsafe.Pointer(&ptrs[0])), func() { _ = keep }
}
