package payload

import "unsafe"

func toCString(s string) (ptr *byte, free func()) {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return &b[0], func() {}
}

// toCArgv builds a NUL-terminated char* array, shared marshaling
// convention with internal/hv/runtime for the argv/envp pointers
// TrustedMain expects per spec.md §6.
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
