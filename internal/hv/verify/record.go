// Package verify implements the Installation Verifier (spec.md §4.2):
// walking a known protected set of files and their ancestor
// directories, checking ownership, permissions, and, where supported,
// code signatures.
package verify

// Record is one VerificationRecord of spec.md §3: an absolute path,
// its required owner, and an optional signature expectation. It
// carries no per-file mode bits; All applies the same fixed
// no-group/other-write rule to every record.
type Record struct {
	Path string

	RequiredUID int
	RequiredGID int

	// RequireSignature requests a code-signature chain check on
	// platforms with a signing facility; ignored elsewhere.
	RequireSignature bool
}

// Records is the process-wide, read-only-after-construction protected
// set. Callers build this once (see cmd/hvinstall) from the packaging
// step's knowledge of what the installation contains.
type Records []Record

// Paths returns just the path field of every record, for callers that
// need to check argv[0] membership (spec.md §4.2, "a file mentioned in
// argv[0] that is not in the protected set is a fatal error").
func (rs Records) Paths() map[string]struct{} {
	out := make(map[string]struct{}, len(rs))
	for _, r := range rs {
		out[r.Path] = struct{}{}
	}
	return out
}

// Dirs returns the distinct directories containing protected files,
// used by hvlog to refuse a log path inside the protected tree
// (SPEC_FULL.md §6 item 1).
func (rs Records) Dirs() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range rs {
		d := dirOf(r.Path)
		if _, ok := seen[d]; !ok {
			seen[d] = struct{}{}
			out = append(out, d)
		}
	}
	return out
}
