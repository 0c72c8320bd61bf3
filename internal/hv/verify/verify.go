package verify

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"hvlaunch.dev/hvlaunch/internal/hv/herr"
	"hvlaunch.dev/hvlaunch/internal/hv/hvos"
)

// disallowedWrite is the set of mode bits that must be clear on every
// protected path and ancestor directory: group-write and other-write.
const disallowedWrite = 0o022

// SignatureChecker verifies a code-signature chain, where the platform
// has one. The default is a no-op: no repository in the reference pack
// ships a code-signing verifier, so this stays an interface seam
// rather than a fabricated dependency (see DESIGN.md).
type SignatureChecker interface {
	Verify(osi hvos.OS, path string) error
}

type noSignatureChecker struct{}

func (noSignatureChecker) Verify(hvos.OS, string) error { return nil }

// NoSignatureChecker is the default SignatureChecker for platforms
// without a code-signing facility.
var NoSignatureChecker SignatureChecker = noSignatureChecker{}

// All implements verify_all(fatal, prog_name, exe_path, flags) from
// spec.md §4.2. argv0 is checked for protected-set membership per the
// "file mentioned in argv[0]" edge case. Every returned error is
// wrapped with herr.Integrity.
func All(osi hvos.OS, records Records, checker SignatureChecker, argv0 string) error {
	if checker == nil {
		checker = NoSignatureChecker
	}

	sorted := make(Records, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	protected := sorted.Paths()
	if argv0 != "" {
		if _, ok := protected[argv0]; !ok {
			return herr.New(herr.Integrity, fmt.Sprintf("%q is not a member of the protected set", argv0))
		}
	}

	checkedDirs := make(map[string]struct{})

	for _, r := range sorted {
		if err := verifyOne(osi, r, checker, checkedDirs); err != nil {
			return err
		}
	}
	return nil
}

func verifyOne(osi hvos.OS, r Record, checker SignatureChecker, checkedDirs map[string]struct{}) error {
	uid, gid, mode, err := osi.Owner(r.Path)
	if err != nil {
		return herr.Wrap(herr.Integrity, err, "cannot stat protected file "+r.Path)
	}
	if uid != r.RequiredUID || gid != r.RequiredGID {
		return herr.New(herr.Integrity, fmt.Sprintf(
			"%s not owned by uid %d / gid %d (got %d/%d)", r.Path, r.RequiredUID, r.RequiredGID, uid, gid))
	}
	if mode.Perm()&disallowedWrite != 0 {
		return herr.New(herr.Integrity, fmt.Sprintf(
			"%s has group/other write permission (mode %04o)", r.Path, mode.Perm()))
	}

	for _, dir := range ancestors(r.Path) {
		if _, ok := checkedDirs[dir]; ok {
			continue
		}
		if err := verifyAncestorDir(osi, dir, r.RequiredUID); err != nil {
			return err
		}
		checkedDirs[dir] = struct{}{}
		if onMountBoundary(dir) {
			// spec.md §4.2: refuse to traverse past a mount point
			// whose parent is writable by non-superusers. The
			// boundary check itself already verified this directory;
			// check its parent, then stop walking further up.
			if parent := filepath.Dir(dir); parent != dir {
				if err := verifyAncestorDir(osi, parent, r.RequiredUID); err != nil {
					return err
				}
			}
			break
		}
	}

	if r.RequireSignature {
		if err := checker.Verify(osi, r.Path); err != nil {
			return herr.Wrap(herr.Integrity, err, "signature chain invalid for "+r.Path)
		}
	}

	return nil
}

func verifyAncestorDir(osi hvos.OS, dir string, requiredUID int) error {
	uid, _, mode, err := osi.Owner(dir)
	if err != nil {
		if fsErr, ok := err.(*fs.PathError); ok && fsErr.Err == fs.ErrNotExist {
			return herr.Wrap(herr.Integrity, err, "protected ancestor directory missing: "+dir)
		}
		return herr.Wrap(herr.Integrity, err, "cannot stat ancestor directory "+dir)
	}
	if uid != requiredUID {
		return herr.New(herr.Integrity, fmt.Sprintf(
			"ancestor directory %s not owned by uid %d (got %d)", dir, requiredUID, uid))
	}
	if mode.Perm()&disallowedWrite != 0 {
		return herr.New(herr.Integrity, fmt.Sprintf(
			"ancestor directory %s has group/other write permission (mode %04o)", dir, mode.Perm()))
	}
	return nil
}

// ancestors lists dir, the immediate parent of p, through the
// filesystem root, nearest first.
func ancestors(p string) []string {
	dir := filepath.Dir(p)
	out := make([]string, 0, 8)
	for {
		out = append(out, dir)
		parent := filepath.Dir(dir)
		if parent == dir {
			return out
		}
		dir = parent
	}
}

func dirOf(p string) string { return filepath.Dir(p) }
