// Package hvlog implements the Log Channel (spec.md §4.3): a
// best-effort, append-only, size-capped diagnostic sink opened from
// --sup-hardening-log=PATH, plus an unprivileged console logger used
// by the rest of the repository's tooling.
package hvlog

import (
	"fmt"
	"os"
	"sync/atomic"

	"hvlaunch.dev/hvlaunch/internal/hv/hvos"
)

// Cap is the lifetime byte cap on content this process writes to the
// startup log, per spec.md §3 LogSink.
const Cap = 16 << 20 // 16 MiB

// Sink is the startup log. The zero value is not usable; construct one
// with Open. A nil *Sink is valid and silently discards every write,
// matching spec.md §4.3's "never gates progress" contract for the case
// where no --sup-hardening-log flag was given.
type Sink struct {
	f    hvos.File
	prog string
	pid  int

	written atomic.Int64

	volumeRoot string
}

// Open opens path for append and wraps it as a Sink. Per the Open
// Question resolution in SPEC_FULL.md §9, the file is never truncated:
// the byte counter starts at the file's pre-existing size, so the cap
// bounds what *this process* adds, not the file's total size.
//
// Per spec.md §4.3, failure to open is not fatal to the caller; Open
// returns the error and the caller proceeds with a nil Sink.
func Open(osi hvos.OS, path, prog string, pid int) (*Sink, error) {
	f, err := osi.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}
	s := &Sink{f: f, prog: prog, pid: pid, volumeRoot: volumeRoot(path)}
	if fi, err := f.Stat(); err == nil {
		s.written.Store(fi.Size())
	}
	return s, nil
}

// Printf writes a newline-terminated record prefixed with the program
// name and the pid given to Open, dropping it silently once the
// lifetime byte cap is reached. No thread identity is included.
func (s *Sink) Printf(format string, args ...any) {
	if s == nil || s.f == nil {
		return
	}
	if s.written.Load() >= Cap {
		return
	}
	line := fmt.Sprintf("%s[%d]: %s\n", s.prog, s.pid, fmt.Sprintf(format, args...))
	n, err := s.f.Write([]byte(line))
	if err != nil {
		return
	}
	s.written.Add(int64(n))
}

// Flush is best-effort: it syncs the file and, where feasible, the
// containing volume, so a subsequent crash does not lose recent
// entries. Errors are swallowed per spec.md §4.3.
func (s *Sink) Flush() {
	if s == nil || s.f == nil {
		return
	}
	_ = s.f.Sync()
	flushVolume(s.volumeRoot)
}

// ForbiddenDir reports whether path lies within any of dirs, used by
// callers (see SPEC_FULL.md §6 item 1) to reject a log path that would
// let an attacker use the log sink as a write oracle into a directory
// the Installation Verifier trusts.
func ForbiddenDir(path string, dirs []string) bool {
	for _, d := range dirs {
		if d == "" {
			continue
		}
		rel := path
		if len(rel) > len(d) && rel[:len(d)] == d && (rel[len(d)] == '/' || rel[len(d)] == '\\') {
			return true
		}
		if rel == d {
			return true
		}
	}
	return false
}
