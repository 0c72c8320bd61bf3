package hvlog

import (
	"bytes"
	"errors"
	"io"
	"sync"
)

// Suspendable wraps an io.Writer that can be temporarily paused:
// writes made while suspended are buffered instead of dropped, and
// flushed on Resume. This is an unprivileged console-logging
// primitive, grounded on the teacher's internal/hlog.Suspendable; no
// command in this repository uses it yet (cmd/hvinstall logs through
// the standard log package).
type Suspendable struct {
	Downstream io.Writer

	mu        sync.Mutex
	suspended bool
	buf       bytes.Buffer
}

var errClosedForWrite = errors.New("hvlog: suspendable writer is closed")

func (s *Suspendable) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.suspended {
		return s.buf.Write(p)
	}
	if s.Downstream == nil {
		return 0, errClosedForWrite
	}
	return s.Downstream.Write(p)
}

// Suspend pauses direct writes; it reports whether it changed state.
func (s *Suspendable) Suspend() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.suspended {
		return false
	}
	s.suspended = true
	return true
}

// Resume un-pauses direct writes and flushes anything buffered while
// suspended. It reports whether it changed state, how many buffered
// bytes could not be flushed (0 unless Downstream is nil, in which case
// it is the whole buffer, left in place, and err is set), and any error
// flushing the buffer.
func (s *Suspendable) Resume() (resumed bool, dropped int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.suspended {
		return false, 0, nil
	}
	s.suspended = false
	if s.buf.Len() == 0 {
		return true, 0, nil
	}
	if s.Downstream == nil {
		return true, s.buf.Len(), errClosedForWrite
	}
	_, err = s.Downstream.Write(s.buf.Bytes())
	s.buf.Reset()
	return true, 0, err
}
