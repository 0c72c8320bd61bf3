// Package herr implements the fixed error taxonomy of spec.md §7 and
// the fatal-exit propagation policy that surrounds it.
package herr

import "fmt"

// Tag is one of the five fixed-string error categories of spec.md §7.
type Tag string

const (
	Driver    Tag = "Driver"
	IPRT      Tag = "IPRT"
	Integrity Tag = "Integrity"
	RootCheck Tag = "RootCheck"
	Misc      Tag = "Misc"
)

// Error is a tagged, wrappable error. The core never recovers from one
// of these; every Error reaching HardenedMain's top level is fatal.
type Error struct {
	Tag     Tag
	Message string
	Inner   error
}

func (e *Error) Error() string {
	if e.Inner != nil {
		return fmt.Sprintf("%s: %s: %v", e.Tag, e.Message, e.Inner)
	}
	return fmt.Sprintf("%s: %s", e.Tag, e.Message)
}

func (e *Error) Unwrap() error { return e.Inner }

// New constructs a tagged Error with no wrapped cause.
func New(tag Tag, message string) *Error { return &Error{Tag: tag, Message: message} }

// Wrap constructs a tagged Error wrapping err. If err is nil, Wrap
// returns nil so callers can write `return herr.Wrap(tag, err, msg)`
// directly after a fallible call.
func Wrap(tag Tag, err error, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Tag: tag, Message: message, Inner: err}
}

// As extracts the Tag from err if it is (or wraps) an *Error, and
// reports whether one was found.
func As(err error) (Tag, bool) {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Tag, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return "", false
}
