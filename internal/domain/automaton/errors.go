package automaton

import (
	"errors"
	"fmt"
)

var (
	// ErrNoPatterns is returned when Build is called with an empty pattern set.
	ErrNoPatterns = errors.New("no patterns specified")
	// ErrEmptyPattern is returned when a pattern has no codepoints.
	ErrEmptyPattern = errors.New("pattern must not be empty")
	// ErrInvalidPattern is returned when a pattern is not valid UTF-8.
	ErrInvalidPattern = errors.New("pattern is not valid UTF-8")
	// ErrUnknownMatchKind is returned for a match kind outside the closed set.
	ErrUnknownMatchKind = errors.New("unknown match kind")
	// ErrCorruptAutomaton is returned when compaction breaks a transition
	// invariant. It indicates a bug, never bad input.
	ErrCorruptAutomaton = errors.New("double-array invariant violated")
	// ErrMatchKindMismatch is returned when an iterator is requested that the
	// automaton's match kind does not support.
	ErrMatchKindMismatch = errors.New("match kind does not support this search")
)

// BuildError reports which pattern made Build fail.
type BuildError struct {
	Index int
	Err   error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("pattern %d: %v", e.Index, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}
