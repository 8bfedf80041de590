// Package automaton implements a charwise double-array Aho-Corasick automaton.
//
// Build compiles an ordered pattern set into an immutable Automaton: the
// patterns are inserted into a codepoint trie, failure links and output
// chains are computed breadth-first, and the trie is compacted into parallel
// base/check arrays for constant-time transitions. The Automaton is then
// scanned with one of four iterators, depending on the MatchKind it was
// built with:
//
//	Standard:         FindIter, FindOverlappingIter, FindOverlappingNoSuffixIter
//	LeftmostLongest:  LeftmostFindIter
//	LeftmostFirst:    LeftmostFindIter
//
// An Automaton is safe for concurrent use; each iterator is not.
package automaton

import (
	"fmt"
	"unicode/utf8"
	"unsafe"
)

// output is a compiled output-chain entry carrying the caller's value.
type output[V any] struct {
	value    V
	length   uint32 // pattern length in codepoints
	priority uint32 // pattern index in the original set
	next     uint32 // 1-based index of the following entry, 0 ends the chain
}

// Automaton is a compiled, read-only multi-pattern matcher.
type Automaton[V any] struct {
	kind        MatchKind
	mapper      *codeMapper
	da          *doubleArray
	outputs     []output[V]
	maxLen      int
	numStates   int
	numPatterns int
}

// Build compiles patterns into an automaton using the given match kind.
// It fails without returning a partial automaton when the set is empty, when
// a pattern is empty or not valid UTF-8, or when kind is not a known kind.
func Build[V any](patterns []Pattern[V], kind MatchKind) (*Automaton[V], error) {
	if !kind.valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMatchKind, uint8(kind))
	}
	if len(patterns) == 0 {
		return nil, ErrNoPatterns
	}

	keys := make([][]rune, len(patterns))
	for i, p := range patterns {
		if p.Text == "" {
			return nil, &BuildError{Index: i, Err: ErrEmptyPattern}
		}
		if !utf8.ValidString(p.Text) {
			return nil, &BuildError{Index: i, Err: ErrInvalidPattern}
		}
		keys[i] = []rune(p.Text)
	}

	mapper := newCodeMapper(keys)
	t := buildTrie(keys, mapper, kind)
	da, err := compact(t)
	if err != nil {
		return nil, err
	}

	outputs := make([]output[V], len(t.outputs))
	for i, o := range t.outputs {
		outputs[i] = output[V]{
			value:    patterns[o.pattern].Value,
			length:   o.length,
			priority: uint32(o.pattern),
			next:     o.next,
		}
	}

	return &Automaton[V]{
		kind:        kind,
		mapper:      mapper,
		da:          da,
		outputs:     outputs,
		maxLen:      t.maxLen,
		numStates:   len(t.nodes),
		numPatterns: t.retained,
	}, nil
}

// MatchKind returns the kind the automaton was built with.
func (a *Automaton[V]) MatchKind() MatchKind {
	return a.kind
}

// HeapBytes returns the memory held by the automaton's tables.
func (a *Automaton[V]) HeapBytes() int {
	var zero output[V]
	return int(unsafe.Sizeof(*a)) +
		a.mapper.heapBytes() +
		a.da.heapBytes() +
		cap(a.outputs)*int(unsafe.Sizeof(zero))
}

// NumStates returns the number of trie states, root included.
func (a *Automaton[V]) NumStates() int {
	return a.numStates
}

// NumPatterns returns the number of patterns that can be reported. Leftmost
// kinds drop patterns that can never win, so this may be less than the
// number of patterns passed to Build.
func (a *Automaton[V]) NumPatterns() int {
	return a.numPatterns
}

// nextState follows the transition for r, falling back through failure
// links. The root absorbs every codepoint it has no child for.
func (a *Automaton[V]) nextState(s uint32, r rune) uint32 {
	code := a.mapper.code(r)
	if code == 0 {
		return rootState
	}
	da := a.da
	for {
		if t := da.base[s] + code; int(t) < len(da.check) && da.check[t] == s {
			return t
		}
		if s == rootState {
			return rootState
		}
		s = da.fail[s]
	}
}

func (a *Automaton[V]) requireStandard() error {
	if a.kind != Standard {
		return fmt.Errorf("%w: overlapping and standard searches need a %s automaton, have %s",
			ErrMatchKindMismatch, Standard, a.kind)
	}
	return nil
}

func (a *Automaton[V]) requireLeftmost() error {
	if !a.kind.IsLeftmost() {
		return fmt.Errorf("%w: leftmost search needs a %s or %s automaton, have %s",
			ErrMatchKindMismatch, LeftmostLongest, LeftmostFirst, a.kind)
	}
	return nil
}
