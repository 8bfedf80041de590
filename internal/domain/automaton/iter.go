package automaton

import (
	"iter"
	"unicode/utf8"
)

// cursor walks a text one codepoint at a time and remembers the byte offsets
// of the last maxLen+1 codepoint boundaries, which is enough to turn any
// match length into a byte range.
type cursor struct {
	text string
	pos  int // byte offset of the next codepoint
	cp   int // codepoints consumed
	ring []int
}

func newCursor(text string, maxLen int) cursor {
	return cursor{text: text, ring: make([]int, maxLen+1)}
}

// invalidByte stands in for a byte that does not start a valid UTF-8
// sequence. It is outside the alphabet of every automaton, so a pattern
// holding a literal U+FFFD never matches a broken byte.
const invalidByte rune = -1

func (c *cursor) next() (rune, bool) {
	if c.pos >= len(c.text) {
		return 0, false
	}
	r, size := utf8.DecodeRuneInString(c.text[c.pos:])
	if r == utf8.RuneError && size == 1 {
		r = invalidByte
	}
	c.pos += size
	c.cp++
	c.ring[c.cp%len(c.ring)] = c.pos
	return r, true
}

// byteOffset returns the byte offset of codepoint boundary cp, which must be
// within maxLen codepoints of the current position.
func (c *cursor) byteOffset(cp int) int {
	return c.ring[cp%len(c.ring)]
}

// seek moves the cursor back to a boundary it has already visited.
func (c *cursor) seek(pos, cp int) {
	c.pos = pos
	c.cp = cp
	c.ring[cp%len(c.ring)] = pos
}

func newMatch[V any](c *cursor, out *output[V]) Match[V] {
	start := c.cp - int(out.length)
	return Match[V]{
		Start:     start,
		End:       c.cp,
		ByteStart: c.byteOffset(start),
		ByteEnd:   c.pos,
		Value:     out.value,
	}
}

func seq[V any](next func() (Match[V], bool)) iter.Seq[Match[V]] {
	return func(yield func(Match[V]) bool) {
		for {
			m, ok := next()
			if !ok || !yield(m) {
				return
			}
		}
	}
}

func collect[V any](next func() (Match[V], bool)) []Match[V] {
	var matches []Match[V]
	for m, ok := next(); ok; m, ok = next() {
		matches = append(matches, m)
	}
	return matches
}

// FindIterator reports non-overlapping matches with standard semantics.
type FindIterator[V any] struct {
	a   *Automaton[V]
	cur cursor
}

// FindIter returns an iterator over non-overlapping standard matches. Each
// scan starts at the root; the first position whose state has an output
// yields that state's longest pattern, and the next scan resumes right
// after it. Other patterns ending at the same position are not reported.
// Requires a Standard automaton.
func (a *Automaton[V]) FindIter(text string) (*FindIterator[V], error) {
	if err := a.requireStandard(); err != nil {
		return nil, err
	}
	return &FindIterator[V]{a: a, cur: newCursor(text, a.maxLen)}, nil
}

// Next returns the next match, or false once the text is exhausted.
func (it *FindIterator[V]) Next() (Match[V], bool) {
	da := it.a.da
	state := rootState
	for {
		r, ok := it.cur.next()
		if !ok {
			return Match[V]{}, false
		}
		state = it.a.nextState(state, r)
		if head := da.output[state]; head != 0 {
			return newMatch(&it.cur, &it.a.outputs[head-1]), true
		}
	}
}

// All returns the remaining matches as a sequence.
func (it *FindIterator[V]) All() iter.Seq[Match[V]] {
	return seq(it.Next)
}

// OverlappingIterator reports every occurrence of every pattern.
type OverlappingIterator[V any] struct {
	a       *Automaton[V]
	cur     cursor
	state   uint32
	pending uint32
}

// FindOverlappingIter returns an iterator over all occurrences, including
// overlapping and nested ones. Matches come in ascending end order; matches
// sharing an end come longest first, and identical patterns in insertion
// order. Requires a Standard automaton.
func (a *Automaton[V]) FindOverlappingIter(text string) (*OverlappingIterator[V], error) {
	if err := a.requireStandard(); err != nil {
		return nil, err
	}
	return &OverlappingIterator[V]{a: a, cur: newCursor(text, a.maxLen)}, nil
}

// Next returns the next match, or false once the text is exhausted.
func (it *OverlappingIterator[V]) Next() (Match[V], bool) {
	if it.pending != 0 {
		out := &it.a.outputs[it.pending-1]
		it.pending = out.next
		return newMatch(&it.cur, out), true
	}
	da := it.a.da
	for {
		r, ok := it.cur.next()
		if !ok {
			return Match[V]{}, false
		}
		it.state = it.a.nextState(it.state, r)
		if head := da.output[it.state]; head != 0 {
			out := &it.a.outputs[head-1]
			it.pending = out.next
			return newMatch(&it.cur, out), true
		}
	}
}

// All returns the remaining matches as a sequence.
func (it *OverlappingIterator[V]) All() iter.Seq[Match[V]] {
	return seq(it.Next)
}

// NoSuffixIterator reports, at every position, only the longest pattern
// ending there.
type NoSuffixIterator[V any] struct {
	a     *Automaton[V]
	cur   cursor
	state uint32
}

// FindOverlappingNoSuffixIter is FindOverlappingIter without the patterns
// that are suffixes of a longer match ending at the same position.
// Requires a Standard automaton.
func (a *Automaton[V]) FindOverlappingNoSuffixIter(text string) (*NoSuffixIterator[V], error) {
	if err := a.requireStandard(); err != nil {
		return nil, err
	}
	return &NoSuffixIterator[V]{a: a, cur: newCursor(text, a.maxLen)}, nil
}

// Next returns the next match, or false once the text is exhausted.
func (it *NoSuffixIterator[V]) Next() (Match[V], bool) {
	da := it.a.da
	for {
		r, ok := it.cur.next()
		if !ok {
			return Match[V]{}, false
		}
		it.state = it.a.nextState(it.state, r)
		if head := da.output[it.state]; head != 0 {
			return newMatch(&it.cur, &it.a.outputs[head-1]), true
		}
	}
}

// All returns the remaining matches as a sequence.
func (it *NoSuffixIterator[V]) All() iter.Seq[Match[V]] {
	return seq(it.Next)
}

// LeftmostIterator reports non-overlapping matches under the automaton's
// leftmost policy.
type LeftmostIterator[V any] struct {
	a   *Automaton[V]
	cur cursor
}

// LeftmostFindIter returns an iterator over non-overlapping matches in
// increasing start order. At the leftmost position where any pattern
// matches, LeftmostLongest reports the longest pattern and LeftmostFirst the
// earliest inserted one; scanning then resumes at the end of that match.
// Requires a LeftmostLongest or LeftmostFirst automaton.
func (a *Automaton[V]) LeftmostFindIter(text string) (*LeftmostIterator[V], error) {
	if err := a.requireLeftmost(); err != nil {
		return nil, err
	}
	return &LeftmostIterator[V]{a: a, cur: newCursor(text, a.maxLen)}, nil
}

// Next returns the next match, or false once the text is exhausted.
//
// The scan keeps the best candidate seen so far. The current state is the
// longest live prefix, so once it starts after the candidate no later
// match can start at or before the candidate and the candidate is final.
func (it *LeftmostIterator[V]) Next() (Match[V], bool) {
	a := it.a
	da := a.da
	state := rootState

	var best Match[V]
	var bestPriority uint32
	found := false

	for {
		r, ok := it.cur.next()
		if !ok {
			break
		}
		state = a.nextState(state, r)
		end := it.cur.cp
		start := end - int(da.depth[state])
		if found && start > best.Start {
			break
		}

		if head := da.output[state]; head != 0 {
			out := &a.outputs[head-1]
			outStart := end - int(out.length)
			take := !found || outStart < best.Start
			if found && outStart == best.Start {
				// Same start: a later end is longer; LeftmostFirst
				// additionally needs the better priority.
				take = a.kind == LeftmostLongest || out.priority < bestPriority
			}
			if take {
				best = newMatch(&it.cur, out)
				bestPriority = out.priority
				found = true
			}
		}

		if found && a.kind == LeftmostFirst && start == best.Start && da.minPriority[state] > bestPriority {
			break
		}
	}

	if !found {
		return Match[V]{}, false
	}
	it.cur.seek(best.ByteEnd, best.End)
	return best, true
}

// All returns the remaining matches as a sequence.
func (it *LeftmostIterator[V]) All() iter.Seq[Match[V]] {
	return seq(it.Next)
}

// FindAll collects FindIter.
func (a *Automaton[V]) FindAll(text string) ([]Match[V], error) {
	it, err := a.FindIter(text)
	if err != nil {
		return nil, err
	}
	return collect(it.Next), nil
}

// FindOverlapping collects FindOverlappingIter.
func (a *Automaton[V]) FindOverlapping(text string) ([]Match[V], error) {
	it, err := a.FindOverlappingIter(text)
	if err != nil {
		return nil, err
	}
	return collect(it.Next), nil
}

// FindOverlappingNoSuffix collects FindOverlappingNoSuffixIter.
func (a *Automaton[V]) FindOverlappingNoSuffix(text string) ([]Match[V], error) {
	it, err := a.FindOverlappingNoSuffixIter(text)
	if err != nil {
		return nil, err
	}
	return collect(it.Next), nil
}

// LeftmostFind collects LeftmostFindIter.
func (a *Automaton[V]) LeftmostFind(text string) ([]Match[V], error) {
	it, err := a.LeftmostFindIter(text)
	if err != nil {
		return nil, err
	}
	return collect(it.Next), nil
}
