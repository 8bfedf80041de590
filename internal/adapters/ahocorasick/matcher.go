// Package ahocorasick implements ports.ReferenceMatcher on top of the
// petar-dambovaliev/aho-corasick library. It is an independent, byte-oriented
// implementation used to cross-check the double-array engine, so byte offsets
// from the library are converted to codepoint offsets before they leave the
// package.
package ahocorasick

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/corey/acsearch/internal/ports"
	aho "github.com/petar-dambovaliev/aho-corasick"
)

// ErrNotBuilt is returned when the matcher is used before Build.
var ErrNotBuilt = errors.New("reference matcher not built")

// options translates an engine match-kind name into library options.
func options(kind string) (aho.Opts, bool) {
	opts := aho.Opts{DFA: true}
	switch kind {
	case "standard":
		opts.MatchKind = aho.StandardMatch
	case "leftmost_longest":
		opts.MatchKind = aho.LeftMostLongestMatch
	case "leftmost_first":
		opts.MatchKind = aho.LeftMostFirstMatch
	default:
		return opts, false
	}
	return opts, true
}

// Matcher implements ports.ReferenceMatcher.
// Build() compiles an automaton; Find() and FindOverlapping() scan text.
type Matcher struct {
	automaton aho.AhoCorasick
	patterns  []string
	kind      string
	built     bool
}

var _ ports.ReferenceMatcher = (*Matcher)(nil)

// New returns an empty matcher. Call Build before scanning.
func New() *Matcher {
	return &Matcher{}
}

// Build compiles the automaton for patterns under kind.
func (m *Matcher) Build(patterns []string, kind string) error {
	opts, ok := options(kind)
	if !ok {
		return fmt.Errorf("unknown match kind %q", kind)
	}
	if len(patterns) == 0 {
		return fmt.Errorf("no patterns specified")
	}
	for i, p := range patterns {
		if p == "" {
			return fmt.Errorf("pattern %d: empty pattern", i)
		}
	}

	m.patterns = make([]string, len(patterns))
	copy(m.patterns, patterns)

	builder := aho.NewAhoCorasickBuilder(opts)
	m.automaton = builder.Build(m.patterns)
	m.kind = kind
	m.built = true
	return nil
}

// Find returns non-overlapping matches under the built kind.
func (m *Matcher) Find(text string) []ports.MatchRecord {
	if !m.built {
		return nil
	}
	matches := m.automaton.FindAll(text)
	if len(matches) == 0 {
		return nil
	}

	conv := newOffsetConverter(text)
	result := make([]ports.MatchRecord, 0, len(matches))
	for i := range matches {
		result = append(result, ports.MatchRecord{
			Start: conv.codepoint(matches[i].Start()),
			End:   conv.codepoint(matches[i].End()),
			Value: matches[i].Pattern(),
		})
	}
	return result
}

// FindOverlapping returns every occurrence of every pattern, ordered by end
// offset. Only valid for the "standard" kind.
func (m *Matcher) FindOverlapping(text string) ([]ports.MatchRecord, error) {
	if !m.built {
		return nil, ErrNotBuilt
	}
	if m.kind != "standard" {
		return nil, fmt.Errorf("overlapping search needs a standard matcher, have %s", m.kind)
	}

	conv := newOffsetConverter(text)
	iter := m.automaton.IterOverlappingByte([]byte(text))
	var result []ports.MatchRecord
	for next := iter.Next(); next != nil; next = iter.Next() {
		match := *next
		result = append(result, ports.MatchRecord{
			Start: conv.codepoint(match.Start()),
			End:   conv.codepoint(match.End()),
			Value: match.Pattern(),
		})
	}
	return result, nil
}

// PatternCount returns the number of patterns in the automaton.
func (m *Matcher) PatternCount() int {
	return len(m.patterns)
}

// Pattern returns the pattern string at the given index.
func (m *Matcher) Pattern(idx int) string {
	if idx < 0 || idx >= len(m.patterns) {
		return ""
	}
	return m.patterns[idx]
}

// offsetConverter maps byte offsets in a string to codepoint offsets. An
// invalid byte counts as one codepoint, as it does when decoding the string.
type offsetConverter struct {
	ascii bool
	cps   []int32 // byte offset -> codepoint offset, len(text)+1 entries
}

func newOffsetConverter(text string) *offsetConverter {
	ascii := true
	for i := 0; i < len(text); i++ {
		if text[i] >= utf8.RuneSelf {
			ascii = false
			break
		}
	}
	if ascii {
		return &offsetConverter{ascii: true}
	}

	cps := make([]int32, len(text)+1)
	cp := int32(0)
	for i := 0; i < len(text); {
		_, size := utf8.DecodeRuneInString(text[i:])
		for j := 0; j < size; j++ {
			cps[i+j] = cp
		}
		i += size
		cp++
	}
	cps[len(text)] = cp
	return &offsetConverter{cps: cps}
}

func (c *offsetConverter) codepoint(byteOffset int) int {
	if c.ascii {
		return byteOffset
	}
	return int(c.cps[byteOffset])
}
