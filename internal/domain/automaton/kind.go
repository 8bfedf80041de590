package automaton

import "fmt"

// MatchKind selects how an automaton reports matches. It is fixed when the
// automaton is built and decides which iterators may be used against it.
type MatchKind uint8

const (
	// Standard reports matches as classic Aho-Corasick does: overlapping
	// search finds every occurrence, non-overlapping search reports the first
	// match found while scanning.
	Standard MatchKind = iota
	// LeftmostLongest reports non-overlapping matches; at the leftmost start
	// position the longest pattern wins.
	LeftmostLongest
	// LeftmostFirst reports non-overlapping matches; at the leftmost start
	// position the pattern inserted earliest wins.
	LeftmostFirst
)

var kindNames = [...]string{
	Standard:        "standard",
	LeftmostLongest: "leftmost_longest",
	LeftmostFirst:   "leftmost_first",
}

// ParseMatchKind converts the wire name of a match kind into a MatchKind.
// Unknown names return ErrUnknownMatchKind.
func ParseMatchKind(s string) (MatchKind, error) {
	for k, name := range kindNames {
		if s == name {
			return MatchKind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMatchKind, s)
}

// String returns the wire name ("standard", "leftmost_longest", "leftmost_first").
func (k MatchKind) String() string {
	if !k.valid() {
		return fmt.Sprintf("MatchKind(%d)", uint8(k))
	}
	return kindNames[k]
}

// IsLeftmost reports whether k is one of the leftmost policies.
func (k MatchKind) IsLeftmost() bool {
	return k == LeftmostLongest || k == LeftmostFirst
}

// MarshalText implements encoding.TextMarshaler.
func (k MatchKind) MarshalText() ([]byte, error) {
	if !k.valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMatchKind, uint8(k))
	}
	return []byte(kindNames[k]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *MatchKind) UnmarshalText(text []byte) error {
	parsed, err := ParseMatchKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func (k MatchKind) valid() bool {
	return int(k) < len(kindNames)
}
