// Package ports defines the interfaces (contracts) that adapters must implement.
// These are the boundaries of the hexagonal architecture. Domain logic depends
// only on these interfaces, never on concrete implementations.
package ports

// PatternStore persists named pattern sets to durable storage.
// Concurrent reads are safe; writes are serialized by the adapter.
//
// Crash safety: SavePatternSet must be transactional. A crash mid-write must
// not corrupt or half-replace a previously committed set.
type PatternStore interface {
	// SavePatternSet persists set under set.Name, replacing any prior set
	// with that name.
	SavePatternSet(set *PatternSet) error

	// LoadPatternSet retrieves a pattern set by name.
	// Returns nil, nil if no set with that name exists.
	LoadPatternSet(name string) (*PatternSet, error)

	// ListPatternSets returns the header of every stored set, sorted by name.
	// Headers carry no patterns.
	ListPatternSets() ([]PatternSetInfo, error)

	// DeletePatternSet removes a set.
	// Idempotent: deleting a nonexistent set is not an error.
	DeletePatternSet(name string) error
}

// PatternSet is an ordered list of patterns plus the match kind its
// automaton is built with. Pattern order is priority for leftmost_first.
type PatternSet struct {
	Name       string         `json:"name"`
	Kind       string         `json:"kind"`                  // "standard", "leftmost_longest" or "leftmost_first"
	IgnoreCase bool           `json:"ignore_case,omitempty"` // patterns and scanned text are lowercased
	Source     string         `json:"source,omitempty"`      // file the set was loaded from, empty if built over the socket
	UpdatedAt  int64          `json:"updated_at"`            // unix seconds
	Patterns   []PatternEntry `json:"patterns"`
}

// PatternEntry is one pattern and the value reported when it matches.
type PatternEntry struct {
	Text  string `json:"text" yaml:"text"`
	Value int    `json:"value" yaml:"value"`
}

// PatternSetInfo is the stored header of a pattern set.
type PatternSetInfo struct {
	Name         string `json:"name"`
	Kind         string `json:"kind"`
	IgnoreCase   bool   `json:"ignore_case,omitempty"`
	Source       string `json:"source,omitempty"`
	UpdatedAt    int64  `json:"updated_at"`
	PatternCount int    `json:"pattern_count"`
}

// Info returns the header of s.
func (s *PatternSet) Info() PatternSetInfo {
	return PatternSetInfo{
		Name:         s.Name,
		Kind:         s.Kind,
		IgnoreCase:   s.IgnoreCase,
		Source:       s.Source,
		UpdatedAt:    s.UpdatedAt,
		PatternCount: len(s.Patterns),
	}
}

// Texts returns the pattern texts in order.
func (s *PatternSet) Texts() []string {
	texts := make([]string, len(s.Patterns))
	for i, p := range s.Patterns {
		texts[i] = p.Text
	}
	return texts
}
