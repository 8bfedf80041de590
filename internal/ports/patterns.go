package ports

// MatchRecord is one match on the wire: a half-open codepoint range and the
// value of the pattern that produced it.
type MatchRecord struct {
	Start int `json:"start"`
	End   int `json:"end"`
	Value int `json:"value"`
}

// ReferenceMatcher is an independent multi-pattern matcher used to
// cross-check the engine. Values in its results are indexes into the
// patterns passed to Build, and offsets are codepoints, so results compare
// directly with an engine built from the same texts.
type ReferenceMatcher interface {
	// Build replaces the pattern set. kind uses the engine's wire names.
	// Returns an error for an unknown kind or an empty set.
	Build(patterns []string, kind string) error

	// Find returns non-overlapping matches under the built kind.
	Find(text string) []MatchRecord

	// FindOverlapping returns every occurrence of every pattern. Only
	// valid for the "standard" kind.
	FindOverlapping(text string) ([]MatchRecord, error)

	// PatternCount returns the number of patterns last built.
	PatternCount() int

	// Pattern returns the text of pattern idx, or "" when idx is out of range.
	Pattern(idx int) string
}
