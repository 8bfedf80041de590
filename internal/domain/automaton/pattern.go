package automaton

// Pattern is one needle together with the value reported when it matches.
// The position of a pattern in the slice passed to Build is its priority
// for LeftmostFirst: lower index wins.
type Pattern[V any] struct {
	Text  string
	Value V
}

// Match is one occurrence of a pattern in a scanned text.
//
// Start and End are codepoint offsets forming the half-open range
// [Start, End). ByteStart and ByteEnd index the same range in the Go string,
// so text[m.ByteStart:m.ByteEnd] is the matched text. A byte of the text that
// is not valid UTF-8 counts as one codepoint and is never part of a match,
// not even of a pattern containing U+FFFD.
type Match[V any] struct {
	Start     int
	End       int
	ByteStart int
	ByteEnd   int
	Value     V
}

// Len returns the match length in codepoints.
func (m Match[V]) Len() int {
	return m.End - m.Start
}

// Indexed pairs every text with its position in texts.
func Indexed(texts ...string) []Pattern[int] {
	patterns := make([]Pattern[int], len(texts))
	for i, t := range texts {
		patterns[i] = Pattern[int]{Text: t, Value: i}
	}
	return patterns
}
