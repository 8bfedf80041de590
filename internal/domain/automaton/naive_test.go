package automaton

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Randomized agreement with brute-force search
// Expectation: for random pattern sets over a small alphabet, every iterator
// agrees exactly with a quadratic reference that tries each pattern at each
// position.
// =============================================================================

// naive holds a pattern set and a decoded text for brute-force matching.
type naive struct {
	keys    [][]rune
	values  []int
	text    []rune
	offsets []int // byte offset of each codepoint boundary
}

func newNaive(patterns []Pattern[int], text string) *naive {
	n := &naive{}
	for _, p := range patterns {
		n.keys = append(n.keys, []rune(p.Text))
		n.values = append(n.values, p.Value)
	}
	pos := 0
	for _, r := range text {
		n.offsets = append(n.offsets, pos)
		n.text = append(n.text, r)
		pos += len(string(r))
	}
	n.offsets = append(n.offsets, len(text))
	return n
}

func (n *naive) at(i, start int) bool {
	key := n.keys[i]
	return start+len(key) <= len(n.text) && slices.Equal(n.text[start:start+len(key)], key)
}

func (n *naive) match(i, start int) Match[int] {
	end := start + len(n.keys[i])
	return Match[int]{
		Start:     start,
		End:       end,
		ByteStart: n.offsets[start],
		ByteEnd:   n.offsets[end],
		Value:     n.values[i],
	}
}

// endingAt lists patterns ending at end, longest first, ties in insertion order.
func (n *naive) endingAt(end, minStart int) []int {
	var ids []int
	for i, key := range n.keys {
		if start := end - len(key); start >= minStart && n.at(i, start) {
			ids = append(ids, i)
		}
	}
	slices.SortStableFunc(ids, func(a, b int) int { return len(n.keys[b]) - len(n.keys[a]) })
	return ids
}

func (n *naive) overlapping() []Match[int] {
	var out []Match[int]
	for end := 1; end <= len(n.text); end++ {
		for _, i := range n.endingAt(end, 0) {
			out = append(out, n.match(i, end-len(n.keys[i])))
		}
	}
	return out
}

func (n *naive) noSuffix() []Match[int] {
	var out []Match[int]
	for end := 1; end <= len(n.text); end++ {
		if ids := n.endingAt(end, 0); len(ids) > 0 {
			out = append(out, n.match(ids[0], end-len(n.keys[ids[0]])))
		}
	}
	return out
}

func (n *naive) find() []Match[int] {
	var out []Match[int]
	from := 0
	for end := 1; end <= len(n.text); end++ {
		if ids := n.endingAt(end, from); len(ids) > 0 {
			out = append(out, n.match(ids[0], end-len(n.keys[ids[0]])))
			from = end
		}
	}
	return out
}

func (n *naive) leftmost(kind MatchKind) []Match[int] {
	var out []Match[int]
	for start := 0; start < len(n.text); {
		best := -1
		for i := range n.keys {
			if !n.at(i, start) {
				continue
			}
			switch {
			case best < 0:
				best = i
			case kind == LeftmostLongest && len(n.keys[i]) > len(n.keys[best]):
				best = i
			}
		}
		if best < 0 {
			start++
			continue
		}
		m := n.match(best, start)
		out = append(out, m)
		start = m.End
	}
	return out
}

func randomText(r *rand.Rand, alphabet []rune, maxLen int) string {
	text := make([]rune, r.IntN(maxLen+1))
	for i := range text {
		text[i] = alphabet[r.IntN(len(alphabet))]
	}
	return string(text)
}

func randomPatterns(r *rand.Rand, alphabet []rune) []Pattern[int] {
	patterns := make([]Pattern[int], 1+r.IntN(12))
	for i := range patterns {
		text := ""
		for text == "" {
			text = randomText(r, alphabet, 5)
		}
		patterns[i] = Pattern[int]{Text: text, Value: 100 + i}
	}
	return patterns
}

func TestRandomized_AgreesWithBruteForce(t *testing.T) {
	r := rand.New(rand.NewPCG(0x5eed, 0xac))
	alphabets := [][]rune{
		[]rune("ab"),
		[]rune("abc"),
		[]rune("aé語\U0001F600"),
	}

	for round := 0; round < 400; round++ {
		alphabet := alphabets[round%len(alphabets)]
		patterns := randomPatterns(r, alphabet)
		// Characters outside the pattern alphabet must reset the scan.
		text := randomText(r, append(slices.Clone(alphabet), 'z'), 40)
		ref := newNaive(patterns, text)

		std := mustBuild(t, patterns, Standard)
		got, err := std.FindOverlapping(text)
		require.NoError(t, err)
		assert.Equal(t, ref.overlapping(), got, "overlapping %v %q", patterns, text)

		got, err = std.FindOverlappingNoSuffix(text)
		require.NoError(t, err)
		assert.Equal(t, ref.noSuffix(), got, "no-suffix %v %q", patterns, text)

		got, err = std.FindAll(text)
		require.NoError(t, err)
		assert.Equal(t, ref.find(), got, "find %v %q", patterns, text)

		for _, kind := range []MatchKind{LeftmostLongest, LeftmostFirst} {
			lm := mustBuild(t, patterns, kind)
			got, err = lm.LeftmostFind(text)
			require.NoError(t, err)
			assert.Equal(t, ref.leftmost(kind), got, "%s %v %q", kind, patterns, text)
		}

		if t.Failed() {
			return
		}
	}
}
