package automaton

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Automaton construction: trie, failure links, double-array compaction
// Expectation: Build either returns a fully verified automaton or a typed
// error. No partial automaton is ever handed back.
// =============================================================================

// span is a compact (start, end, value) view of a Match for table tests.
type span struct {
	Start, End, Value int
}

func spans(ms []Match[int]) []span {
	out := make([]span, 0, len(ms))
	for _, m := range ms {
		out = append(out, span{m.Start, m.End, m.Value})
	}
	return out
}

// ushers is the classic four-pattern set, valued 1..4 in insertion order.
func ushers() []Pattern[int] {
	return []Pattern[int]{
		{Text: "he", Value: 1},
		{Text: "she", Value: 2},
		{Text: "his", Value: 3},
		{Text: "hers", Value: 4},
	}
}

func mustBuild(t testing.TB, patterns []Pattern[int], kind MatchKind) *Automaton[int] {
	t.Helper()
	a, err := Build(patterns, kind)
	require.NoError(t, err)
	return a
}

func TestBuild_NoPatterns(t *testing.T) {
	a, err := Build[int](nil, Standard)
	assert.Nil(t, a)
	assert.ErrorIs(t, err, ErrNoPatterns)

	_, err = Build([]Pattern[string]{}, LeftmostFirst)
	assert.ErrorIs(t, err, ErrNoPatterns)
}

func TestBuild_EmptyPattern(t *testing.T) {
	a, err := Build(Indexed("abc", "", "d"), Standard)
	assert.Nil(t, a)
	require.ErrorIs(t, err, ErrEmptyPattern)

	var be *BuildError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, 1, be.Index)
	assert.Contains(t, err.Error(), "pattern 1")
}

func TestBuild_InvalidUTF8(t *testing.T) {
	_, err := Build(Indexed("ok", "bad\xff"), LeftmostLongest)
	require.ErrorIs(t, err, ErrInvalidPattern)

	var be *BuildError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, 1, be.Index)
}

func TestBuild_UnknownKind(t *testing.T) {
	a, err := Build(Indexed("a"), MatchKind(42))
	assert.Nil(t, a)
	assert.ErrorIs(t, err, ErrUnknownMatchKind)
}

func TestBuild_KindIsRecorded(t *testing.T) {
	for _, kind := range []MatchKind{Standard, LeftmostLongest, LeftmostFirst} {
		a := mustBuild(t, ushers(), kind)
		assert.Equal(t, kind, a.MatchKind())
	}
}

func TestBuild_Introspection(t *testing.T) {
	a := mustBuild(t, ushers(), Standard)

	// root, h, he, s, sh, she, hi, his, her, hers
	assert.Equal(t, 10, a.NumStates())
	assert.Equal(t, 4, a.NumPatterns())
	assert.Equal(t, 4, a.maxLen)
	assert.Positive(t, a.HeapBytes())
}

func TestBuild_HeapBytesGrowsWithPatterns(t *testing.T) {
	small := mustBuild(t, Indexed("a", "b"), Standard)

	texts := make([]string, 500)
	for i := range texts {
		texts[i] = fmt.Sprintf("pattern-%04d-%c", i, rune(0x4e00+i))
	}
	large := mustBuild(t, Indexed(texts...), Standard)

	assert.Greater(t, large.HeapBytes(), small.HeapBytes())
}

func TestBuild_LeftmostDropsUnwinnablePatterns(t *testing.T) {
	// Duplicates are kept only by Standard.
	dup := Indexed("abc", "abc", "x")
	assert.Equal(t, 3, mustBuild(t, dup, Standard).NumPatterns())
	assert.Equal(t, 2, mustBuild(t, dup, LeftmostLongest).NumPatterns())
	assert.Equal(t, 2, mustBuild(t, dup, LeftmostFirst).NumPatterns())

	// "hers" extends the earlier "he" and can never win under LeftmostFirst.
	assert.Equal(t, 4, mustBuild(t, ushers(), LeftmostLongest).NumPatterns())
	assert.Equal(t, 3, mustBuild(t, ushers(), LeftmostFirst).NumPatterns())
}

func TestBuild_GenericValues(t *testing.T) {
	type tag struct {
		Name string
		ID   int
	}
	a, err := Build([]Pattern[tag]{
		{Text: "cat", Value: tag{"feline", 7}},
		{Text: "dog", Value: tag{"canine", 9}},
	}, LeftmostLongest)
	require.NoError(t, err)

	ms, err := a.LeftmostFind("hotdog catalog")
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, tag{"canine", 9}, ms[0].Value)
	assert.Equal(t, tag{"feline", 7}, ms[1].Value)
}

// =============================================================================
// Double array: base/check placement
// =============================================================================

func TestCompact_EveryEdgeResolves(t *testing.T) {
	texts := []string{
		"a", "ab", "abc", "b", "bc", "bca", "cab",
		"日本", "日本語", "本", "語学", "€", "€uro", "\U0001F600", "a\U0001F600b",
	}
	keys := make([][]rune, len(texts))
	for i, s := range texts {
		keys[i] = []rune(s)
	}
	mapper := newCodeMapper(keys)
	tr := buildTrie(keys, mapper, Standard)
	da, err := compact(tr)
	require.NoError(t, err)

	// Walk every pattern through base/check alone; no failure links needed.
	for _, key := range keys {
		s := rootState
		for _, r := range key {
			next := da.base[s] + mapper.code(r)
			require.Less(t, int(next), len(da.check))
			require.Equal(t, s, da.check[next], "pattern %q", string(key))
			s = next
		}
		assert.NotZero(t, da.output[s], "pattern %q has no output", string(key))
		assert.Equal(t, uint32(len(key)), da.depth[s])
	}
}

func TestCompact_SlotsAreNotShared(t *testing.T) {
	texts := make([]string, 0, 300)
	for i := 0; i < 300; i++ {
		texts = append(texts, fmt.Sprintf("%c%c%c", rune('a'+i%26), rune(0x3040+i%80), rune('0'+i%10)))
	}
	a := mustBuild(t, Indexed(texts...), Standard)

	owned := 0
	for i, c := range a.da.check {
		if c == freeSlot || c == noParent {
			continue
		}
		owned++
		// A slot's owner must actually point at it with some code.
		code := uint32(i) - a.da.base[c]
		assert.NotZero(t, code)
		assert.LessOrEqual(t, code, a.mapper.size)
	}
	assert.Equal(t, a.NumStates()-1, owned)
}

func TestSlotAllocator_ClaimTwiceIsCorruption(t *testing.T) {
	alloc := newSlotAllocator(8, minOpenBlocks)
	require.NoError(t, alloc.claim(3, 0))
	err := alloc.claim(3, 0)
	assert.ErrorIs(t, err, ErrCorruptAutomaton)
}

func TestSlotAllocator_GrowsInBlocks(t *testing.T) {
	alloc := newSlotAllocator(1, minOpenBlocks)
	assert.Len(t, alloc.check, blockLen)
	require.NoError(t, alloc.claim(blockLen+5, 0))
	assert.Len(t, alloc.check, 2*blockLen)
}

func TestSlotAllocator_ClosesOldestBlocks(t *testing.T) {
	alloc := newSlotAllocator(0, 2)
	require.NoError(t, alloc.claim(3*blockLen+1, 0))

	// Four blocks exist; only the last two are searched.
	assert.Len(t, alloc.check, 4*blockLen)
	assert.Equal(t, 2*blockLen, alloc.closed)
	assert.Equal(t, int32(2*blockLen), alloc.head)
	assert.False(t, alloc.listed[blockLen])
	assert.True(t, alloc.listed[2*blockLen])

	// A closed slot is still free and can be claimed directly.
	assert.Equal(t, freeSlot, alloc.check[7])
	require.NoError(t, alloc.claim(7, 0))
}

func TestSlotAllocator_AppendsWhenNothingFits(t *testing.T) {
	alloc := newSlotAllocator(0, 4)
	// Fill the first block completely, leaving the tail empty.
	for i := uint32(1); i < blockLen; i++ {
		require.NoError(t, alloc.claim(i, 0))
	}
	b := alloc.findBase([]uint32{1, 2, 3})
	assert.Equal(t, uint32(blockLen-1), b)
}

func TestOpenBlocksFor(t *testing.T) {
	assert.Equal(t, minOpenBlocks, openBlocksFor(26))
	assert.Equal(t, minOpenBlocks, openBlocksFor(7*blockLen))
	// The window always spans at least twice the alphabet.
	assert.GreaterOrEqual(t, openBlocksFor(3000)*blockLen, 6000)
}

// cjkPatterns returns n random patterns of 2-7 codepoints drawn from the
// first size CJK ideographs.
func cjkPatterns(n, size int) []Pattern[int] {
	r := rand.New(rand.NewPCG(uint64(n), uint64(size)))
	patterns := make([]Pattern[int], n)
	for i := range patterns {
		text := make([]rune, 2+r.IntN(6))
		for j := range text {
			text[j] = rune(0x4e00 + r.IntN(size))
		}
		patterns[i] = Pattern[int]{Text: string(text), Value: i}
	}
	return patterns
}

func TestCompact_StaysDenseOnLargeAlphabets(t *testing.T) {
	if testing.Short() {
		t.Skip("builds a 100k-pattern automaton")
	}
	for _, n := range []int{20_000, 100_000} {
		a := mustBuild(t, cjkPatterns(n, 3000), Standard)

		slots := len(a.da.check)
		assert.LessOrEqual(t, slots, 4*a.NumStates(),
			"%d patterns: %d slots for %d states", n, slots, a.NumStates())
		assert.Less(t, a.HeapBytes()/a.NumStates(), 160,
			"%d patterns: %d heap bytes per state", n, a.HeapBytes()/a.NumStates())
	}
}

func TestCompact_LargeAlphabetStillMatches(t *testing.T) {
	patterns := cjkPatterns(5_000, 3000)
	a := mustBuild(t, patterns, Standard)

	var sb strings.Builder
	for i := 0; i < 300; i += 3 {
		sb.WriteString(patterns[i].Text)
		sb.WriteRune(rune(0x4e00 + i))
	}
	text := sb.String()

	got, err := a.FindOverlapping(text)
	require.NoError(t, err)
	assert.Equal(t, newNaive(patterns, text).overlapping(), got)
}

// =============================================================================
// Code mapper: codepoint to dense alphabet code
// =============================================================================

func TestCodeMapper_FrequencyOrder(t *testing.T) {
	m := newCodeMapper([][]rune{[]rune("abb"), []rune("bcb")})

	// b appears four times, a and c once each; ties break by codepoint.
	assert.Equal(t, uint32(1), m.code('b'))
	assert.Equal(t, uint32(2), m.code('a'))
	assert.Equal(t, uint32(3), m.code('c'))
	assert.Equal(t, uint32(3), m.size)
}

func TestCodeMapper_Absent(t *testing.T) {
	m := newCodeMapper([][]rune{[]rune("x語")})

	assert.Zero(t, m.code('y'))
	assert.Zero(t, m.code('\U0010FFFF'))
	assert.Zero(t, m.code(-1))
	assert.Zero(t, m.code('誤'))
	assert.NotZero(t, m.code('語'))
}

func TestCodeMapper_OnlyTouchedPagesMaterialized(t *testing.T) {
	m := newCodeMapper([][]rune{[]rune("a\U0001F600")})
	assert.Len(t, m.table, 2*pageSize)
}
