package app

import (
	"testing"

	"github.com/corey/acsearch/internal/adapters/ahocorasick"
	"github.com/corey/acsearch/internal/domain/automaton"
	"github.com/corey/acsearch/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Verify: engine against the reference matcher
// =============================================================================

func setOf(kind string, ignoreCase bool, texts ...string) *ports.PatternSet {
	set := &ports.PatternSet{Name: "v", Kind: kind, IgnoreCase: ignoreCase}
	for i, text := range texts {
		set.Patterns = append(set.Patterns, ports.PatternEntry{Text: text, Value: 100 + i})
	}
	return set
}

func TestVerify_Agreement(t *testing.T) {
	cases := []struct {
		name string
		set  *ports.PatternSet
		text string
		mode ScanMode
	}{
		{"standard", setOf("standard", false, "he", "she", "his", "hers"), "ushers", ModeOverlapping},
		{"leftmost_longest", setOf("leftmost_longest", false, "ab", "abcd", "bcd", "d"), "abcdd", ModeLeftmost},
		{"leftmost_first", setOf("leftmost_first", false, "ab", "abcd", "bcd", "d"), "abcdd", ModeLeftmost},
		{"unicode", setOf("standard", false, "世界", "é", "界 c"), "こんにちは世界 café", ModeOverlapping},
		{"ignore_case", setOf("leftmost_longest", true, "Sam", "SAMWISE"), "samwise and SAM", ModeLeftmost},
		{"no_match", setOf("standard", false, "xyz"), "abc", ModeOverlapping},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			report, err := Verify(tc.set, tc.text, ahocorasick.New())
			require.NoError(t, err)
			assert.True(t, report.Agree, "engine %v reference %v", report.Engine, report.Reference)
			assert.Equal(t, tc.mode, report.Mode)
			assert.Equal(t, tc.set.Kind, report.Kind)
		})
	}
}

func TestVerify_ValuesArePositions(t *testing.T) {
	report, err := Verify(setOf("leftmost_first", false, "Samwise", "Sam"), "Samwise and Sam", ahocorasick.New())
	require.NoError(t, err)
	assert.Equal(t, records([3]int{0, 7, 0}, [3]int{12, 15, 1}), report.Engine)
}

// lyingMatcher reports one fixed match no matter what.
type lyingMatcher struct {
	patterns []string
	dropped  int // patterns silently lost by Build
}

func (m *lyingMatcher) Build(patterns []string, _ string) error {
	m.patterns = patterns[:len(patterns)-m.dropped]
	return nil
}
func (m *lyingMatcher) Find(string) []ports.MatchRecord {
	return records([3]int{0, 1, 0})
}
func (m *lyingMatcher) FindOverlapping(string) ([]ports.MatchRecord, error) {
	return records([3]int{0, 1, 0}), nil
}
func (m *lyingMatcher) PatternCount() int { return len(m.patterns) }
func (m *lyingMatcher) Pattern(idx int) string {
	if idx < 0 || idx >= len(m.patterns) {
		return ""
	}
	return m.patterns[idx]
}

func TestVerify_Disagreement(t *testing.T) {
	report, err := Verify(setOf("standard", false, "he"), "ushers", &lyingMatcher{})
	require.NoError(t, err)
	assert.False(t, report.Agree)
	assert.Equal(t, records([3]int{2, 4, 0}), report.Engine)
	assert.Equal(t, []Discrepancy{{Start: 2, End: 4, Pattern: 0, Text: "he"}}, report.EngineOnly)
	assert.Equal(t, []Discrepancy{{Start: 0, End: 1, Pattern: 0, Text: "he"}}, report.ReferenceOnly)
}

func TestVerify_DisagreementNamesFoldedPatterns(t *testing.T) {
	report, err := Verify(setOf("leftmost_first", true, "x", "HeRs"), "HERS", &lyingMatcher{})
	require.NoError(t, err)
	assert.False(t, report.Agree)
	assert.Equal(t, []Discrepancy{{Start: 0, End: 4, Pattern: 1, Text: "hers"}}, report.EngineOnly)
	assert.Equal(t, []Discrepancy{{Start: 0, End: 1, Pattern: 0, Text: "x"}}, report.ReferenceOnly)
}

func TestVerify_AgreementHasNoDiscrepancies(t *testing.T) {
	report, err := Verify(setOf("standard", false, "he", "she"), "ushers", ahocorasick.New())
	require.NoError(t, err)
	assert.True(t, report.Agree)
	assert.Nil(t, report.EngineOnly)
	assert.Nil(t, report.ReferenceOnly)
}

func TestVerify_ReferenceLostPatterns(t *testing.T) {
	_, err := Verify(setOf("standard", false, "he", "she"), "ushers", &lyingMatcher{dropped: 1})
	assert.ErrorContains(t, err, "holds 1 patterns, want 2")
}

func TestDiscrepancies_CountsDuplicates(t *testing.T) {
	a := records([3]int{0, 2, 0}, [3]int{0, 2, 0}, [3]int{3, 4, 1})
	b := records([3]int{0, 2, 0}, [3]int{3, 4, 1})
	got := discrepancies(a, b, func(i int) string { return []string{"ab", "c"}[i] })
	assert.Equal(t, []Discrepancy{{Start: 0, End: 2, Pattern: 0, Text: "ab"}}, got)
	assert.Empty(t, discrepancies(b, a, func(int) string { return "" }))
}

func TestVerify_Errors(t *testing.T) {
	_, err := Verify(setOf("greedy", false, "a"), "a", ahocorasick.New())
	assert.ErrorIs(t, err, automaton.ErrUnknownMatchKind)

	_, err = Verify(setOf("standard", false, "a", ""), "a", ahocorasick.New())
	assert.ErrorIs(t, err, automaton.ErrEmptyPattern)
}
