package patternfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/corey/acsearch/internal/domain/automaton"
	"github.com/corey/acsearch/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Pattern files: YAML and line formats
// Expectation: files parse into validated pattern sets; anything Build would
// reject is reported with the file name first.
// =============================================================================

func TestParseYAML_Full(t *testing.T) {
	src := `
name: errors
kind: leftmost_first
ignore_case: true
patterns:
  - text: connection refused
    value: 10
  - timeout
  - text: "panic:"
`
	set, err := Parse(strings.NewReader(src), FormatYAML, "fallback", "standard")
	require.NoError(t, err)
	assert.Equal(t, &ports.PatternSet{
		Name:       "errors",
		Kind:       "leftmost_first",
		IgnoreCase: true,
		Patterns: []ports.PatternEntry{
			{Text: "connection refused", Value: 10},
			{Text: "timeout", Value: 1},
			{Text: "panic:", Value: 2},
		},
	}, set)
}

func TestParseYAML_Defaults(t *testing.T) {
	set, err := Parse(strings.NewReader("patterns: [he, she]\n"), FormatYAML, "ushers", "leftmost_longest")
	require.NoError(t, err)
	assert.Equal(t, "ushers", set.Name)
	assert.Equal(t, "leftmost_longest", set.Kind)
	assert.Equal(t, []string{"he", "she"}, set.Texts())
}

func TestParseYAML_Errors(t *testing.T) {
	cases := map[string]string{
		"empty document": "",
		"no patterns":    "name: x\n",
		"unknown kind":   "kind: greedy\npatterns: [a]\n",
		"unknown field":  "patterns: [a]\ncolour: red\n",
		"empty pattern":  "patterns: [a, '']\n",
		"not yaml":       "patterns: [a\n",
	}
	for name, src := range cases {
		_, err := Parse(strings.NewReader(src), FormatYAML, "x", "standard")
		assert.Error(t, err, name)
	}

	_, err := Parse(strings.NewReader("kind: greedy\npatterns: [a]\n"), FormatYAML, "x", "standard")
	assert.ErrorIs(t, err, automaton.ErrUnknownMatchKind)

	_, err = Parse(strings.NewReader("patterns: [a, '']\n"), FormatYAML, "x", "standard")
	assert.ErrorIs(t, err, automaton.ErrEmptyPattern)
}

func TestParseLines(t *testing.T) {
	src := "# comment\nalpha\n\nbeta\t42\r\n gamma \ndelta\t-3\n"
	set, err := Parse(strings.NewReader(src), FormatLines, "words", "standard")
	require.NoError(t, err)
	assert.Equal(t, "words", set.Name)
	assert.Equal(t, "standard", set.Kind)
	assert.Equal(t, []ports.PatternEntry{
		{Text: "alpha", Value: 0},
		{Text: "beta", Value: 42},
		{Text: " gamma ", Value: 2},
		{Text: "delta", Value: -3},
	}, set.Patterns)
}

func TestParseLines_BadValue(t *testing.T) {
	_, err := Parse(strings.NewReader("a\t1\nb\tx\n"), FormatLines, "w", "standard")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestFormatOf(t *testing.T) {
	for path, want := range map[string]Format{
		"a.yaml": FormatYAML,
		"a.YML":  FormatYAML,
		"a.txt":  FormatLines,
		"a.tsv":  FormatLines,
	} {
		got, err := FormatOf(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}
	_, err := FormatOf("a.json")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestSetName(t *testing.T) {
	assert.Equal(t, "errors", SetName("/etc/patterns/errors.yaml"))
	assert.Equal(t, "my.words", SetName("my.words.txt"))
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stop.txt")
	require.NoError(t, os.WriteFile(path, []byte("the\na\nan\n"), 0644))

	set, err := LoadFile(path, "leftmost_first")
	require.NoError(t, err)
	assert.Equal(t, "stop", set.Name)
	assert.Equal(t, "leftmost_first", set.Kind)
	assert.Equal(t, path, set.Source)
	assert.Positive(t, set.UpdatedAt)
	assert.Len(t, set.Patterns, 3)

	_, err = LoadFile(filepath.Join(dir, "missing.txt"), "standard")
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("kind: nope\npatterns: [a]\n"), 0644))
	_, err = LoadFile(bad, "standard")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")
}

func TestLoadDir(t *testing.T) {
	fsys := fstest.MapFS{
		"patterns/b.yaml":      {Data: []byte("patterns: [x]\n")},
		"patterns/a.txt":       {Data: []byte("y\n")},
		"patterns/README.md":   {Data: []byte("# docs\n")},
		"patterns/.hidden.txt": {Data: []byte("z\n")},
		"patterns/sub/c.txt":   {Data: []byte("w\n")},
	}
	sets, err := LoadDir(fsys, "patterns", "standard")
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.Equal(t, "a", sets[0].Name)
	assert.Equal(t, "b", sets[1].Name)
	assert.Equal(t, "patterns/a.txt", sets[0].Source)
}

func TestLoadDir_DuplicateName(t *testing.T) {
	fsys := fstest.MapFS{
		"p/one.yaml": {Data: []byte("name: same\npatterns: [x]\n")},
		"p/two.yaml": {Data: []byte("name: same\npatterns: [y]\n")},
	}
	_, err := LoadDir(fsys, "p", "standard")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate set name")
}
