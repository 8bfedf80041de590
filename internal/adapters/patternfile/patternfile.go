// Package patternfile reads pattern sets from files.
//
// Two formats are understood, chosen by extension:
//
// YAML (.yaml, .yml) holds one set:
//
//	name: errors            # defaults to the file name without extension
//	kind: leftmost_first    # defaults to the loader's default kind
//	ignore_case: true
//	patterns:
//	  - text: connection refused
//	    value: 10
//	  - timeout             # shorthand: value is the pattern's position
//
// Line files (.txt, .tsv) hold one pattern per line, optionally followed by a
// tab and an integer value. Blank lines and lines starting with '#' are
// skipped. A pattern without a value gets its position in the set.
package patternfile

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/corey/acsearch/internal/domain/automaton"
	"github.com/corey/acsearch/internal/ports"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for files whose extension names no known format.
var ErrUnsupportedFormat = errors.New("unsupported pattern file format")

// Format is a pattern file syntax.
type Format int

const (
	FormatYAML Format = iota
	FormatLines
)

// FormatOf returns the format implied by path's extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".txt", ".tsv":
		return FormatLines, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}
}

// SetName returns the default set name for a file: its base name without
// extension.
func SetName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// yamlSet is the YAML-serialized form of a PatternSet.
type yamlSet struct {
	Name       string        `yaml:"name"`
	Kind       string        `yaml:"kind"`
	IgnoreCase bool          `yaml:"ignore_case"`
	Patterns   []yamlPattern `yaml:"patterns"`
}

// yamlPattern accepts either a mapping with text and value or a bare scalar.
type yamlPattern struct {
	Text  string `yaml:"text"`
	Value *int   `yaml:"value"`
}

func (p *yamlPattern) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&p.Text)
	}
	type plain yamlPattern
	var decoded plain
	if err := node.Decode(&decoded); err != nil {
		return err
	}
	*p = yamlPattern(decoded)
	return nil
}

// LoadFile reads and validates the pattern file at path. defaultKind applies
// when the file does not name a kind.
func LoadFile(path, defaultKind string) (*ports.PatternSet, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	set, err := Parse(bytes.NewReader(data), format, SetName(path), defaultKind)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if abs, err := filepath.Abs(path); err == nil {
		set.Source = abs
	} else {
		set.Source = path
	}
	if info, err := os.Stat(path); err == nil {
		set.UpdatedAt = info.ModTime().Unix()
	}
	return set, nil
}

// LoadDir loads every pattern file directly inside dir, sorted by file name.
// Files with other extensions are skipped. Two files may not define the same
// set name.
func LoadDir(fsys fs.FS, dir, defaultKind string) ([]*ports.PatternSet, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read pattern dir %q: %w", dir, err)
	}

	// Sort for deterministic load order
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	var sets []*ports.PatternSet
	seen := make(map[string]string) // set name → source file
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		format, err := FormatOf(entry.Name())
		if err != nil {
			continue
		}

		name := path.Join(dir, entry.Name())
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		set, err := Parse(bytes.NewReader(data), format, SetName(entry.Name()), defaultKind)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		if prev, ok := seen[set.Name]; ok {
			return nil, fmt.Errorf("duplicate set name %q (first in %s, again in %s)", set.Name, prev, entry.Name())
		}
		seen[set.Name] = entry.Name()
		set.Source = name
		sets = append(sets, set)
	}
	return sets, nil
}

// Parse reads one pattern set in the given format. name and defaultKind fill
// in what the content leaves unset.
func Parse(r io.Reader, format Format, name, defaultKind string) (*ports.PatternSet, error) {
	var (
		set *ports.PatternSet
		err error
	)
	switch format {
	case FormatYAML:
		set, err = parseYAML(r)
	case FormatLines:
		set, err = parseLines(r)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	if set.Name == "" {
		set.Name = name
	}
	if set.Kind == "" {
		set.Kind = defaultKind
	}
	if err := Validate(set); err != nil {
		return nil, err
	}
	return set, nil
}

// Validate checks what Build would reject, so a bad file is reported with
// its name before any automaton work starts.
func Validate(set *ports.PatternSet) error {
	if set.Name == "" {
		return fmt.Errorf("set name required")
	}
	if _, err := automaton.ParseMatchKind(set.Kind); err != nil {
		return err
	}
	if len(set.Patterns) == 0 {
		return automaton.ErrNoPatterns
	}
	for i, p := range set.Patterns {
		if p.Text == "" {
			return &automaton.BuildError{Index: i, Err: automaton.ErrEmptyPattern}
		}
	}
	return nil
}

func parseYAML(r io.Reader) (*ports.PatternSet, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var ys yamlSet
	if err := dec.Decode(&ys); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, automaton.ErrNoPatterns
		}
		return nil, err
	}

	set := &ports.PatternSet{
		Name:       ys.Name,
		Kind:       ys.Kind,
		IgnoreCase: ys.IgnoreCase,
		Patterns:   make([]ports.PatternEntry, len(ys.Patterns)),
	}
	for i, yp := range ys.Patterns {
		value := i
		if yp.Value != nil {
			value = *yp.Value
		}
		set.Patterns[i] = ports.PatternEntry{Text: yp.Text, Value: value}
	}
	return set, nil
}

func parseLines(r io.Reader) (*ports.PatternSet, error) {
	set := &ports.PatternSet{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		text, rawValue, hasValue := strings.Cut(line, "\t")
		value := len(set.Patterns)
		if hasValue {
			v, err := strconv.Atoi(strings.TrimSpace(rawValue))
			if err != nil {
				return nil, fmt.Errorf("line %d: value %q is not an integer", lineNo, rawValue)
			}
			value = v
		}
		set.Patterns = append(set.Patterns, ports.PatternEntry{Text: text, Value: value})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return set, nil
}
