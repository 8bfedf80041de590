package app

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/corey/acsearch/internal/adapters/metrics"
	"github.com/corey/acsearch/internal/domain/automaton"
	"github.com/corey/acsearch/internal/domain/casefold"
	"github.com/corey/acsearch/internal/ports"
)

// ErrSetNotFound is returned when a scan or lookup names no compiled set.
var ErrSetNotFound = ports.ErrSetNotFound

// compiledSet pairs a pattern set with the automaton built from it.
// Both are immutable once published.
type compiledSet struct {
	set     *ports.PatternSet
	ac      *automaton.Automaton[int]
	builtAt time.Time
}

// SetStatus describes one compiled set.
type SetStatus struct {
	ports.PatternSetInfo
	Reportable int
	States     int
	HeapBytes  int
	BuiltAt    time.Time
}

// ScanOutcome is the result of one scan.
type ScanOutcome struct {
	Set     string
	Mode    ScanMode
	Matches []ports.MatchRecord
	Folded  string // scanned text after case folding, empty when not folded
	Elapsed time.Duration
}

// Registry maps set names to compiled automata. Automata are never mutated:
// a rebuild compiles a fresh automaton and swaps the pointer, so scans in
// flight finish on the automaton they started with.
type Registry struct {
	mu      sync.RWMutex
	sets    map[string]*compiledSet
	metrics *metrics.Metrics // nil disables metrics
}

// NewRegistry creates an empty registry. m may be nil.
func NewRegistry(m *metrics.Metrics) *Registry {
	return &Registry{
		sets:    make(map[string]*compiledSet),
		metrics: m,
	}
}

// Compile builds the automaton for set without publishing it.
func Compile(set *ports.PatternSet) (*automaton.Automaton[int], error) {
	kind, err := automaton.ParseMatchKind(set.Kind)
	if err != nil {
		return nil, err
	}
	patterns := make([]automaton.Pattern[int], len(set.Patterns))
	for i, p := range set.Patterns {
		text := p.Text
		if set.IgnoreCase {
			text = casefold.Lower(text)
		}
		patterns[i] = automaton.Pattern[int]{Text: text, Value: p.Value}
	}
	return automaton.Build(patterns, kind)
}

// Build compiles set and publishes it under set.Name, replacing any
// previous automaton. On error the previous automaton stays in place.
func (r *Registry) Build(set *ports.PatternSet) (SetStatus, error) {
	ac, err := r.compile(set)
	if err != nil {
		return SetStatus{}, err
	}
	return r.publish(set, ac), nil
}

// compile builds the automaton for set and records the attempt.
func (r *Registry) compile(set *ports.PatternSet) (*automaton.Automaton[int], error) {
	if set == nil || set.Name == "" {
		return nil, fmt.Errorf("pattern set name required")
	}
	start := time.Now()
	ac, err := Compile(set)
	elapsed := time.Since(start)
	if err != nil {
		if r.metrics != nil {
			r.metrics.ObserveBuild(set.Name, set.Kind, elapsed, 0, 0, 0, err)
		}
		return nil, fmt.Errorf("build %q: %w", set.Name, err)
	}
	if r.metrics != nil {
		r.metrics.ObserveBuild(set.Name, set.Kind, elapsed, ac.HeapBytes(), ac.NumStates(), ac.NumPatterns(), nil)
	}
	return ac, nil
}

func (r *Registry) publish(set *ports.PatternSet, ac *automaton.Automaton[int]) SetStatus {
	cs := &compiledSet{set: set, ac: ac, builtAt: time.Now()}
	r.mu.Lock()
	r.sets[set.Name] = cs
	r.mu.Unlock()
	return cs.status()
}

// Get returns the automaton and pattern set published under name.
func (r *Registry) Get(name string) (*automaton.Automaton[int], *ports.PatternSet, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cs, ok := r.sets[name]
	if !ok {
		return nil, nil, false
	}
	return cs.ac, cs.set, true
}

// Drop removes name. Reports whether it was present.
func (r *Registry) Drop(name string) bool {
	r.mu.Lock()
	_, ok := r.sets[name]
	delete(r.sets, name)
	r.mu.Unlock()
	if ok && r.metrics != nil {
		r.metrics.ForgetSet(name)
	}
	return ok
}

// Status describes the set published under name.
func (r *Registry) Status(name string) (SetStatus, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cs, ok := r.sets[name]
	if !ok {
		return SetStatus{}, false
	}
	return cs.status(), true
}

// List describes every published set, sorted by name.
func (r *Registry) List() []SetStatus {
	r.mu.RLock()
	out := make([]SetStatus, 0, len(r.sets))
	for _, cs := range r.sets {
		out = append(out, cs.status())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// BySource returns the names of sets loaded from source, sorted.
func (r *Registry) BySource(source string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for name, cs := range r.sets {
		if cs.set.Source == source {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Scan runs text through the named set. Case-insensitive sets scan the
// folded text and report offsets into it.
func (r *Registry) Scan(name string, mode ScanMode, text string) (*ScanOutcome, error) {
	ac, set, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSetNotFound, name)
	}

	start := time.Now()
	out := &ScanOutcome{Set: name, Mode: mode.resolve(ac.MatchKind())}
	if set.IgnoreCase {
		if folded := casefold.Lower(text); folded != text {
			out.Folded = folded
			text = folded
		}
	}

	matches, err := out.Mode.run(ac, text)
	if err != nil {
		return nil, fmt.Errorf("scan %q: %w", name, err)
	}
	out.Matches = make([]ports.MatchRecord, len(matches))
	for i, m := range matches {
		out.Matches[i] = ports.MatchRecord{Start: m.Start, End: m.End, Value: m.Value}
	}
	out.Elapsed = time.Since(start)

	if r.metrics != nil {
		r.metrics.ObserveScan(name, out.Mode.String(), out.Elapsed, len(out.Matches))
	}
	return out, nil
}

func (cs *compiledSet) status() SetStatus {
	return SetStatus{
		PatternSetInfo: cs.set.Info(),
		Reportable:     cs.ac.NumPatterns(),
		States:         cs.ac.NumStates(),
		HeapBytes:      cs.ac.HeapBytes(),
		BuiltAt:        cs.builtAt,
	}
}
