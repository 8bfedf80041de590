package app

import (
	"fmt"
	"slices"

	"github.com/corey/acsearch/internal/domain/automaton"
	"github.com/corey/acsearch/internal/domain/casefold"
	"github.com/corey/acsearch/internal/ports"
)

// VerifyReport compares the engine with a reference matcher on one text.
// Values in both result lists are pattern positions, not the set's values.
type VerifyReport struct {
	Set       string              `json:"set"`
	Kind      string              `json:"kind"`
	Mode      ScanMode            `json:"mode"`
	Engine    []ports.MatchRecord `json:"engine"`
	Reference []ports.MatchRecord `json:"reference"`
	Agree     bool                `json:"agree"`

	// On disagreement, the matches only one side reported.
	EngineOnly    []Discrepancy `json:"engine_only,omitempty"`
	ReferenceOnly []Discrepancy `json:"reference_only,omitempty"`
}

// Discrepancy is a match reported by one side only, with its pattern text.
type Discrepancy struct {
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Pattern int    `json:"pattern"`
	Text    string `json:"text"`
}

// Verify builds set with the engine and with ref, scans text with both and
// reports whether they agree. Standard sets are compared on overlapping
// results as a multiset, since the reference orders ties differently;
// leftmost sets are compared exactly.
func Verify(set *ports.PatternSet, text string, ref ports.ReferenceMatcher) (*VerifyReport, error) {
	kind, err := automaton.ParseMatchKind(set.Kind)
	if err != nil {
		return nil, err
	}
	texts := set.Texts()
	if set.IgnoreCase {
		for i := range texts {
			texts[i] = casefold.Lower(texts[i])
		}
		text = casefold.Lower(text)
	}

	ac, err := automaton.Build(automaton.Indexed(texts...), kind)
	if err != nil {
		return nil, fmt.Errorf("engine build: %w", err)
	}
	if err := ref.Build(texts, set.Kind); err != nil {
		return nil, fmt.Errorf("reference build: %w", err)
	}
	if n := ref.PatternCount(); n != len(texts) {
		return nil, fmt.Errorf("reference build: holds %d patterns, want %d", n, len(texts))
	}

	report := &VerifyReport{Set: set.Name, Kind: set.Kind, Mode: ModeAuto.resolve(kind)}
	engine, err := report.Mode.run(ac, text)
	if err != nil {
		return nil, err
	}
	report.Engine = make([]ports.MatchRecord, len(engine))
	for i, m := range engine {
		report.Engine[i] = ports.MatchRecord{Start: m.Start, End: m.End, Value: m.Value}
	}

	if kind.IsLeftmost() {
		report.Reference = ref.Find(text)
		report.Agree = slices.Equal(report.Engine, report.Reference)
	} else {
		report.Reference, err = ref.FindOverlapping(text)
		if err != nil {
			return nil, fmt.Errorf("reference scan: %w", err)
		}
		report.Agree = slices.Equal(sortedRecords(report.Engine), sortedRecords(report.Reference))
	}

	if !report.Agree {
		engineText := func(i int) string {
			if i < 0 || i >= len(texts) {
				return ""
			}
			return texts[i]
		}
		report.EngineOnly = discrepancies(report.Engine, report.Reference, engineText)
		report.ReferenceOnly = discrepancies(report.Reference, report.Engine, ref.Pattern)
	}
	return report, nil
}

// discrepancies lists the records of a missing from b, counting duplicates.
func discrepancies(a, b []ports.MatchRecord, pattern func(int) string) []Discrepancy {
	remaining := make(map[ports.MatchRecord]int, len(b))
	for _, r := range b {
		remaining[r]++
	}
	var out []Discrepancy
	for _, r := range a {
		if remaining[r] > 0 {
			remaining[r]--
			continue
		}
		out = append(out, Discrepancy{Start: r.Start, End: r.End, Pattern: r.Value, Text: pattern(r.Value)})
	}
	return out
}

func sortedRecords(in []ports.MatchRecord) []ports.MatchRecord {
	out := slices.Clone(in)
	slices.SortFunc(out, func(a, b ports.MatchRecord) int {
		if a.End != b.End {
			return a.End - b.End
		}
		if a.Start != b.Start {
			return a.Start - b.Start
		}
		return a.Value - b.Value
	})
	return out
}
