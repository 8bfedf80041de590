package app

import (
	"fmt"

	"github.com/corey/acsearch/internal/domain/automaton"
	"github.com/corey/acsearch/internal/ports"
)

// ErrUnknownScanMode is returned for a scan mode name outside the closed set.
var ErrUnknownScanMode = ports.ErrUnknownScanMode

// ScanMode selects which iterator a scan runs.
type ScanMode int

const (
	// ModeAuto picks overlapping for standard sets and leftmost otherwise.
	ModeAuto ScanMode = iota
	ModeFind
	ModeOverlapping
	ModeOverlappingNoSuffix
	ModeLeftmost
)

var modeNames = [...]string{
	ModeAuto:                "",
	ModeFind:                "find",
	ModeOverlapping:         "overlapping",
	ModeOverlappingNoSuffix: "overlapping_no_suffix",
	ModeLeftmost:            "leftmost",
}

// ParseScanMode maps a wire name to a ScanMode. The empty string is ModeAuto.
func ParseScanMode(s string) (ScanMode, error) {
	for m, name := range modeNames {
		if name == s {
			return ScanMode(m), nil
		}
	}
	return ModeAuto, fmt.Errorf("%w %q", ErrUnknownScanMode, s)
}

func (m ScanMode) String() string {
	if m == ModeAuto {
		return "auto"
	}
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("ScanMode(%d)", int(m))
	}
	return modeNames[m]
}

// MarshalText encodes the mode by name.
func (m ScanMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// resolve turns ModeAuto into the natural mode for kind.
func (m ScanMode) resolve(kind automaton.MatchKind) ScanMode {
	if m != ModeAuto {
		return m
	}
	if kind.IsLeftmost() {
		return ModeLeftmost
	}
	return ModeOverlapping
}

// run executes the mode's iterator over text.
func (m ScanMode) run(ac *automaton.Automaton[int], text string) ([]automaton.Match[int], error) {
	switch m {
	case ModeFind:
		return ac.FindAll(text)
	case ModeOverlapping:
		return ac.FindOverlapping(text)
	case ModeOverlappingNoSuffix:
		return ac.FindOverlappingNoSuffix(text)
	case ModeLeftmost:
		return ac.LeftmostFind(text)
	default:
		return nil, fmt.Errorf("%w %s", ErrUnknownScanMode, m)
	}
}
