package app

import (
	"fmt"

	"github.com/corey/acsearch/internal/adapters/socket"
)

var _ socket.AppQueries = (*App)(nil)

// BuildSet compiles, stores and publishes a set received over the socket.
func (a *App) BuildSet(params socket.BuildParams) (socket.SetInfoResult, error) {
	set := params.Set
	if set.Kind == "" {
		set.Kind = a.defaultKind
	}
	set.Source = ""
	status, err := a.Save(&set)
	if err != nil {
		return socket.SetInfoResult{}, err
	}
	return setInfoResult(status), nil
}

// ScanSet runs a scan request.
func (a *App) ScanSet(params socket.ScanParams) (socket.ScanResult, error) {
	mode, err := ParseScanMode(params.Mode)
	if err != nil {
		return socket.ScanResult{}, err
	}
	out, err := a.Registry.Scan(params.Name, mode, params.Text)
	if err != nil {
		return socket.ScanResult{}, err
	}
	return scanResult(out), nil
}

// SetInfo describes a compiled set.
func (a *App) SetInfo(name string) (socket.SetInfoResult, error) {
	status, ok := a.Registry.Status(name)
	if !ok {
		return socket.SetInfoResult{}, fmt.Errorf("%w: %q", ErrSetNotFound, name)
	}
	return setInfoResult(status), nil
}

// ListSets describes every compiled set.
func (a *App) ListSets() socket.ListResult {
	statuses := a.Registry.List()
	result := socket.ListResult{Sets: make([]socket.SetInfoResult, len(statuses)), Count: len(statuses)}
	for i, s := range statuses {
		result.Sets[i] = setInfoResult(s)
	}
	return result
}

// DropSet removes a set from the registry and the store.
func (a *App) DropSet(name string) error {
	found, err := a.Drop(name)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %q", ErrSetNotFound, name)
	}
	return nil
}

func setInfoResult(s SetStatus) socket.SetInfoResult {
	return socket.SetInfoResult{
		Name:       s.Name,
		Kind:       s.Kind,
		IgnoreCase: s.IgnoreCase,
		Source:     s.Source,
		UpdatedAt:  s.UpdatedAt,
		Patterns:   s.PatternCount,
		Reportable: s.Reportable,
		States:     s.States,
		HeapBytes:  s.HeapBytes,
	}
}

func scanResult(out *ScanOutcome) socket.ScanResult {
	return socket.ScanResult{
		Set:     out.Set,
		Mode:    out.Mode.String(),
		Matches: out.Matches,
		Count:   len(out.Matches),
		Folded:  out.Folded,
		Elapsed: out.Elapsed.String(),
	}
}
