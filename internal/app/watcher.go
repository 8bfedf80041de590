package app

import (
	"os"

	"github.com/corey/acsearch/internal/adapters/patternfile"
	"k8s.io/klog/v2"
)

// onPatternFileChanged handles a create/modify/delete event from the watcher.
func (a *App) onPatternFileChanged(absPath string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reloadLocked(absPath)
}

// reloadLocked brings the sets defined by the file at path in line with its
// content. A deleted file drops its sets. A file that no longer parses or
// compiles leaves the previous automaton serving.
func (a *App) reloadLocked(path string) {
	if _, err := patternfile.FormatOf(path); err != nil {
		return
	}
	previous := a.Registry.BySource(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		for _, name := range previous {
			if _, err := a.dropLocked(name); err != nil {
				klog.ErrorS(err, "Drop set of removed file", "set", name, "path", path)
				continue
			}
			klog.InfoS("Pattern set removed", "set", name, "path", path)
		}
		return
	}

	set, err := patternfile.LoadFile(path, a.defaultKind)
	if err != nil {
		klog.ErrorS(err, "Pattern file rejected, keeping previous sets", "path", path, "sets", previous)
		return
	}
	status, err := a.saveLocked(set)
	if err != nil {
		klog.ErrorS(err, "Pattern set rebuild failed, keeping previous automaton", "set", set.Name, "path", path)
		return
	}
	// The file was renamed internally; its old set is gone.
	for _, name := range previous {
		if name == set.Name {
			continue
		}
		if _, err := a.dropLocked(name); err != nil {
			klog.ErrorS(err, "Drop renamed set", "set", name, "path", path)
			continue
		}
		klog.InfoS("Pattern set renamed", "from", name, "to", set.Name, "path", path)
	}
	klog.InfoS("Pattern set built", "set", status.Name, "kind", status.Kind,
		"patterns", status.PatternCount, "states", status.States, "heapBytes", status.HeapBytes)
}
