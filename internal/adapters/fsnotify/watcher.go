// Package fsnotify implements the ports.Watcher interface using github.com/fsnotify/fsnotify.
// It watches a pattern directory (and its subdirectories), passes through only
// pattern files, and debounces rapid events (editors often trigger multiple
// writes per save).
package fsnotify

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"k8s.io/klog/v2"
)

// DefaultExtensions are the pattern file extensions watched when NewWatcher
// is called without any.
var DefaultExtensions = []string{".yaml", ".yml", ".txt", ".tsv"}

// Editor scratch files that share a pattern extension or sit next to one.
var ignoreSuffixes = []string{"~", ".swp", ".swx", ".tmp", ".bak"}

const debounceInterval = 50 * time.Millisecond

// Watcher implements ports.Watcher using fsnotify.
type Watcher struct {
	fw      *fsnotify.Watcher
	exts    map[string]bool
	done    chan struct{}
	stopped bool
	mu      sync.Mutex
}

// NewWatcher creates a watcher that reports changes to files with the given
// extensions (case-insensitive, leading dot included).
func NewWatcher(exts ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	w := &Watcher{
		fw:   fw,
		exts: make(map[string]bool, len(exts)),
		done: make(chan struct{}),
	}
	for _, ext := range exts {
		w.exts[strings.ToLower(ext)] = true
	}
	return w, nil
}

// Watch starts monitoring dir and its subdirectories.
// onChange is called with the absolute path of each changed pattern file.
func (w *Watcher) Watch(dir string, onChange func(filePath string)) error {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if _, err := os.Stat(absPath); err != nil {
		return err
	}

	err = filepath.Walk(absPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip inaccessible paths
		}
		if info.IsDir() {
			if IsHidden(info.Name()) && path != absPath {
				return filepath.SkipDir
			}
			return w.fw.Add(path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Debounce state: last event time per file
	debounce := make(map[string]time.Time)

	go func() {
		for {
			select {
			case event, ok := <-w.fw.Events:
				if !ok {
					return
				}
				path := event.Name

				// New subdirectories join the watch list
				if event.Has(fsnotify.Create) {
					if info, err := os.Stat(path); err == nil && info.IsDir() {
						if !IsHidden(info.Name()) {
							if err := w.fw.Add(path); err != nil {
								klog.ErrorS(err, "Failed to watch new directory", "dir", path)
							}
						}
						continue
					}
				}

				if !w.isPatternFile(path) {
					continue
				}
				if !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
					event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)) {
					continue
				}

				now := time.Now()
				if last, seen := debounce[path]; seen && now.Sub(last) < debounceInterval {
					continue
				}
				debounce[path] = now

				klog.V(4).InfoS("Pattern file changed", "path", path, "op", event.Op.String())
				onChange(path)

			case err, ok := <-w.fw.Errors:
				if !ok {
					return
				}
				// fsnotify recovers on its own; log and keep going
				klog.ErrorS(err, "Watcher error", "dir", absPath)

			case <-w.done:
				return
			}
		}
	}()

	return nil
}

// Stop ends monitoring and releases all resources.
// Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.done)
	return w.fw.Close()
}

// isPatternFile reports whether path should trigger onChange.
func (w *Watcher) isPatternFile(path string) bool {
	base := filepath.Base(path)
	if IsHidden(base) {
		return false
	}
	for _, suffix := range ignoreSuffixes {
		if strings.HasSuffix(base, suffix) {
			return false
		}
	}
	return w.exts[strings.ToLower(filepath.Ext(base))]
}

// IsHidden reports whether a file or directory name is hidden. Hidden
// directories below the watched root are not watched.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
