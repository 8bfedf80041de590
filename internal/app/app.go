// Package app wires together all adapters and domain logic.
// It provides lifecycle management for the acsearch daemon: create, start, stop.
package app

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/corey/acsearch/internal/adapters/bbolt"
	fsw "github.com/corey/acsearch/internal/adapters/fsnotify"
	"github.com/corey/acsearch/internal/adapters/metrics"
	"github.com/corey/acsearch/internal/adapters/socket"
	"github.com/corey/acsearch/internal/adapters/web"
	"github.com/corey/acsearch/internal/ports"
	"k8s.io/klog/v2"
)

// App is the top-level container wiring all components together.
type App struct {
	ProjectRoot string
	Paths       *Paths

	Store     ports.PatternStore
	Registry  *Registry
	Metrics   *metrics.Metrics
	Watcher   *fsw.Watcher
	Server    *socket.Server
	WebServer *web.Server

	closer      func() error // closes the store
	defaultKind string
	httpPort    int  // preferred HTTP port (0 = computed from project root, -1 = disabled)
	watch       bool // watch the patterns directory after Start
	mu          sync.Mutex // serializes build/drop/reload so store and registry agree
	stopOnce    sync.Once
}

// Config holds initialization parameters for the App.
type Config struct {
	ProjectRoot string
	DBPath      string // path to bbolt file (default: .acsearch/acsearch.db)
	PatternsDir string // watched pattern files (default: .acsearch/patterns)
	DefaultKind string // kind for pattern files that name none (default: standard)
	HTTPPort    int    // preferred HTTP port (default: computed from project root; -1 disables)
	NoWatch     bool   // do not watch PatternsDir
}

// New creates an App with all dependencies wired. Does not start services
// and does not load any pattern set; see Load and Start.
func New(cfg Config) (*App, error) {
	if cfg.ProjectRoot == "" {
		return nil, fmt.Errorf("project root required")
	}
	// Set sources are compared as absolute paths.
	root, err := filepath.Abs(cfg.ProjectRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}
	cfg.ProjectRoot = root
	paths := NewPaths(root)
	if cfg.DBPath == "" {
		cfg.DBPath = paths.DB
	}
	if cfg.PatternsDir != "" {
		if paths.PatternsDir, err = filepath.Abs(cfg.PatternsDir); err != nil {
			return nil, fmt.Errorf("resolve patterns dir: %w", err)
		}
	}
	if cfg.DefaultKind == "" {
		cfg.DefaultKind = "standard"
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	store, err := bbolt.NewStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	var watcher *fsw.Watcher
	if !cfg.NoWatch {
		watcher, err = fsw.NewWatcher()
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("create watcher: %w", err)
		}
	}

	m := metrics.New()
	a := &App{
		ProjectRoot: cfg.ProjectRoot,
		Paths:       paths,
		Store:       store,
		Registry:    NewRegistry(m),
		Metrics:     m,
		Watcher:     watcher,
		closer:      store.Close,
		defaultKind: cfg.DefaultKind,
		httpPort:    cfg.HTTPPort,
		watch:       !cfg.NoWatch,
	}

	a.Server = socket.NewServer(socket.SocketPath(cfg.ProjectRoot), a, m)
	a.WebServer = web.NewServer(a, m.Handler(), paths.PortFile)

	return a, nil
}

// Load compiles every stored set, then every file in the patterns directory
// and its non-hidden subdirectories.
// A file-backed set overrides the stored copy of the same name. Stored sets
// whose pattern file disappeared while the daemon was down are removed. A set
// that fails to compile is logged and skipped.
func (a *App) Load() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	infos, err := a.Store.ListPatternSets()
	if err != nil {
		return fmt.Errorf("list stored sets: %w", err)
	}
	for _, info := range infos {
		if a.isManagedFile(info.Source) {
			if _, err := os.Stat(info.Source); os.IsNotExist(err) {
				klog.InfoS("Pattern file gone, dropping stored set", "set", info.Name, "source", info.Source)
				if _, err := a.dropLocked(info.Name); err != nil {
					klog.ErrorS(err, "Drop set of removed file", "set", info.Name, "source", info.Source)
				}
				continue
			}
		}
		set, err := a.Store.LoadPatternSet(info.Name)
		if err != nil {
			return fmt.Errorf("load set %q: %w", info.Name, err)
		}
		if set == nil {
			continue
		}
		if _, err := a.Registry.Build(set); err != nil {
			klog.ErrorS(err, "Skipping stored set", "set", info.Name)
		}
	}

	// Walk the same tree the watcher watches: subdirectories included,
	// hidden ones skipped.
	root := a.Paths.PatternsDir
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil
	}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			klog.ErrorS(err, "Skipping unreadable pattern path", "path", path)
			return nil
		}
		if d.IsDir() {
			if path != root && fsw.IsHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if fsw.IsHidden(d.Name()) {
			return nil
		}
		a.reloadLocked(path)
		return nil
	})
	if err != nil {
		return fmt.Errorf("read patterns dir: %w", err)
	}

	klog.InfoS("Pattern sets loaded", "count", len(a.Registry.List()))
	return nil
}

// Start loads the pattern sets and begins the daemon (socket server, HTTP
// server, pattern directory watcher).
func (a *App) Start() error {
	if err := a.Paths.EnsureDirs(); err != nil {
		return fmt.Errorf("create dirs: %w", err)
	}
	if err := a.Load(); err != nil {
		return err
	}
	if err := a.Server.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	// HTTP is non-fatal if the port is taken
	if a.httpPort >= 0 {
		httpPort := a.httpPort
		if httpPort == 0 {
			httpPort = web.DefaultPort(a.ProjectRoot)
		}
		if err := a.WebServer.Start(httpPort); err != nil {
			klog.ErrorS(err, "HTTP server unavailable", "port", httpPort)
		} else {
			klog.InfoS("HTTP server listening", "url", a.WebServer.URL())
		}
	}
	// Watcher is non-fatal too
	if a.watch {
		if err := a.Watcher.Watch(a.Paths.PatternsDir, a.onPatternFileChanged); err != nil {
			klog.ErrorS(err, "Pattern watcher unavailable", "dir", a.Paths.PatternsDir)
		}
	}
	klog.InfoS("Daemon started", "socket", a.Server.Addr(), "sets", len(a.Registry.List()))
	return nil
}

// Stop shuts down all services and closes the store. Idempotent.
func (a *App) Stop() error {
	var err error
	a.stopOnce.Do(func() {
		if a.Watcher != nil {
			a.Watcher.Stop()
		}
		a.WebServer.Stop()
		a.Server.Stop()
		a.mu.Lock()
		err = a.closer()
		a.mu.Unlock()
	})
	return err
}

// Save compiles set, stores it and publishes it. Nothing is stored and the
// previous automaton stays live when the set does not compile.
func (a *App) Save(set *ports.PatternSet) (SetStatus, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.saveLocked(set)
}

func (a *App) saveLocked(set *ports.PatternSet) (SetStatus, error) {
	if set.UpdatedAt == 0 {
		set.UpdatedAt = time.Now().Unix()
	}
	ac, err := a.Registry.compile(set)
	if err != nil {
		return SetStatus{}, err
	}
	if err := a.Store.SavePatternSet(set); err != nil {
		return SetStatus{}, fmt.Errorf("store %q: %w", set.Name, err)
	}
	return a.Registry.publish(set, ac), nil
}

// Drop removes name from the registry and the store. Reports whether the set
// was compiled.
func (a *App) Drop(name string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dropLocked(name)
}

func (a *App) dropLocked(name string) (bool, error) {
	found := a.Registry.Drop(name)
	if err := a.Store.DeletePatternSet(name); err != nil {
		return found, fmt.Errorf("delete %q: %w", name, err)
	}
	return found, nil
}

func (a *App) isManagedFile(source string) bool {
	if source == "" {
		return false
	}
	rel, err := filepath.Rel(a.Paths.PatternsDir, source)
	return err == nil && filepath.IsLocal(rel)
}
