package ports

// Watcher monitors a pattern directory for file changes and triggers rebuilds.
// The adapter (fsnotify) must filter out files that are not pattern files
// before invoking onChange. Only one Watch call should be active at a time.
type Watcher interface {
	// Watch starts monitoring dir. onChange is called with the absolute path
	// of each created, written, renamed or removed pattern file. The callback
	// may be invoked from any goroutine. Returns an error if the directory
	// doesn't exist or permissions are insufficient.
	Watch(dir string, onChange func(filePath string)) error

	// Stop ends monitoring and releases all resources. After Stop returns,
	// no further onChange calls will fire. Safe to call multiple times.
	Stop() error
}
