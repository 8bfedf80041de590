package app

import (
	"os"
	"path/filepath"
)

// Paths holds all resolved filesystem paths for the .acsearch/ project directory.
type Paths struct {
	Root        string // .acsearch/
	DB          string // .acsearch/acsearch.db
	PatternsDir string // .acsearch/patterns/

	LogDir    string // .acsearch/log/
	DaemonLog string // .acsearch/log/daemon.log

	RunDir   string // .acsearch/run/
	PIDFile  string // .acsearch/run/daemon.pid
	PortFile string // .acsearch/run/metrics.port
}

// NewPaths constructs all resolved paths from a project root directory.
func NewPaths(projectRoot string) *Paths {
	root := filepath.Join(projectRoot, ".acsearch")
	return &Paths{
		Root:        root,
		DB:          filepath.Join(root, "acsearch.db"),
		PatternsDir: filepath.Join(root, "patterns"),

		LogDir:    filepath.Join(root, "log"),
		DaemonLog: filepath.Join(root, "log", "daemon.log"),

		RunDir:   filepath.Join(root, "run"),
		PIDFile:  filepath.Join(root, "run", "daemon.pid"),
		PortFile: filepath.Join(root, "run", "metrics.port"),
	}
}

// EnsureDirs creates all subdirectories under .acsearch/. Idempotent.
func (p *Paths) EnsureDirs() error {
	for _, d := range []string{p.Root, p.PatternsDir, p.LogDir, p.RunDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return err
		}
	}
	return nil
}

// CleanEphemeral removes ephemeral runtime files (PID file and port file).
// Called on clean daemon shutdown.
func (p *Paths) CleanEphemeral() {
	os.Remove(p.PIDFile)
	os.Remove(p.PortFile)
}
