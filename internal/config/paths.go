package config

import "path/filepath"

// Paths holds every root directory octidy touches. It is resolved once at
// startup and passed down explicitly.
type Paths struct {
	Home         string // used only to shorten paths for display
	DataDir      string
	StorageDir   string
	SnapshotDir  string
	LogDir       string
	FrecencyFile string
}

// ResolvePaths computes the OpenCode roots for home, honoring overrides in cfg.
func ResolvePaths(cfg *Config, home string) Paths {
	dataDir := filepath.Join(home, ".local", "share", "opencode")
	stateDir := filepath.Join(home, ".local", "state", "opencode")
	if cfg != nil {
		if cfg.DataDir != "" {
			dataDir = cfg.DataDir
		}
		if cfg.StateDir != "" {
			stateDir = cfg.StateDir
		}
	}
	return PathsFor(home, dataDir, stateDir)
}

// PathsFor lays out the OpenCode tree beneath explicit data and state roots.
// Tests use it to point everything at a temporary directory.
func PathsFor(home, dataDir, stateDir string) Paths {
	return Paths{
		Home:         home,
		DataDir:      dataDir,
		StorageDir:   filepath.Join(dataDir, "storage"),
		SnapshotDir:  filepath.Join(dataDir, "snapshot"),
		LogDir:       filepath.Join(dataDir, "log"),
		FrecencyFile: filepath.Join(stateDir, "frecency.jsonl"),
	}
}
