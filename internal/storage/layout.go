package storage

import (
	"path/filepath"
	"strings"

	"github.com/hpungsan/octidy/internal/config"
)

const recordExt = ".json"

// Layout maps entity ids to filesystem paths. It is the only place that
// knows how the OpenCode store is laid out on disk; every foreign-key join
// (session -> messages, message -> parts) goes through one of its methods.
type Layout struct {
	paths config.Paths
}

// NewLayout returns a Layout rooted at paths.
func NewLayout(paths config.Paths) Layout {
	return Layout{paths: paths}
}

// Paths returns the roots the layout was built from.
func (l Layout) Paths() config.Paths { return l.paths }

// ValidID reports whether id can be joined onto a layout root without
// escaping it. Ids never contain separators or "..", and "." would name the
// parent directory itself.
func ValidID(id string) bool {
	return id != "" && id != "." &&
		!strings.ContainsAny(id, `/\`) &&
		!strings.Contains(id, "..")
}

// ProjectsDir is storage/project.
func (l Layout) ProjectsDir() string {
	return filepath.Join(l.paths.StorageDir, "project")
}

// ProjectFile is storage/project/<projectID>.json.
func (l Layout) ProjectFile(projectID string) string {
	return filepath.Join(l.ProjectsDir(), projectID+recordExt)
}

// SessionsRoot is storage/session.
func (l Layout) SessionsRoot() string {
	return filepath.Join(l.paths.StorageDir, "session")
}

// SessionDir is storage/session/<projectID>.
func (l Layout) SessionDir(projectID string) string {
	return filepath.Join(l.SessionsRoot(), projectID)
}

// SessionFile is storage/session/<projectID>/<sessionID>.json.
func (l Layout) SessionFile(projectID, sessionID string) string {
	return filepath.Join(l.SessionDir(projectID), sessionID+recordExt)
}

// MessageDir is storage/message/<sessionID>.
func (l Layout) MessageDir(sessionID string) string {
	return filepath.Join(l.paths.StorageDir, "message", sessionID)
}

// PartDir is storage/part/<messageID>.
func (l Layout) PartDir(messageID string) string {
	return filepath.Join(l.paths.StorageDir, "part", messageID)
}

// TodoFile is storage/todo/<sessionID>.json.
func (l Layout) TodoFile(sessionID string) string {
	return filepath.Join(l.paths.StorageDir, "todo", sessionID+recordExt)
}

// DiffFile is storage/session_diff/<sessionID>.json.
func (l Layout) DiffFile(sessionID string) string {
	return filepath.Join(l.paths.StorageDir, "session_diff", sessionID+recordExt)
}

// ProjectSnapshotDir is snapshot/<projectID>.
func (l Layout) ProjectSnapshotDir(projectID string) string {
	return filepath.Join(l.paths.SnapshotDir, projectID)
}

// LogDir is the directory holding OpenCode log files.
func (l Layout) LogDir() string {
	return l.paths.LogDir
}

// FrecencyFile is the frequency index path.
func (l Layout) FrecencyFile() string {
	return l.paths.FrecencyFile
}
