package ops

import (
	"time"

	"github.com/hpungsan/octidy/internal/storage"
)

// Fallback worktrees for sessions whose project is unknown.
const (
	UnknownProjectWorktree     = "/"
	PlaceholderProjectWorktree = "/unknown"
)

// SessionInfo is a session record enriched with facts joined from the other
// namespaces at load time.
type SessionInfo struct {
	storage.Session
	SizeBytes       int64  `json:"size_bytes"`
	MessageCount    int    `json:"message_count"`
	IsOrphan        bool   `json:"is_orphan"`
	ProjectWorktree string `json:"project_worktree"`
}

// ProjectInfo is a project with the sessions grouped under it. Projects with
// HasRecord false are placeholders synthesized for sessions whose projectID
// has no project record.
type ProjectInfo struct {
	storage.Project
	SessionCount   int           `json:"session_count"`
	TotalSizeBytes int64         `json:"total_size_bytes"`
	IsOrphan       bool          `json:"is_orphan"`
	HasRecord      bool          `json:"has_record"`
	Sessions       []SessionInfo `json:"sessions,omitempty"`
}

// LogFile is an OpenCode log file. Date comes from the file name.
type LogFile struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Date      time.Time `json:"date"`
	SizeBytes int64     `json:"size_bytes"`
}

// Totals summarizes a snapshot.
type Totals struct {
	Sessions       int   `json:"sessions"`
	Projects       int   `json:"projects"`
	OrphanSessions int   `json:"orphan_sessions"`
	OrphanProjects int   `json:"orphan_projects"`
	SessionBytes   int64 `json:"session_bytes"`
	Logs           int   `json:"logs"`
	LogBytes       int64 `json:"log_bytes"`
}

// LoadedData is one consistent snapshot of the whole store.
type LoadedData struct {
	Sessions []SessionInfo `json:"sessions"`
	Projects []ProjectInfo `json:"projects"`
	Logs     []LogFile     `json:"logs"`
	Totals   Totals        `json:"totals"`
}
