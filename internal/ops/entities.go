package ops

import (
	"path/filepath"
	"sort"

	"github.com/hpungsan/octidy/internal/storage"
)

// ProjectStorageInfo describes what a project occupies on disk right now,
// independent of any snapshot.
type ProjectStorageInfo struct {
	ProjectID       string `json:"project_id"`
	HasRecord       bool   `json:"has_record"`
	RecordFile      string `json:"record_file"`
	SessionDir      string `json:"session_dir"`
	SessionCount    int    `json:"session_count"`
	SessionDirBytes int64  `json:"session_dir_bytes"`
	SnapshotDir     string `json:"snapshot_dir"`
	SnapshotBytes   int64  `json:"snapshot_bytes"`
}

// LoadMessages returns the messages of a session ordered by creation time.
// Unreadable records are skipped; an unknown session has no messages.
func LoadMessages(st *storage.Store, sessionID string) []storage.Message {
	dir := st.MessageDir(sessionID)
	ids := storage.RecordIDs(dir)

	messages := make([]storage.Message, 0, len(ids))
	for _, id := range ids {
		m, ok := storage.ReadRecord[storage.Message](filepath.Join(dir, id+".json"))
		if !ok {
			continue
		}
		if m.ID == "" {
			m.ID = id
		}
		messages = append(messages, m)
	}

	sort.SliceStable(messages, func(i, j int) bool {
		if messages[i].Time.Created != messages[j].Time.Created {
			return messages[i].Time.Created < messages[j].Time.Created
		}
		return messages[i].ID < messages[j].ID
	})
	return messages
}

// LoadParts returns the parts of a message ordered by id, which OpenCode
// generates in ascending order.
func LoadParts(st *storage.Store, messageID string) []storage.Part {
	dir := st.PartDir(messageID)
	ids := storage.RecordIDs(dir)

	parts := make([]storage.Part, 0, len(ids))
	for _, id := range ids {
		p, ok := storage.ReadRecord[storage.Part](filepath.Join(dir, id+".json"))
		if !ok {
			continue
		}
		if p.ID == "" {
			p.ID = id
		}
		parts = append(parts, p)
	}
	return parts
}

// LoadTodos returns the todo list of a session, empty if it has none.
func LoadTodos(st *storage.Store, sessionID string) []storage.Todo {
	todos, ok := storage.ReadRecord[[]storage.Todo](st.TodoFile(sessionID))
	if !ok || todos == nil {
		return []storage.Todo{}
	}
	return todos
}

// GetProjectStorageInfo inspects the live on-disk footprint of a project.
func GetProjectStorageInfo(st *storage.Store, projectID string) ProjectStorageInfo {
	sessionDir := st.SessionDir(projectID)
	snapshotDir := st.ProjectSnapshotDir(projectID)
	recordFile := st.ProjectFile(projectID)

	return ProjectStorageInfo{
		ProjectID:       projectID,
		HasRecord:       storage.Exists(recordFile),
		RecordFile:      recordFile,
		SessionDir:      sessionDir,
		SessionCount:    storage.CountRecords(sessionDir),
		SessionDirBytes: storage.DirSize(sessionDir),
		SnapshotDir:     snapshotDir,
		SnapshotBytes:   storage.DirSize(snapshotDir),
	}
}
