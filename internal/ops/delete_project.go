package ops

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hpungsan/octidy/internal/errors"
	"github.com/hpungsan/octidy/internal/storage"
)

// DeleteProjectResult reports the outcome of one cascade project deletion.
type DeleteProjectResult struct {
	ProjectID              string `json:"project_id"`
	Success                bool   `json:"success"`
	SessionsDeleted        int    `json:"sessions_deleted"`
	SessionsFailed         int    `json:"sessions_failed"`
	FilesDeleted           int    `json:"files_deleted"`
	BytesFreed             int64  `json:"bytes_freed"`
	FrecencyEntriesRemoved int    `json:"frecency_entries_removed"`
	Error                  string `json:"error,omitempty"`
}

// DeleteProjectsOutput contains the result of the DeleteProjects operation.
type DeleteProjectsOutput struct {
	Results                []DeleteProjectResult `json:"results"`
	Deleted                int                   `json:"deleted"`
	Failed                 int                   `json:"failed"`
	SessionsDeleted        int                   `json:"sessions_deleted"`
	FilesDeleted           int                   `json:"files_deleted"`
	BytesFreed             int64                 `json:"bytes_freed"`
	FrecencyEntriesRemoved int                   `json:"frecency_entries_removed"`
	Message                string                `json:"message"`
}

// DeleteProject deletes every session of a project, then the project record,
// its session directory and its snapshot directory, then prunes the frequency
// index by worktree.
//
// Sessions written after the snapshot was taken are picked up from disk, so
// the session directory is never removed out from under a live record. If any
// session cannot be deleted the project-level removals are skipped and the
// partial totals are returned. ctx is checked between sessions.
func DeleteProject(ctx context.Context, st *storage.Store, p ProjectInfo) DeleteProjectResult {
	res := DeleteProjectResult{ProjectID: p.ID}
	if !storage.ValidID(p.ID) {
		res.Error = errors.NewInvalidRequest("invalid project id: " + p.ID).Error()
		return res
	}

	var firstErr string
	for _, s := range projectSessions(st, p) {
		if ctx.Err() != nil {
			res.Error = errors.NewCancelled("delete project").Error()
			return res
		}
		sr := DeleteSession(st, s)
		if !sr.Success {
			res.SessionsFailed++
			if firstErr == "" {
				firstErr = sr.Error
			}
			continue
		}
		res.SessionsDeleted++
		res.FilesDeleted += sr.FilesDeleted
		res.BytesFreed += sr.BytesFreed
	}

	if res.SessionsFailed > 0 {
		res.Error = fmt.Sprintf("%d session(s) could not be deleted: %s", res.SessionsFailed, firstErr)
		st.Logger().Warn("project delete incomplete",
			zap.String("project_id", p.ID),
			zap.Int("sessions_failed", res.SessionsFailed))
		return res
	}

	files, bytes, err := removeProjectMetadata(st, p.ID)
	res.FilesDeleted += files
	res.BytesFreed += bytes
	if err != nil {
		res.Error = err.Error()
		return res
	}

	removed, err := CleanFrecencyForDirectory(st, p.Worktree)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.FrecencyEntriesRemoved = removed
	res.Success = true

	st.Logger().Debug("project deleted",
		zap.String("project_id", p.ID),
		zap.Int("sessions_deleted", res.SessionsDeleted),
		zap.Int("frecency_entries_removed", removed))
	return res
}

// DeleteProjects deletes projects one after another. Cancellation is only
// observed between projects.
func DeleteProjects(ctx context.Context, st *storage.Store, projects []ProjectInfo) *DeleteProjectsOutput {
	out := &DeleteProjectsOutput{
		Results: make([]DeleteProjectResult, 0, len(projects)),
	}
	for _, p := range projects {
		var res DeleteProjectResult
		if ctx.Err() != nil {
			res = DeleteProjectResult{
				ProjectID: p.ID,
				Error:     errors.NewCancelled("delete project").Error(),
			}
		} else {
			res = DeleteProject(ctx, st, p)
		}

		out.Results = append(out.Results, res)
		out.SessionsDeleted += res.SessionsDeleted
		out.FilesDeleted += res.FilesDeleted
		out.BytesFreed += res.BytesFreed
		out.FrecencyEntriesRemoved += res.FrecencyEntriesRemoved
		if res.Success {
			out.Deleted++
		} else {
			out.Failed++
		}
	}
	out.Message = formatDeleteProjectsMessage(out)
	return out
}

// projectSessions returns the snapshot's sessions followed by any session
// record that appeared on disk since the snapshot was taken.
func projectSessions(st *storage.Store, p ProjectInfo) []SessionInfo {
	sessions := append([]SessionInfo(nil), p.Sessions...)
	known := make(map[string]bool, len(sessions))
	for _, s := range sessions {
		known[s.ID] = true
	}

	dir := st.SessionDir(p.ID)
	for _, id := range storage.RecordIDs(dir) {
		if known[id] {
			continue
		}
		s, _ := storage.ReadRecord[storage.Session](filepath.Join(dir, id+".json"))
		s.ID = id
		s.ProjectID = p.ID
		sessions = append(sessions, SessionInfo{
			Session:         s,
			SizeBytes:       SessionSize(st, s),
			ProjectWorktree: p.Worktree,
		})
	}
	return sessions
}

// removeProjectMetadata removes the project record, session directory and
// snapshot directory. Sizes are captured up front and counted only for
// targets that existed.
func removeProjectMetadata(st *storage.Store, projectID string) (files int, bytes int64, err error) {
	targets := []struct {
		path string
		size int64
	}{
		{st.ProjectFile(projectID), storage.FileSize(st.ProjectFile(projectID))},
		{st.SessionDir(projectID), storage.DirSize(st.SessionDir(projectID))},
		{st.ProjectSnapshotDir(projectID), storage.DirSize(st.ProjectSnapshotDir(projectID))},
	}
	for _, target := range targets {
		existed, err := st.Remove(target.path)
		if err != nil {
			return files, bytes, err
		}
		if existed {
			files++
			bytes += target.size
		}
	}
	return files, bytes, nil
}
