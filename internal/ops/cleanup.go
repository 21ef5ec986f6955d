package ops

import (
	"strings"

	"go.uber.org/zap"

	"github.com/hpungsan/octidy/internal/errors"
	"github.com/hpungsan/octidy/internal/frecency"
	"github.com/hpungsan/octidy/internal/storage"
)

// CleanupEmptyProject removes a project's record, session directory and
// snapshot directory, and prunes the frequency index by worktree, but only
// if the project has no session file on disk right now. The count is taken
// live because the caller's snapshot may be stale.
//
// Reports true when anything was removed.
func CleanupEmptyProject(st *storage.Store, projectID, worktree string) (bool, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return false, errors.NewInvalidRequest("project id is required")
	}
	if !storage.ValidID(projectID) {
		return false, errors.NewInvalidRequest("invalid project id: " + projectID)
	}

	if n := storage.CountRecords(st.SessionDir(projectID)); n > 0 {
		st.Logger().Debug("project still has sessions",
			zap.String("project_id", projectID),
			zap.Int("sessions", n))
		return false, nil
	}

	files, _, err := removeProjectMetadata(st, projectID)
	if err != nil {
		return false, err
	}
	removed, err := CleanFrecencyForDirectory(st, worktree)
	if err != nil {
		return files > 0, err
	}

	cleaned := files > 0 || removed > 0
	if cleaned {
		st.Logger().Debug("empty project cleaned",
			zap.String("project_id", projectID),
			zap.Int("files_deleted", files),
			zap.Int("frecency_entries_removed", removed))
	}
	return cleaned, nil
}

// CleanFrecencyForDirectory removes every frequency-index entry whose path
// starts with dir. A blank dir or the filesystem root matches nothing, so
// the global project can never wipe the whole index.
func CleanFrecencyForDirectory(st *storage.Store, dir string) (int, error) {
	if strings.TrimSpace(dir) == "" || dir == UnknownProjectWorktree {
		return 0, nil
	}
	removed, err := frecency.New(st.FrecencyFile()).RemoveByPathPrefix(dir)
	if err != nil {
		return 0, errors.NewIOFailure("rewrite", st.FrecencyFile(), err)
	}
	return removed, nil
}
