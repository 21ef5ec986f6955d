package ops

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hpungsan/octidy/internal/errors"
	"github.com/hpungsan/octidy/internal/storage"
)

// DeleteSessionResult reports the outcome of one cascade session deletion.
type DeleteSessionResult struct {
	SessionID    string `json:"session_id"`
	ProjectID    string `json:"project_id"`
	Success      bool   `json:"success"`
	FilesDeleted int    `json:"files_deleted"`
	BytesFreed   int64  `json:"bytes_freed"`
	Error        string `json:"error,omitempty"`
}

// DeleteSessionsInput contains parameters for the DeleteSessions operation.
type DeleteSessionsInput struct {
	Sessions []SessionInfo
	// CleanupEmptyProjects removes the metadata of every owning project that
	// has no session files left once the batch is done.
	CleanupEmptyProjects bool
}

// DeleteSessionsOutput contains the result of the DeleteSessions operation.
type DeleteSessionsOutput struct {
	Results         []DeleteSessionResult `json:"results"`
	Deleted         int                   `json:"deleted"`
	Failed          int                   `json:"failed"`
	FilesDeleted    int                   `json:"files_deleted"`
	BytesFreed      int64                 `json:"bytes_freed"`
	CleanedProjects []string              `json:"cleaned_projects"`
	CleanupErrors   []string              `json:"cleanup_errors,omitempty"`
	Message         string                `json:"message"`
}

// DeleteSession removes everything a session owns, deepest first: the part
// directory of each message, the message directory, the diff file, the todo
// file and finally the session record. The first unexpected I/O error stops
// the remaining steps for this session only.
//
// BytesFreed is the size captured at load time, reported only on success.
// FilesDeleted counts the targets that existed, including on failure.
func DeleteSession(st *storage.Store, s SessionInfo) DeleteSessionResult {
	res := DeleteSessionResult{
		SessionID: s.ID,
		ProjectID: s.ProjectID,
	}
	if !storage.ValidID(s.ID) || !storage.ValidID(s.ProjectID) {
		res.Error = errors.NewInvalidRequest(
			fmt.Sprintf("invalid session %q in project %q", s.ID, s.ProjectID)).Error()
		return res
	}

	msgDir := st.MessageDir(s.ID)
	targets := make([]string, 0, 8)
	for _, messageID := range storage.RecordIDs(msgDir) {
		targets = append(targets, st.PartDir(messageID))
	}
	targets = append(targets,
		msgDir,
		st.DiffFile(s.ID),
		st.TodoFile(s.ID),
		st.SessionFile(s.ProjectID, s.ID),
	)

	for _, target := range targets {
		existed, err := st.Remove(target)
		if err != nil {
			res.Error = err.Error()
			st.Logger().Warn("session delete aborted",
				zap.String("session_id", s.ID),
				zap.String("path", target),
				zap.Error(err))
			return res
		}
		if existed {
			res.FilesDeleted++
		}
	}

	res.Success = true
	res.BytesFreed = s.SizeBytes
	st.Logger().Debug("session deleted",
		zap.String("session_id", s.ID),
		zap.Int("files_deleted", res.FilesDeleted))
	return res
}

// DeleteSessions deletes sessions one after another. A failure never stops
// the batch. Cancellation is only observed between sessions: once ctx is
// done every remaining session is reported as cancelled and left on disk.
func DeleteSessions(ctx context.Context, st *storage.Store, input DeleteSessionsInput) *DeleteSessionsOutput {
	out := &DeleteSessionsOutput{
		Results:         make([]DeleteSessionResult, 0, len(input.Sessions)),
		CleanedProjects: []string{},
	}

	type owner struct {
		id       string
		worktree string
	}
	var owners []owner
	touched := make(map[string]bool)

	for _, s := range input.Sessions {
		var res DeleteSessionResult
		if ctx.Err() != nil {
			res = DeleteSessionResult{
				SessionID: s.ID,
				ProjectID: s.ProjectID,
				Error:     errors.NewCancelled("delete session").Error(),
			}
		} else {
			res = DeleteSession(st, s)
		}

		out.Results = append(out.Results, res)
		if !res.Success {
			out.Failed++
			continue
		}
		out.Deleted++
		out.FilesDeleted += res.FilesDeleted
		out.BytesFreed += res.BytesFreed
		if !touched[s.ProjectID] {
			touched[s.ProjectID] = true
			owners = append(owners, owner{id: s.ProjectID, worktree: s.ProjectWorktree})
		}
	}

	if input.CleanupEmptyProjects && ctx.Err() == nil {
		for _, o := range owners {
			cleaned, err := CleanupEmptyProject(st, o.id, o.worktree)
			if err != nil {
				out.CleanupErrors = append(out.CleanupErrors, err.Error())
				continue
			}
			if cleaned {
				out.CleanedProjects = append(out.CleanedProjects, o.id)
			}
		}
	}

	out.Message = formatDeleteSessionsMessage(out)
	return out
}
