package ops

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/hpungsan/octidy/internal/db"
	"github.com/hpungsan/octidy/internal/errors"
)

// ListJournalInput contains parameters for the ListJournal operation.
type ListJournalInput struct {
	Kind   string // optional: session, project, cleanup, log
	Limit  int
	Offset int
}

// ListJournalOutput contains the result of the ListJournal operation.
type ListJournalOutput struct {
	Items      []db.Deletion `json:"items"`
	Pagination Pagination    `json:"pagination"`
}

var journalKinds = map[string]bool{
	db.KindSession: true,
	db.KindProject: true,
	db.KindCleanup: true,
	db.KindLog:     true,
}

// ListJournal pages through recorded deletions, newest first.
func ListJournal(ctx context.Context, database *sql.DB, input ListJournalInput) (*ListJournalOutput, error) {
	if input.Kind != "" && !journalKinds[input.Kind] {
		return nil, errors.NewInvalidRequest("unknown kind: " + input.Kind)
	}

	// paginate clamps limit and offset; the real total comes from the query.
	_, _, page := paginate(0, input.Limit, input.Offset)

	items, total, err := db.ListDeletions(ctx, database, input.Kind, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	page.Total = total
	page.HasMore = page.Offset+len(items) < total

	return &ListJournalOutput{Items: items, Pagination: page}, nil
}

// RecordDeletions journals entries. A nil database records nothing. Failing
// to journal never fails the deletion that already happened, so errors are
// logged rather than returned.
func RecordDeletions(ctx context.Context, database *sql.DB, log *zap.Logger, entries []db.Deletion) {
	if database == nil || len(entries) == 0 {
		return
	}
	if err := db.InsertDeletions(context.WithoutCancel(ctx), database, entries); err != nil {
		log.Warn("journal write failed", zap.Int("entries", len(entries)), zap.Error(err))
	}
}

// SessionDeletions converts a session batch into journal entries, including
// one cleanup entry per project removed afterwards.
func SessionDeletions(in []SessionInfo, out *DeleteSessionsOutput) []db.Deletion {
	titles := make(map[string]string, len(in))
	for _, s := range in {
		titles[s.ID] = s.Title
	}

	entries := make([]db.Deletion, 0, len(out.Results)+len(out.CleanedProjects))
	for _, r := range out.Results {
		entries = append(entries, db.Deletion{
			Kind:         db.KindSession,
			TargetID:     r.SessionID,
			Label:        titles[r.SessionID],
			Success:      r.Success,
			FilesDeleted: r.FilesDeleted,
			BytesFreed:   r.BytesFreed,
			Error:        r.Error,
		})
	}
	for _, id := range out.CleanedProjects {
		entries = append(entries, db.Deletion{
			Kind:     db.KindCleanup,
			TargetID: id,
			Success:  true,
		})
	}
	return entries
}

// ProjectDeletions converts a project batch into journal entries.
func ProjectDeletions(in []ProjectInfo, out *DeleteProjectsOutput) []db.Deletion {
	worktrees := make(map[string]string, len(in))
	for _, p := range in {
		worktrees[p.ID] = p.Worktree
	}

	entries := make([]db.Deletion, 0, len(out.Results))
	for _, r := range out.Results {
		entries = append(entries, db.Deletion{
			Kind:         db.KindProject,
			TargetID:     r.ProjectID,
			Label:        worktrees[r.ProjectID],
			Success:      r.Success,
			FilesDeleted: r.FilesDeleted,
			BytesFreed:   r.BytesFreed,
			Error:        r.Error,
		})
	}
	return entries
}

// LogDeletions converts a log batch into journal entries.
func LogDeletions(out *DeleteLogsOutput) []db.Deletion {
	entries := make([]db.Deletion, 0, len(out.Results))
	for _, r := range out.Results {
		files := 0
		if r.Success && r.BytesFreed > 0 {
			files = 1
		}
		entries = append(entries, db.Deletion{
			Kind:         db.KindLog,
			TargetID:     r.Name,
			Success:      r.Success,
			FilesDeleted: files,
			BytesFreed:   r.BytesFreed,
			Error:        r.Error,
		})
	}
	return entries
}
