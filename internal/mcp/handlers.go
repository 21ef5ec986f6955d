package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/hpungsan/octidy/internal/config"
	"github.com/hpungsan/octidy/internal/db"
	"github.com/hpungsan/octidy/internal/errors"
	"github.com/hpungsan/octidy/internal/ops"
	"github.com/hpungsan/octidy/internal/storage"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	st         *storage.Store
	db         *sql.DB // nil when the journal is disabled
	cfg        *config.Config
	exportsDir string
	log        *zap.Logger
	now        func() time.Time
}

// NewHandlers creates a new Handlers instance. database may be nil.
func NewHandlers(st *storage.Store, database *sql.DB, cfg *config.Config, exportsDir string, log *zap.Logger) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{
		st:         st,
		db:         database,
		cfg:        cfg,
		exportsDir: exportsDir,
		log:        log,
		now:        time.Now,
	}
}

// Request types for each tool

// SessionListRequest represents the arguments for session_list.
type SessionListRequest struct {
	ProjectID   string `json:"project_id,omitempty"`
	OrphansOnly bool   `json:"orphans_only,omitempty"`
	Limit       int    `json:"limit,omitempty"`
	Offset      int    `json:"offset,omitempty"`
}

// SessionShowRequest represents the arguments for session_show.
type SessionShowRequest struct {
	SessionID    string `json:"session_id"`
	IncludeParts bool   `json:"include_parts,omitempty"`
}

// SessionDeleteRequest represents the arguments for session_delete.
type SessionDeleteRequest struct {
	IDs                  []string `json:"ids,omitempty"`
	ProjectID            string   `json:"project_id,omitempty"`
	OrphansOnly          bool     `json:"orphans_only,omitempty"`
	OlderThanDays        int      `json:"older_than_days,omitempty"`
	CleanupEmptyProjects bool     `json:"cleanup_empty_projects,omitempty"`
	DryRun               bool     `json:"dry_run,omitempty"`
}

// SessionExportRequest represents the arguments for session_export.
type SessionExportRequest struct {
	SessionID string `json:"session_id"`
	Path      string `json:"path,omitempty"`
	Format    string `json:"format,omitempty"`
}

// ProjectListRequest represents the arguments for project_list.
type ProjectListRequest struct {
	OrphansOnly bool `json:"orphans_only,omitempty"`
	Limit       int  `json:"limit,omitempty"`
	Offset      int  `json:"offset,omitempty"`
}

// ProjectRequest represents the arguments for project_storage and project_cleanup.
type ProjectRequest struct {
	ProjectID string `json:"project_id"`
}

// ProjectDeleteRequest represents the arguments for project_delete.
type ProjectDeleteRequest struct {
	IDs         []string `json:"ids,omitempty"`
	OrphansOnly bool     `json:"orphans_only,omitempty"`
	DryRun      bool     `json:"dry_run,omitempty"`
}

// LogDeleteRequest represents the arguments for log_delete.
type LogDeleteRequest struct {
	Names         []string `json:"names,omitempty"`
	OlderThanDays int      `json:"older_than_days,omitempty"`
	DryRun        bool     `json:"dry_run,omitempty"`
}

// FrecencyCleanRequest represents the arguments for frecency_clean.
type FrecencyCleanRequest struct {
	Directory string `json:"directory"`
}

// JournalListRequest represents the arguments for journal_list.
type JournalListRequest struct {
	Kind   string `json:"kind,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// JournalPurgeRequest represents the arguments for journal_purge.
type JournalPurgeRequest struct {
	OlderThanDays *int `json:"older_than_days"`
}

// Response types that have no ops counterpart

// OverviewResponse is the result of store_overview.
type OverviewResponse struct {
	ops.Totals
	StorageDir   string `json:"storage_dir"`
	LogDir       string `json:"log_dir"`
	FrecencyFile string `json:"frecency_file"`
	Message      string `json:"message"`
}

// ProjectCleanupResponse is the result of project_cleanup.
type ProjectCleanupResponse struct {
	ProjectID string `json:"project_id"`
	Cleaned   bool   `json:"cleaned"`
}

// FrecencyCleanResponse is the result of frecency_clean.
type FrecencyCleanResponse struct {
	Directory string `json:"directory"`
	Removed   int    `json:"removed"`
}

// JournalPurgeResponse is the result of journal_purge.
type JournalPurgeResponse struct {
	Purged int `json:"purged"`
}

// Handler implementations
//
// Every call reloads the store: the snapshot a selection runs against is
// never older than the request.

// HandleOverview handles the store_overview tool call.
func (h *Handlers) HandleOverview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data := ops.LoadAllData(h.st)
	paths := h.st.Paths()
	return successResult(OverviewResponse{
		Totals:       data.Totals,
		StorageDir:   paths.StorageDir,
		LogDir:       paths.LogDir,
		FrecencyFile: paths.FrecencyFile,
		Message:      ops.FormatOverview(data.Totals),
	})
}

// HandleSessionList handles the session_list tool call.
func (h *Handlers) HandleSessionList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionListRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(ops.ListSessions(ops.LoadAllData(h.st), ops.ListSessionsInput{
		ProjectID:   input.ProjectID,
		OrphansOnly: input.OrphansOnly,
		Limit:       input.Limit,
		Offset:      input.Offset,
	}))
}

// HandleSessionShow handles the session_show tool call.
func (h *Handlers) HandleSessionShow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionShowRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.ShowSession(h.st, ops.LoadAllData(h.st), ops.ShowSessionInput{
		SessionID:    input.SessionID,
		IncludeParts: input.IncludeParts,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSessionDelete handles the session_delete tool call.
func (h *Handlers) HandleSessionDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionDeleteRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	selected, err := ops.SelectSessions(ops.LoadAllData(h.st), ops.SelectInput{
		IDs:           input.IDs,
		ProjectID:     input.ProjectID,
		OrphansOnly:   input.OrphansOnly,
		OlderThanDays: input.OlderThanDays,
	}, h.now())
	if err != nil {
		return errorResult(err), nil
	}
	if input.DryRun {
		return successResult(ops.PreviewSessions(selected))
	}

	result := ops.DeleteSessions(ctx, h.st, ops.DeleteSessionsInput{
		Sessions:             selected,
		CleanupEmptyProjects: input.CleanupEmptyProjects,
	})
	h.record(ctx, ops.SessionDeletions(selected, result))

	return successResult(result)
}

// HandleSessionExport handles the session_export tool call.
func (h *Handlers) HandleSessionExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionExportRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.ExportTranscript(ctx, h.st, h.cfg, ops.ExportTranscriptInput{
		SessionID:  input.SessionID,
		Path:       input.Path,
		Format:     input.Format,
		ExportsDir: h.exportsDir,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleProjectList handles the project_list tool call.
func (h *Handlers) HandleProjectList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ProjectListRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(ops.ListProjects(ops.LoadAllData(h.st), ops.ListProjectsInput{
		OrphansOnly: input.OrphansOnly,
		Limit:       input.Limit,
		Offset:      input.Offset,
	}))
}

// HandleProjectStorage handles the project_storage tool call.
func (h *Handlers) HandleProjectStorage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ProjectRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	if input.ProjectID == "" {
		return errorResult(errors.NewInvalidRequest("project_id is required")), nil
	}

	return successResult(ops.GetProjectStorageInfo(h.st, input.ProjectID))
}

// HandleProjectDelete handles the project_delete tool call.
func (h *Handlers) HandleProjectDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ProjectDeleteRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	selected, err := ops.SelectProjects(ops.LoadAllData(h.st), input.IDs, input.OrphansOnly)
	if err != nil {
		return errorResult(err), nil
	}
	if input.DryRun {
		return successResult(ops.PreviewProjects(selected))
	}

	result := ops.DeleteProjects(ctx, h.st, selected)
	h.record(ctx, ops.ProjectDeletions(selected, result))

	return successResult(result)
}

// HandleProjectCleanup handles the project_cleanup tool call.
func (h *Handlers) HandleProjectCleanup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ProjectRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	// The worktree comes from the record when there is one; a project
	// without a record has no frecency entries of its own to clean.
	worktree := ""
	if p, ok := ops.FindProject(ops.LoadAllData(h.st), input.ProjectID); ok && p.HasRecord {
		worktree = p.Worktree
	}

	cleaned, err := ops.CleanupEmptyProject(h.st, input.ProjectID, worktree)
	if err != nil {
		return errorResult(err), nil
	}
	if cleaned {
		h.record(ctx, []db.Deletion{{Kind: db.KindCleanup, TargetID: input.ProjectID, Label: worktree, Success: true}})
	}

	return successResult(ProjectCleanupResponse{ProjectID: input.ProjectID, Cleaned: cleaned})
}

// HandleLogList handles the log_list tool call.
func (h *Handlers) HandleLogList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(ops.LoadLogs(h.st))
}

// HandleLogDelete handles the log_delete tool call.
func (h *Handlers) HandleLogDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[LogDeleteRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	selected, err := ops.SelectLogs(ops.LoadAllData(h.st), input.Names, input.OlderThanDays, h.now())
	if err != nil {
		return errorResult(err), nil
	}
	if input.DryRun {
		return successResult(ops.PreviewLogs(selected))
	}

	result := ops.DeleteLogs(ctx, h.st, selected)
	h.record(ctx, ops.LogDeletions(result))

	return successResult(result)
}

// HandleFrecencyClean handles the frecency_clean tool call.
func (h *Handlers) HandleFrecencyClean(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FrecencyCleanRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	if input.Directory == "" {
		return errorResult(errors.NewInvalidRequest("directory is required")), nil
	}

	removed, err := ops.CleanFrecencyForDirectory(h.st, input.Directory)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(FrecencyCleanResponse{Directory: input.Directory, Removed: removed})
}

// HandleJournalList handles the journal_list tool call.
func (h *Handlers) HandleJournalList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[JournalListRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	if h.db == nil {
		return errorResult(errors.NewInvalidRequest("journal is disabled")), nil
	}

	result, err := ops.ListJournal(ctx, h.db, ops.ListJournalInput{
		Kind:   input.Kind,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleJournalPurge handles the journal_purge tool call.
func (h *Handlers) HandleJournalPurge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[JournalPurgeRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	if h.db == nil {
		return errorResult(errors.NewInvalidRequest("journal is disabled")), nil
	}
	if input.OlderThanDays == nil {
		return errorResult(errors.NewInvalidRequest("older_than_days is required")), nil
	}

	n, err := db.PurgeDeletions(ctx, h.db, *input.OlderThanDays)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(JournalPurgeResponse{Purged: n})
}

// record journals deletion results when the journal is enabled.
func (h *Handlers) record(ctx context.Context, entries []db.Deletion) {
	if !h.cfg.JournalEnabled() {
		return
	}
	ops.RecordDeletions(ctx, h.db, h.log, entries)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var e *errors.Error
	if stderrors.As(err, &e) {
		msg := e.Message
		if err != error(e) {
			// Keep the wrapper's context.
			msg = err.Error()
		}
		errorObj := map[string]any{
			"code":    e.Code,
			"message": msg,
			"status":  e.Status,
		}
		// INTERNAL details may carry paths or SQL errors.
		if e.Code != errors.ErrInternal && e.Details != nil {
			errorObj["details"] = e.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
