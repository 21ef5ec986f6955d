package mcp

import "github.com/mark3labs/mcp-go/mcp"

var overviewToolDef = mcp.NewTool("store_overview",
	mcp.WithDescription("Summarize the OpenCode store: session, project, orphan and log totals with disk usage."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var sessionListToolDef = mcp.NewTool("session_list",
	mcp.WithDescription("List sessions, most recently updated first, with size, message count and orphan status."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("project_id", mcp.Description("Only sessions of this project")),
	mcp.WithBoolean("orphans_only", mcp.Description("Only sessions whose working directory no longer exists")),
	mcp.WithNumber("limit", mcp.Description("Max items (default 50, max 500)")),
	mcp.WithNumber("offset", mcp.Description("Items to skip")),
)

var sessionShowToolDef = mcp.NewTool("session_show",
	mcp.WithDescription("Show one session with its messages, parts and todos."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
	mcp.WithBoolean("include_parts", mcp.Description("Include message parts (default false)")),
)

var sessionDeleteToolDef = mcp.NewTool("session_delete",
	mcp.WithDescription("Delete sessions and everything they own (messages, parts, diff, todos). "+
		"At least one filter is required. Use dry_run to preview."),
	mcp.WithDestructiveHintAnnotation(true),
	mcp.WithArray("ids", mcp.Description("Session ids"), mcp.WithStringItems()),
	mcp.WithString("project_id", mcp.Description("Only sessions of this project")),
	mcp.WithBoolean("orphans_only", mcp.Description("Only orphaned sessions")),
	mcp.WithNumber("older_than_days", mcp.Description("Only sessions not updated for this many days")),
	mcp.WithBoolean("cleanup_empty_projects", mcp.Description("Remove projects left without sessions")),
	mcp.WithBoolean("dry_run", mcp.Description("Report what would be deleted without deleting")),
)

var sessionExportToolDef = mcp.NewTool("session_export",
	mcp.WithDescription("Export a session transcript as Markdown or HTML."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
	mcp.WithString("path", mcp.Description("Output file (default: exports directory)")),
	mcp.WithString("format", mcp.Description("md (default) or html"), mcp.Enum("md", "html")),
)

var projectListToolDef = mcp.NewTool("project_list",
	mcp.WithDescription("List projects with session counts, total size and orphan status."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithBoolean("orphans_only", mcp.Description("Only projects whose worktree no longer exists")),
	mcp.WithNumber("limit", mcp.Description("Max items (default 50, max 500)")),
	mcp.WithNumber("offset", mcp.Description("Items to skip")),
)

var projectStorageToolDef = mcp.NewTool("project_storage",
	mcp.WithDescription("Report the storage a project occupies: record, session directory and snapshot."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("project_id", mcp.Required(), mcp.Description("Project id")),
)

var projectDeleteToolDef = mcp.NewTool("project_delete",
	mcp.WithDescription("Delete projects with all their sessions, snapshot and frecency entries. "+
		"Pass ids or orphans_only. Use dry_run to preview."),
	mcp.WithDestructiveHintAnnotation(true),
	mcp.WithArray("ids", mcp.Description("Project ids"), mcp.WithStringItems()),
	mcp.WithBoolean("orphans_only", mcp.Description("Only orphaned projects")),
	mcp.WithBoolean("dry_run", mcp.Description("Report what would be deleted without deleting")),
)

var projectCleanupToolDef = mcp.NewTool("project_cleanup",
	mcp.WithDescription("Remove a project's metadata if it has no sessions left on disk."),
	mcp.WithDestructiveHintAnnotation(true),
	mcp.WithString("project_id", mcp.Required(), mcp.Description("Project id")),
)

var logListToolDef = mcp.NewTool("log_list",
	mcp.WithDescription("List OpenCode log files, newest first."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var logDeleteToolDef = mcp.NewTool("log_delete",
	mcp.WithDescription("Delete OpenCode log files by name or age. Use dry_run to preview."),
	mcp.WithDestructiveHintAnnotation(true),
	mcp.WithArray("names", mcp.Description("Log file names"), mcp.WithStringItems()),
	mcp.WithNumber("older_than_days", mcp.Description("Only logs older than this many days")),
	mcp.WithBoolean("dry_run", mcp.Description("Report what would be deleted without deleting")),
)

var frecencyCleanToolDef = mcp.NewTool("frecency_clean",
	mcp.WithDescription("Remove frecency entries whose path starts with a directory."),
	mcp.WithDestructiveHintAnnotation(true),
	mcp.WithString("directory", mcp.Required(), mcp.Description("Directory prefix")),
)

var journalListToolDef = mcp.NewTool("journal_list",
	mcp.WithDescription("List recorded deletions, newest first."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("kind", mcp.Description("session, project, cleanup or log")),
	mcp.WithNumber("limit", mcp.Description("Max items (default 50, max 500)")),
	mcp.WithNumber("offset", mcp.Description("Items to skip")),
)

var journalPurgeToolDef = mcp.NewTool("journal_purge",
	mcp.WithDescription("Drop journal entries older than a number of days (0 drops all)."),
	mcp.WithDestructiveHintAnnotation(true),
	mcp.WithNumber("older_than_days", mcp.Required(), mcp.Description("Age in days")),
)
