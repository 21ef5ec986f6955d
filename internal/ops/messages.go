package ops

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// plural picks the singular or plural form of word for n.
func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	if strings.HasSuffix(word, "y") {
		return strings.TrimSuffix(word, "y") + "ies"
	}
	return word + "s"
}

// freed renders a byte count the way people read disk usage.
func freed(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.Bytes(uint64(bytes))
}

// formatDeleteSessionsMessage creates a human-readable message for a session batch.
func formatDeleteSessionsMessage(out *DeleteSessionsOutput) string {
	if len(out.Results) == 0 {
		return "No sessions matched"
	}

	msg := fmt.Sprintf("Deleted %d %s (%d %s, %s freed)",
		out.Deleted, plural(out.Deleted, "session"),
		out.FilesDeleted, plural(out.FilesDeleted, "file"),
		freed(out.BytesFreed))
	if out.Failed > 0 {
		msg += fmt.Sprintf("; %d failed", out.Failed)
	}
	if n := len(out.CleanedProjects); n > 0 {
		msg += fmt.Sprintf("; cleaned up %d empty %s", n, plural(n, "project"))
	}
	return msg
}

// formatDeleteProjectsMessage creates a human-readable message for a project batch.
func formatDeleteProjectsMessage(out *DeleteProjectsOutput) string {
	if len(out.Results) == 0 {
		return "No projects matched"
	}

	msg := fmt.Sprintf("Deleted %d %s with %d %s (%s freed)",
		out.Deleted, plural(out.Deleted, "project"),
		out.SessionsDeleted, plural(out.SessionsDeleted, "session"),
		freed(out.BytesFreed))
	if out.FrecencyEntriesRemoved > 0 {
		msg += fmt.Sprintf("; removed %d frecency %s",
			out.FrecencyEntriesRemoved, plural(out.FrecencyEntriesRemoved, "entry"))
	}
	if out.Failed > 0 {
		msg += fmt.Sprintf("; %d failed", out.Failed)
	}
	return msg
}

// formatDeleteLogsMessage creates a human-readable message for a log batch.
func formatDeleteLogsMessage(out *DeleteLogsOutput) string {
	if len(out.Results) == 0 {
		return "No logs matched"
	}

	msg := fmt.Sprintf("Deleted %d %s (%s freed)",
		out.Deleted, plural(out.Deleted, "log"), freed(out.BytesFreed))
	if out.Failed > 0 {
		msg += fmt.Sprintf("; %d failed", out.Failed)
	}
	return msg
}

// FormatOverview summarizes snapshot totals in one line.
func FormatOverview(t Totals) string {
	return fmt.Sprintf("%d %s (%d orphaned, %s) in %d %s (%d orphaned); %d %s (%s)",
		t.Sessions, plural(t.Sessions, "session"), t.OrphanSessions, freed(t.SessionBytes),
		t.Projects, plural(t.Projects, "project"), t.OrphanProjects,
		t.Logs, plural(t.Logs, "log"), freed(t.LogBytes))
}
