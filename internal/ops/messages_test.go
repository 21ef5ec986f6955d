package ops

import "testing"

func TestPlural(t *testing.T) {
	tests := []struct {
		n    int
		word string
		want string
	}{
		{1, "session", "session"},
		{0, "session", "sessions"},
		{2, "entry", "entries"},
		{1, "entry", "entry"},
	}
	for _, tt := range tests {
		if got := plural(tt.n, tt.word); got != tt.want {
			t.Errorf("plural(%d, %q) = %q, want %q", tt.n, tt.word, got, tt.want)
		}
	}
}

func TestFormatMessages(t *testing.T) {
	sessions := formatDeleteSessionsMessage(&DeleteSessionsOutput{
		Results:         make([]DeleteSessionResult, 3),
		Deleted:         2,
		Failed:          1,
		FilesDeleted:    12,
		BytesFreed:      2048,
		CleanedProjects: []string{"prj_a"},
	})
	want := "Deleted 2 sessions (12 files, 2.0 kB freed); 1 failed; cleaned up 1 empty project"
	if sessions != want {
		t.Errorf("sessions message = %q, want %q", sessions, want)
	}

	projects := formatDeleteProjectsMessage(&DeleteProjectsOutput{
		Results:                make([]DeleteProjectResult, 1),
		Deleted:                1,
		SessionsDeleted:        1,
		BytesFreed:             10,
		FrecencyEntriesRemoved: 2,
	})
	want = "Deleted 1 project with 1 session (10 B freed); removed 2 frecency entries"
	if projects != want {
		t.Errorf("projects message = %q, want %q", projects, want)
	}

	if got := formatDeleteLogsMessage(&DeleteLogsOutput{}); got != "No logs matched" {
		t.Errorf("empty logs message = %q", got)
	}

	overview := FormatOverview(Totals{Sessions: 1, OrphanSessions: 1, SessionBytes: 1000, Projects: 2, Logs: 0})
	want = "1 session (1 orphaned, 1.0 kB) in 2 projects (0 orphaned); 0 logs (0 B)"
	if overview != want {
		t.Errorf("overview = %q, want %q", overview, want)
	}
}
