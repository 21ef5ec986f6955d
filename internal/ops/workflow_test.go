package ops

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/octidy/internal/storetest"
)

// TestFullWorkflow exercises the cleanup lifecycle the outer surfaces drive:
// load → select orphans → delete with cleanup → reload → delete project →
// reload → delete old logs.
func TestFullWorkflow(t *testing.T) {
	f := storetest.New(t)
	ctx := context.Background()

	live := f.WorkDir("live")
	gone := f.MissingDir("gone")
	f.AddProject(project("prj_live", live, 1, 20))
	f.AddProject(project("prj_gone", gone, 1, 10))
	seedSession(t, f, session("ses_keep", "prj_live", live, 1, 30), 2, true)
	seedSession(t, f, session("ses_orphan", "prj_live", f.MissingDir("tmp"), 1, 25), 1, true)
	seedSession(t, f, session("ses_dead", "prj_gone", gone, 1, 5), 1, false)
	f.WriteFrecency(
		fmt.Sprintf(`{"path":%q,"frequency":1,"lastOpen":0}`, live),
		fmt.Sprintf(`{"path":%q,"frequency":1,"lastOpen":0}`, gone),
	)
	f.AddLog("2020-01-01T000000.log", "ancient")
	f.AddLog(time.Now().Format("2006-01-02T150405")+".log", "fresh")

	// 1. Load
	data := LoadAllData(f.Store)
	require.Equal(t, 3, data.Totals.Sessions)
	require.Equal(t, 2, data.Totals.OrphanSessions)
	require.Equal(t, 1, data.Totals.OrphanProjects)

	// 2. Delete orphan sessions of the live project
	selected, err := SelectSessions(data, SelectInput{ProjectID: "prj_live", OrphansOnly: true}, time.Now())
	require.NoError(t, err)
	require.Len(t, selected, 1)
	out := DeleteSessions(ctx, f.Store, DeleteSessionsInput{Sessions: selected, CleanupEmptyProjects: true})
	require.Equal(t, 1, out.Deleted)
	require.Empty(t, out.CleanedProjects)

	// 3. Reload: the live project keeps its remaining session
	data = LoadAllData(f.Store)
	require.Equal(t, 2, data.Totals.Sessions)
	p, ok := FindProject(data, "prj_live")
	require.True(t, ok)
	require.Equal(t, 1, p.SessionCount)

	// 4. Delete the orphan project
	projects, err := SelectProjects(data, nil, true)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	pout := DeleteProjects(ctx, f.Store, projects)
	require.Equal(t, 1, pout.Deleted)
	require.Equal(t, 1, pout.FrecencyEntriesRemoved)

	// 5. Reload: only the live project and its session remain
	data = LoadAllData(f.Store)
	require.Equal(t, []string{"prj_live"}, projectIDs(data.Projects))
	require.Equal(t, []string{"ses_keep"}, sessionIDs(data.Sessions))
	require.Len(t, f.ReadFrecency(), 1)

	// 6. Delete logs older than a week
	logs, err := SelectLogs(data, nil, 7, time.Now())
	require.NoError(t, err)
	require.Len(t, logs, 1)
	lout := DeleteLogs(ctx, f.Store, logs)
	require.Equal(t, 1, lout.Deleted)
	require.Len(t, LoadLogs(f.Store), 1)
}
