package ops

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/octidy/internal/errors"
	"github.com/hpungsan/octidy/internal/storage"
	"github.com/hpungsan/octidy/internal/storetest"
)

// failingRemove fails for the paths in fail and defers to os.RemoveAll otherwise.
func failingRemove(fail map[string]bool) storage.Option {
	return storage.WithRemoveFunc(func(path string) error {
		if fail[path] {
			return fmt.Errorf("remove %s: %w", path, os.ErrPermission)
		}
		return os.RemoveAll(path)
	})
}

func assertGone(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		_, err := os.Lstat(p)
		assert.True(t, os.IsNotExist(err), "expected %s to be gone", p)
	}
}

func assertPresent(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		_, err := os.Lstat(p)
		assert.NoError(t, err, "expected %s to exist", p)
	}
}

func loadSession(t *testing.T, st *storage.Store, id string) SessionInfo {
	t.Helper()
	s, ok := FindSession(LoadAllData(st), id)
	require.True(t, ok, "session %s not loaded", id)
	return s
}

func TestDeleteSession_RemovesEverything(t *testing.T) {
	f := storetest.New(t)
	dir := f.WorkDir("app")
	seeded := seedSession(t, f, session("ses_1", "prj_a", dir, 1, 1), 2, true)
	info := loadSession(t, f.Store, "ses_1")

	res := DeleteSession(f.Store, info)

	require.True(t, res.Success, res.Error)
	assert.Empty(t, res.Error)
	// 2 part dirs + message dir + diff + todo + record
	assert.Equal(t, 6, res.FilesDeleted)
	assert.Equal(t, info.SizeBytes, res.BytesFreed)
	assert.Equal(t, "prj_a", res.ProjectID)

	assertGone(t, seeded.MsgDir, seeded.Diff, seeded.Todo, seeded.Record)
	assertGone(t, seeded.PartDirs...)
}

func TestDeleteSession_CountsOnlyExistingTargets(t *testing.T) {
	f := storetest.New(t)
	seedSession(t, f, session("ses_1", "prj_a", "", 1, 1), 0, false)
	info := loadSession(t, f.Store, "ses_1")

	res := DeleteSession(f.Store, info)
	require.True(t, res.Success)
	assert.Equal(t, 1, res.FilesDeleted)

	// Deleting again is still a success with nothing counted.
	again := DeleteSession(f.Store, info)
	assert.True(t, again.Success)
	assert.Equal(t, 0, again.FilesDeleted)
}

func TestDeleteSession_SiblingsUntouched(t *testing.T) {
	f := storetest.New(t)
	dir := f.WorkDir("app")
	f.AddProject(project("prj_a", dir, 1, 1))
	seedSession(t, f, session("ses_1", "prj_a", dir, 1, 1), 2, true)
	sibling := seedSession(t, f, session("ses_2", "prj_a", dir, 1, 2), 3, true)

	before := loadSession(t, f.Store, "ses_2")
	res := DeleteSession(f.Store, loadSession(t, f.Store, "ses_1"))
	require.True(t, res.Success)

	after := loadSession(t, f.Store, "ses_2")
	assert.Equal(t, before.SizeBytes, after.SizeBytes)
	assert.Equal(t, before.MessageCount, after.MessageCount)
	assertPresent(t, sibling.Files...)
}

func TestDeleteSession_IOFailureAbortsRemainingSteps(t *testing.T) {
	fail := map[string]bool{}
	f := storetest.New(t, failingRemove(fail))
	seeded := seedSession(t, f, session("ses_1", "prj_a", "", 1, 1), 2, true)
	info := loadSession(t, f.Store, "ses_1")
	fail[seeded.MsgDir] = true

	res := DeleteSession(f.Store, info)

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "IO_FAILURE")
	assert.Equal(t, int64(0), res.BytesFreed)
	assert.Equal(t, 2, res.FilesDeleted)
	assertGone(t, seeded.PartDirs...)
	assertPresent(t, seeded.MsgDir, seeded.Diff, seeded.Todo, seeded.Record)
}

func TestDeleteSessions_BatchContinuesPastFailures(t *testing.T) {
	fail := map[string]bool{}
	f := storetest.New(t, failingRemove(fail))
	dir := f.WorkDir("app")
	a := seedSession(t, f, session("ses_a", "prj_a", dir, 1, 3), 1, false)
	b := seedSession(t, f, session("ses_b", "prj_a", dir, 1, 2), 1, true)
	c := seedSession(t, f, session("ses_c", "prj_a", dir, 1, 1), 0, false)
	data := LoadAllData(f.Store)
	fail[b.Record] = true

	out := DeleteSessions(context.Background(), f.Store, DeleteSessionsInput{Sessions: data.Sessions})

	require.Len(t, out.Results, 3)
	assert.Equal(t, 2, out.Deleted)
	assert.Equal(t, 1, out.Failed)
	assert.True(t, out.Results[0].Success)
	assert.False(t, out.Results[1].Success)
	assert.True(t, out.Results[2].Success)
	assert.Equal(t, data.Sessions[0].SizeBytes+data.Sessions[2].SizeBytes, out.BytesFreed)
	assert.Equal(t, out.Results[0].FilesDeleted+out.Results[2].FilesDeleted, out.FilesDeleted)
	assert.Contains(t, out.Message, "Deleted 2 sessions")
	assert.Contains(t, out.Message, "1 failed")

	assertGone(t, a.Record, c.Record)
	assertPresent(t, b.Record)
}

func TestDeleteSessions_CancelledBetweenItems(t *testing.T) {
	f := storetest.New(t)
	a := seedSession(t, f, session("ses_a", "prj_a", "", 1, 2), 1, false)
	b := seedSession(t, f, session("ses_b", "prj_a", "", 1, 1), 1, false)
	data := LoadAllData(f.Store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := DeleteSessions(ctx, f.Store, DeleteSessionsInput{Sessions: data.Sessions, CleanupEmptyProjects: true})

	assert.Equal(t, 0, out.Deleted)
	assert.Equal(t, 2, out.Failed)
	for _, r := range out.Results {
		assert.Contains(t, r.Error, "CANCELLED")
	}
	assert.Empty(t, out.CleanedProjects)
	assertPresent(t, a.Record, b.Record)
}

func TestCleanupEmptyProject_KeepsProjectWithRemainingSession(t *testing.T) {
	f := storetest.New(t)
	dir := f.WorkDir("app")
	rec := f.AddProject(project("prj_a", dir, 1, 1))
	seedSession(t, f, session("ses_1", "prj_a", dir, 1, 3), 1, false)
	seedSession(t, f, session("ses_2", "prj_a", dir, 1, 2), 1, false)
	third := seedSession(t, f, session("ses_3", "prj_a", dir, 1, 1), 1, false)
	data := LoadAllData(f.Store)

	out := DeleteSessions(context.Background(), f.Store, DeleteSessionsInput{Sessions: data.Sessions[:2]})
	require.Equal(t, 2, out.Deleted)

	cleaned, err := CleanupEmptyProject(f.Store, "prj_a", dir)
	require.NoError(t, err)
	assert.False(t, cleaned)
	assertPresent(t, rec, third.Record)
}

func TestDeleteSessions_CleanupEmptyProjects(t *testing.T) {
	f := storetest.New(t)
	dir := f.WorkDir("app")
	other := f.WorkDir("other")
	rec := f.AddProject(project("prj_a", dir, 1, 1))
	keep := f.AddProject(project("prj_b", other, 1, 1))
	snap := f.AddSnapshot("prj_a", "HEAD", "ref")
	seedSession(t, f, session("ses_1", "prj_a", dir, 1, 2), 1, true)
	seedSession(t, f, session("ses_2", "prj_a", dir, 1, 1), 0, false)
	otherSession := seedSession(t, f, session("ses_3", "prj_b", other, 1, 1), 0, false)
	f.WriteFrecency(
		fmt.Sprintf(`{"path":%q,"frequency":3,"lastOpen":1}`, dir),
		fmt.Sprintf(`{"path":%q,"frequency":1,"lastOpen":1}`, other),
	)

	data := LoadAllData(f.Store)
	selected, err := SelectSessions(data, SelectInput{ProjectID: "prj_a"}, time.Now())
	require.NoError(t, err)
	require.Len(t, selected, 2)

	out := DeleteSessions(context.Background(), f.Store, DeleteSessionsInput{
		Sessions:             selected,
		CleanupEmptyProjects: true,
	})

	assert.Equal(t, 2, out.Deleted)
	assert.Equal(t, []string{"prj_a"}, out.CleanedProjects)
	assert.Contains(t, out.Message, "cleaned up 1 empty project")
	assertGone(t, rec, snap, f.Store.SessionDir("prj_a"))
	assertPresent(t, keep, otherSession.Record)
	assert.Len(t, f.ReadFrecency(), 1)
	assert.Contains(t, f.ReadFrecency()[0], other)
}

func TestDeleteProject_Cascade(t *testing.T) {
	f := storetest.New(t)
	dir := f.WorkDir("app")
	rec := f.AddProject(project("prj_a", dir, 1, 1))
	snap := f.AddSnapshot("prj_a", "objects/01", "blob")
	s1 := seedSession(t, f, session("ses_1", "prj_a", dir, 1, 2), 2, true)
	s2 := seedSession(t, f, session("ses_2", "prj_a", dir, 1, 1), 1, false)
	f.WriteFrecency(
		fmt.Sprintf(`{"path":%q,"frequency":1,"lastOpen":0}`, dir),
		fmt.Sprintf(`{"path":%q,"frequency":1,"lastOpen":0}`, filepath.Join(dir, "sub")),
		`{"path":"/elsewhere","frequency":2,"lastOpen":0}`,
	)

	p, ok := FindProject(LoadAllData(f.Store), "prj_a")
	require.True(t, ok)
	wantBytes := p.TotalSizeBytes + f.Size(rec) + f.Size(snap)

	res := DeleteProject(context.Background(), f.Store, p)

	require.True(t, res.Success, res.Error)
	assert.Equal(t, 2, res.SessionsDeleted)
	assert.Equal(t, 2, res.FrecencyEntriesRemoved)
	assert.Equal(t, wantBytes, res.BytesFreed)
	assert.Equal(t, 0, storage.CountRecords(f.Store.SessionDir("prj_a")))
	assertGone(t, rec, snap, s1.Record, s2.Record, s1.MsgDir, f.Store.ProjectSnapshotDir("prj_a"))
	assert.Equal(t, []string{`{"path":"/elsewhere","frequency":2,"lastOpen":0}`}, f.ReadFrecency())
}

func TestDeleteProject_PicksUpSessionsMissingFromSnapshot(t *testing.T) {
	f := storetest.New(t)
	dir := f.WorkDir("app")
	f.AddProject(project("prj_a", dir, 1, 1))
	seedSession(t, f, session("ses_1", "prj_a", dir, 1, 1), 1, false)
	p, ok := FindProject(LoadAllData(f.Store), "prj_a")
	require.True(t, ok)

	late := seedSession(t, f, session("ses_late", "prj_a", dir, 1, 9), 1, true)

	res := DeleteProject(context.Background(), f.Store, p)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 2, res.SessionsDeleted)
	assertGone(t, late.Record, late.MsgDir, late.Todo)
}

func TestDeleteProject_SessionFailureKeepsProject(t *testing.T) {
	fail := map[string]bool{}
	f := storetest.New(t, failingRemove(fail))
	dir := f.WorkDir("app")
	rec := f.AddProject(project("prj_a", dir, 1, 1))
	ok1 := seedSession(t, f, session("ses_1", "prj_a", dir, 1, 2), 1, false)
	bad := seedSession(t, f, session("ses_2", "prj_a", dir, 1, 1), 1, true)
	f.WriteFrecency(fmt.Sprintf(`{"path":%q,"frequency":1,"lastOpen":0}`, dir))
	fail[bad.Record] = true

	p, _ := FindProject(LoadAllData(f.Store), "prj_a")
	res := DeleteProject(context.Background(), f.Store, p)

	assert.False(t, res.Success)
	assert.Equal(t, 1, res.SessionsDeleted)
	assert.Equal(t, 1, res.SessionsFailed)
	assert.Contains(t, res.Error, "1 session(s) could not be deleted")
	// Only ses_1 counts: its part dir, message dir and record.
	assert.Equal(t, 3, res.FilesDeleted)
	require.Len(t, p.Sessions, 2)
	for _, s := range p.Sessions {
		if s.ID == "ses_1" {
			assert.Equal(t, s.SizeBytes, res.BytesFreed)
		}
	}
	assertGone(t, ok1.Record)
	assertPresent(t, rec, bad.Record)
	assert.Len(t, f.ReadFrecency(), 1)
}

func TestDeleteProjects_Batch(t *testing.T) {
	f := storetest.New(t)
	f.AddProject(project("prj_a", f.WorkDir("a"), 1, 2))
	f.AddProject(project("prj_b", f.MissingDir("b"), 1, 1))
	seedSession(t, f, session("ses_1", "prj_a", "", 1, 1), 1, false)

	data := LoadAllData(f.Store)
	out := DeleteProjects(context.Background(), f.Store, data.Projects)

	assert.Equal(t, 2, out.Deleted)
	assert.Equal(t, 0, out.Failed)
	assert.Equal(t, 1, out.SessionsDeleted)
	assert.Contains(t, out.Message, "Deleted 2 projects with 1 session")
	assert.Empty(t, LoadAllData(f.Store).Projects)
}

func TestDeleteProject_Placeholder(t *testing.T) {
	f := storetest.New(t)
	f.AddSession(session("ses_1", "prj_ghost", "", 1, 1))
	f.WriteFrecency(`{"path":"/unknown/x","frequency":1,"lastOpen":0}`, `{"path":"/home","frequency":1,"lastOpen":0}`)

	p, ok := FindProject(LoadAllData(f.Store), "prj_ghost")
	require.True(t, ok)
	require.Equal(t, PlaceholderProjectWorktree, p.Worktree)

	res := DeleteProject(context.Background(), f.Store, p)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 1, res.FrecencyEntriesRemoved)
	assert.Equal(t, []string{`{"path":"/home","frequency":1,"lastOpen":0}`}, f.ReadFrecency())
}

func TestCleanFrecencyForDirectory_Guards(t *testing.T) {
	f := storetest.New(t)
	f.WriteFrecency(`{"path":"/a","frequency":1,"lastOpen":0}`)

	for _, dir := range []string{"", "   ", "/"} {
		n, err := CleanFrecencyForDirectory(f.Store, dir)
		require.NoError(t, err)
		assert.Equal(t, 0, n, "dir %q", dir)
	}
	assert.Len(t, f.ReadFrecency(), 1)

	n, err := CleanFrecencyForDirectory(f.Store, "/a")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCleanupEmptyProject_Validation(t *testing.T) {
	f := storetest.New(t)
	_, err := CleanupEmptyProject(f.Store, " ", "/x")
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))

	cleaned, err := CleanupEmptyProject(f.Store, "prj_none", "")
	require.NoError(t, err)
	assert.False(t, cleaned)
}

func TestDeleteLog(t *testing.T) {
	f := storetest.New(t)
	path := f.AddLog("2025-01-01T000000.log", "0123456789")
	logs := LoadLogs(f.Store)
	require.Len(t, logs, 1)

	res := DeleteLog(f.Store, logs[0])
	require.True(t, res.Success)
	assert.Equal(t, int64(10), res.BytesFreed)
	assertGone(t, path)

	again := DeleteLog(f.Store, logs[0])
	assert.True(t, again.Success)
	assert.Equal(t, int64(0), again.BytesFreed)
}

func TestDeleteLog_RejectsPathsOutsideLogDir(t *testing.T) {
	f := storetest.New(t)
	victim := f.AddSession(session("ses_1", "prj_a", "", 1, 1))

	res := DeleteLog(f.Store, LogFile{Name: "../storage/session/prj_a/ses_1.json"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "invalid log name")
	assertPresent(t, victim)
}

func TestDeleteLogs_Batch(t *testing.T) {
	fail := map[string]bool{}
	f := storetest.New(t, failingRemove(fail))
	f.AddLog("2025-01-01T000000.log", "aaaa")
	stuck := f.AddLog("2025-01-02T000000.log", "bb")
	fail[stuck] = true

	out := DeleteLogs(context.Background(), f.Store, LoadLogs(f.Store))
	assert.Equal(t, 1, out.Deleted)
	assert.Equal(t, 1, out.Failed)
	assert.Equal(t, int64(4), out.BytesFreed)
	assert.Equal(t, "Deleted 1 log (4 B freed); 1 failed", out.Message)
}

func TestCleanupEmptyProject_RejectsEscapingIDs(t *testing.T) {
	f := storetest.New(t)
	dir := f.WorkDir("app")
	rec := f.AddProject(project("prj_a", dir, 1, 1))
	ses := seedSession(t, f, session("ses_1", "prj_a", dir, 1, 1), 1, true)
	logFile := f.AddLog("2025-01-01T000000.log", "log line")

	for _, id := range []string{"..", ".", "../..", "prj_a/..", `..\prj_a`, "a..b"} {
		cleaned, err := CleanupEmptyProject(f.Store, id, "")
		assert.True(t, errors.Is(err, errors.ErrInvalidRequest), "id %q: %v", id, err)
		assert.False(t, cleaned, "id %q", id)
	}
	assertPresent(t, rec, ses.Record, ses.MsgDir, logFile, f.Store.SessionsRoot())
}

func TestDeleteProject_RejectsEscapingIDs(t *testing.T) {
	f := storetest.New(t)
	dir := f.WorkDir("app")
	rec := f.AddProject(project("prj_a", dir, 1, 1))
	ses := seedSession(t, f, session("ses_1", "prj_a", dir, 1, 1), 1, false)
	logFile := f.AddLog("2025-01-01T000000.log", "log line")

	res := DeleteProject(context.Background(), f.Store, ProjectInfo{Project: storage.Project{ID: ".."}})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "invalid project id")
	assert.Zero(t, res.FilesDeleted)
	assertPresent(t, rec, ses.Record, logFile)
}

func TestDeleteSession_RejectsEscapingIDs(t *testing.T) {
	f := storetest.New(t)
	dir := f.WorkDir("app")
	ses := seedSession(t, f, session("ses_1", "prj_a", dir, 1, 1), 1, true)

	for _, s := range []SessionInfo{
		{Session: storage.Session{ID: "..", ProjectID: "prj_a"}},
		{Session: storage.Session{ID: "ses_1", ProjectID: ".."}},
		{Session: storage.Session{ID: "ses_1", ProjectID: ""}},
	} {
		res := DeleteSession(f.Store, s)
		assert.False(t, res.Success, "%s/%s", s.ProjectID, s.ID)
		assert.Zero(t, res.FilesDeleted)
	}
	assertPresent(t, append(ses.Files, ses.MsgDir)...)
}
