// Package storetest builds synthetic OpenCode storage trees for tests.
package storetest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/octidy/internal/config"
	"github.com/hpungsan/octidy/internal/storage"
)

// Fixture is a temporary OpenCode data/state tree plus a Store over it.
type Fixture struct {
	t     *testing.T
	Root  string
	Paths config.Paths
	Store *storage.Store
}

// New creates an empty fixture under t.TempDir().
func New(t *testing.T, opts ...storage.Option) *Fixture {
	t.Helper()
	root := t.TempDir()
	paths := config.PathsFor(root,
		filepath.Join(root, "data", "opencode"),
		filepath.Join(root, "state", "opencode"))
	return &Fixture{
		t:     t,
		Root:  root,
		Paths: paths,
		Store: storage.NewStore(paths, opts...),
	}
}

// WorkDir creates (and returns) a directory that stands in for a project
// worktree or session working directory that still exists.
func (f *Fixture) WorkDir(name string) string {
	f.t.Helper()
	dir := filepath.Join(f.Root, "work", name)
	require.NoError(f.t, os.MkdirAll(dir, 0755))
	return dir
}

// MissingDir returns a path under the fixture root that does not exist.
func (f *Fixture) MissingDir(name string) string {
	return filepath.Join(f.Root, "gone", name)
}

// AddProject writes a project record and returns its path.
func (f *Fixture) AddProject(p storage.Project) string {
	f.t.Helper()
	path := f.Store.ProjectFile(p.ID)
	f.writeJSON(path, p)
	return path
}

// AddSession writes a session record under its projectID and returns its path.
func (f *Fixture) AddSession(s storage.Session) string {
	f.t.Helper()
	path := f.Store.SessionFile(s.ProjectID, s.ID)
	f.writeJSON(path, s)
	return path
}

// AddMessage writes a message record and returns its path.
func (f *Fixture) AddMessage(m storage.Message) string {
	f.t.Helper()
	path := filepath.Join(f.Store.MessageDir(m.SessionID), m.ID+".json")
	f.writeJSON(path, m)
	return path
}

// AddPart writes a part record and returns its path.
func (f *Fixture) AddPart(p storage.Part) string {
	f.t.Helper()
	path := filepath.Join(f.Store.PartDir(p.MessageID), p.ID+".json")
	f.writeJSON(path, p)
	return path
}

// AddTodos writes the todo list for a session and returns its path.
func (f *Fixture) AddTodos(sessionID string, todos []storage.Todo) string {
	f.t.Helper()
	path := f.Store.TodoFile(sessionID)
	f.writeJSON(path, todos)
	return path
}

// AddDiff writes a session diff document and returns its path.
func (f *Fixture) AddDiff(sessionID string, body any) string {
	f.t.Helper()
	path := f.Store.DiffFile(sessionID)
	f.writeJSON(path, body)
	return path
}

// AddSnapshot writes a file into the project's snapshot directory.
func (f *Fixture) AddSnapshot(projectID, name, content string) string {
	f.t.Helper()
	path := filepath.Join(f.Store.ProjectSnapshotDir(projectID), name)
	f.WriteRaw(path, content)
	return path
}

// AddLog writes a log file with the given name and content.
func (f *Fixture) AddLog(name, content string) string {
	f.t.Helper()
	path := filepath.Join(f.Store.LogDir(), name)
	f.WriteRaw(path, content)
	return path
}

// WriteFrecency writes lines (joined with newlines) as the frequency index.
func (f *Fixture) WriteFrecency(lines ...string) string {
	f.t.Helper()
	path := f.Store.FrecencyFile()
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	f.WriteRaw(path, content)
	return path
}

// ReadFrecency returns the non-empty lines of the frequency index.
func (f *Fixture) ReadFrecency() []string {
	f.t.Helper()
	data, err := os.ReadFile(f.Store.FrecencyFile())
	require.NoError(f.t, err)
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// WriteRaw writes content to path, creating parent directories.
func (f *Fixture) WriteRaw(path, content string) {
	f.t.Helper()
	require.NoError(f.t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(f.t, os.WriteFile(path, []byte(content), 0644))
}

// Size returns the size of the file at path, failing the test if it is absent.
func (f *Fixture) Size(path string) int64 {
	f.t.Helper()
	info, err := os.Stat(path)
	require.NoError(f.t, err)
	return info.Size()
}

func (f *Fixture) writeJSON(path string, v any) {
	f.t.Helper()
	data, err := json.Marshal(v)
	require.NoError(f.t, err)
	f.WriteRaw(path, string(data))
}
