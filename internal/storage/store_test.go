package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/octidy/internal/config"
	"github.com/hpungsan/octidy/internal/errors"
)

func testStore(t *testing.T, opts ...Option) (*Store, string) {
	t.Helper()
	root := t.TempDir()
	paths := config.PathsFor(root, filepath.Join(root, "data"), filepath.Join(root, "state"))
	return NewStore(paths, opts...), root
}

func TestLayout(t *testing.T) {
	st, root := testStore(t)
	storage := filepath.Join(root, "data", "storage")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"project", st.ProjectFile("prj"), filepath.Join(storage, "project", "prj.json")},
		{"session dir", st.SessionDir("prj"), filepath.Join(storage, "session", "prj")},
		{"session file", st.SessionFile("prj", "ses"), filepath.Join(storage, "session", "prj", "ses.json")},
		{"message dir", st.MessageDir("ses"), filepath.Join(storage, "message", "ses")},
		{"part dir", st.PartDir("msg"), filepath.Join(storage, "part", "msg")},
		{"todo", st.TodoFile("ses"), filepath.Join(storage, "todo", "ses.json")},
		{"diff", st.DiffFile("ses"), filepath.Join(storage, "session_diff", "ses.json")},
		{"snapshot", st.ProjectSnapshotDir("prj"), filepath.Join(root, "data", "snapshot", "prj")},
		{"log", st.LogDir(), filepath.Join(root, "data", "log")},
		{"frecency", st.FrecencyFile(), filepath.Join(root, "state", "frecency.jsonl")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestRemove_File(t *testing.T) {
	st, root := testStore(t)
	path := filepath.Join(root, "f.json")
	writeFile(t, path, "{}")

	existed, err := st.Remove(path)
	require.NoError(t, err)
	assert.True(t, existed)
	assert.False(t, Exists(path))
}

func TestRemove_DirectoryRecursive(t *testing.T) {
	st, root := testStore(t)
	dir := filepath.Join(root, "part", "msg_1")
	writeFile(t, filepath.Join(dir, "prt_1.json"), "{}")
	writeFile(t, filepath.Join(dir, "nested", "prt_2.json"), "{}")

	existed, err := st.Remove(dir)
	require.NoError(t, err)
	assert.True(t, existed)
	assert.False(t, Exists(dir))
}

func TestRemove_MissingIsSuccess(t *testing.T) {
	st, root := testStore(t)

	existed, err := st.Remove(filepath.Join(root, "never", "there"))
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestRemove_FailureIsIOError(t *testing.T) {
	st, root := testStore(t, WithRemoveFunc(func(path string) error {
		return fmt.Errorf("device busy")
	}))
	path := filepath.Join(root, "f.json")
	writeFile(t, path, "{}")

	existed, err := st.Remove(path)
	require.Error(t, err)
	assert.True(t, existed)
	assert.True(t, errors.Is(err, errors.ErrIOFailure))
	assert.Contains(t, err.Error(), "device busy")

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr, "file must remain when removal fails")
}

func TestRemove_NotExistFromRemoverIsSuccess(t *testing.T) {
	st, root := testStore(t, WithRemoveFunc(func(path string) error {
		return os.ErrNotExist
	}))
	path := filepath.Join(root, "f.json")
	writeFile(t, path, "{}")

	existed, err := st.Remove(path)
	require.NoError(t, err)
	assert.True(t, existed)
}

func TestValidID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"prj_abc", true},
		{"ses_01J9Z", true},
		{"global", true},
		{"", false},
		{".", false},
		{"..", false},
		{"../x", false},
		{"a/b", false},
		{`a\b`, false},
		{"a..b", false},
	}
	for _, tt := range tests {
		if got := ValidID(tt.id); got != tt.want {
			t.Errorf("ValidID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
