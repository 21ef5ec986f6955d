package ops

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/octidy/internal/storage"
	"github.com/hpungsan/octidy/internal/storetest"
)

// seededSession lists every file and directory a seeded session owns.
type seededSession struct {
	ID       string
	Record   string
	MsgDir   string
	PartDirs []string
	Diff     string
	Todo     string
	// Files is every regular file written for the session.
	Files []string
}

// seedSession writes a session record with messages (two parts each) and,
// when withExtras is set, a diff and a todo file.
func seedSession(t *testing.T, f *storetest.Fixture, s storage.Session, messages int, withExtras bool) seededSession {
	t.Helper()
	out := seededSession{ID: s.ID}

	out.Record = f.AddSession(s)
	out.Files = append(out.Files, out.Record)
	out.MsgDir = f.Store.MessageDir(s.ID)

	for i := 0; i < messages; i++ {
		msgID := fmt.Sprintf("msg_%s_%02d", s.ID, i)
		out.Files = append(out.Files, f.AddMessage(storage.Message{
			ID:        msgID,
			SessionID: s.ID,
			Role:      "user",
			Time:      storage.MessageTime{Created: s.Time.Created + int64(i)},
		}))
		for j := 0; j < 2; j++ {
			out.Files = append(out.Files, f.AddPart(storage.Part{
				ID:        fmt.Sprintf("prt_%s_%02d_%d", s.ID, i, j),
				SessionID: s.ID,
				MessageID: msgID,
				Type:      "text",
				Text:      fmt.Sprintf("part %d of message %d", j, i),
			}))
		}
		out.PartDirs = append(out.PartDirs, f.Store.PartDir(msgID))
	}

	if withExtras {
		out.Diff = f.AddDiff(s.ID, []map[string]any{{"file": "main.go", "additions": 3}})
		out.Todo = f.AddTodos(s.ID, []storage.Todo{{ID: "1", Content: "ship it", Status: "pending", Priority: "high"}})
		out.Files = append(out.Files, out.Diff, out.Todo)
	}
	return out
}

// totalSize sums the sizes of the given files.
func totalSize(f *storetest.Fixture, files []string) int64 {
	var n int64
	for _, p := range files {
		n += f.Size(p)
	}
	return n
}

// session builds a session record for tests.
func session(id, projectID, dir string, created, updated int64) storage.Session {
	return storage.Session{
		ID:        id,
		Slug:      id,
		Version:   "1.0.0",
		ProjectID: projectID,
		Directory: dir,
		Title:     "session " + id,
		Time:      storage.SessionTime{Created: created, Updated: updated},
	}
}

// project builds a project record for tests.
func project(id, worktree string, created, updated int64) storage.Project {
	return storage.Project{
		ID:       id,
		Worktree: worktree,
		VCS:      "git",
		Time:     storage.ProjectTime{Created: created, Updated: updated},
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name                  string
		total, limit, offset  int
		wantStart, wantEnd    int
		wantLimit, wantOffset int
		hasMore               bool
	}{
		{"defaults", 120, 0, 0, 0, DefaultListLimit, DefaultListLimit, 0, true},
		{"clamped limit", 1000, 9999, 0, 0, MaxListLimit, MaxListLimit, 0, true},
		{"negative offset", 3, 10, -5, 0, 3, 10, 0, false},
		{"last page", 5, 2, 4, 4, 5, 2, 4, false},
		{"offset past end", 5, 2, 9, 5, 5, 2, 9, false},
		{"empty", 0, 10, 0, 0, 0, 10, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, p := paginate(tt.total, tt.limit, tt.offset)
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("bounds = [%d:%d], want [%d:%d]", start, end, tt.wantStart, tt.wantEnd)
			}
			if p.Limit != tt.wantLimit || p.Offset != tt.wantOffset || p.HasMore != tt.hasMore || p.Total != tt.total {
				t.Errorf("pagination = %+v", p)
			}
		})
	}
}
