package ops

import (
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hpungsan/octidy/internal/storage"
)

// logNameLayout is the timestamp format of OpenCode log file names.
const logNameLayout = "2006-01-02T150405"

// LoadAllData builds a fresh snapshot of projects, sessions and logs.
// Nothing is cached between calls.
func LoadAllData(st *storage.Store) *LoadedData {
	projects := LoadProjects(st)
	sessions := LoadSessions(st, projects)
	infos := LoadProjectInfos(sessions, projects)
	logs := LoadLogs(st)

	data := &LoadedData{
		Sessions: sessions,
		Projects: infos,
		Logs:     logs,
	}
	data.Totals = computeTotals(data)
	return data
}

// LoadProjects reads every project record. Records that fail to parse are
// skipped. The file name is the project's identity.
func LoadProjects(st *storage.Store) map[string]storage.Project {
	projects := make(map[string]storage.Project)
	for _, id := range storage.RecordIDs(st.ProjectsDir()) {
		p, ok := storage.ReadRecord[storage.Project](st.ProjectFile(id))
		if !ok {
			continue
		}
		p.ID = id
		projects[id] = p
	}
	return projects
}

// LoadSessions reads every session record under session/<projectID>/ and
// enriches it. The result is ordered by time.updated, newest first; ties
// keep discovery order.
func LoadSessions(st *storage.Store, projects map[string]storage.Project) []SessionInfo {
	matches := storage.GlobRecords(st.SessionsRoot(), "*/*.json")

	sessions := make([]SessionInfo, 0, len(matches))
	for _, rel := range matches {
		projectID := path.Dir(rel)
		sessionID := strings.TrimSuffix(path.Base(rel), ".json")

		s, ok := storage.ReadRecord[storage.Session](st.SessionFile(projectID, sessionID))
		if !ok {
			continue
		}
		// The directory layout is the join key; the record's own fields
		// are only trusted when they agree with it.
		s.ID = sessionID
		s.ProjectID = projectID

		sessions = append(sessions, enrichSession(st, s, projects))
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].Time.Updated > sessions[j].Time.Updated
	})
	return sessions
}

// enrichSession joins a session record with its message, part, diff and todo
// namespaces. Size and message count are independent reads and run
// concurrently.
func enrichSession(st *storage.Store, s storage.Session, projects map[string]storage.Project) SessionInfo {
	info := SessionInfo{Session: s}

	var g errgroup.Group
	g.Go(func() error {
		info.SizeBytes = SessionSize(st, s)
		return nil
	})
	g.Go(func() error {
		info.MessageCount = storage.CountRecords(st.MessageDir(s.ID))
		return nil
	})
	_ = g.Wait()

	info.IsOrphan = !storage.Exists(s.Directory)
	info.ProjectWorktree = UnknownProjectWorktree
	if p, ok := projects[s.ProjectID]; ok {
		info.ProjectWorktree = p.Worktree
	}
	return info
}

// SessionSize is the number of bytes a session occupies across namespaces:
// its message directory, the part directory of each of its messages, its
// diff file, its todo file and its own record.
func SessionSize(st *storage.Store, s storage.Session) int64 {
	msgDir := st.MessageDir(s.ID)
	total := storage.DirSize(msgDir)
	for _, messageID := range storage.RecordIDs(msgDir) {
		total += storage.DirSize(st.PartDir(messageID))
	}
	total += storage.FileSize(st.DiffFile(s.ID))
	total += storage.FileSize(st.TodoFile(s.ID))
	total += storage.FileSize(st.SessionFile(s.ProjectID, s.ID))
	return total
}

// LoadProjectInfos groups sessions by projectID. Every session lands in
// exactly one ProjectInfo: its project record if one exists, otherwise a
// placeholder synthesized from the sessions themselves. Projects without
// sessions are included with zero counts. Ordered by time.updated, newest
// first.
func LoadProjectInfos(sessions []SessionInfo, projects map[string]storage.Project) []ProjectInfo {
	groups := make(map[string][]SessionInfo)
	var order []string
	for _, s := range sessions {
		if _, seen := groups[s.ProjectID]; !seen {
			order = append(order, s.ProjectID)
		}
		groups[s.ProjectID] = append(groups[s.ProjectID], s)
	}

	ids := make([]string, 0, len(projects))
	for id := range projects {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	infos := make([]ProjectInfo, 0, len(projects)+len(order))
	for _, id := range ids {
		p := projects[id]
		group := groups[id]
		info := ProjectInfo{
			Project:      p,
			SessionCount: len(group),
			IsOrphan:     !storage.Exists(p.Worktree),
			HasRecord:    true,
			Sessions:     group,
		}
		for _, s := range group {
			info.TotalSizeBytes += s.SizeBytes
		}
		infos = append(infos, info)
	}

	for _, id := range order {
		if _, known := projects[id]; known {
			continue
		}
		infos = append(infos, placeholderProject(id, groups[id]))
	}

	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].Time.Updated > infos[j].Time.Updated
	})
	return infos
}

// placeholderProject synthesizes a project for sessions whose projectID has
// no record on disk.
func placeholderProject(id string, group []SessionInfo) ProjectInfo {
	worktree := PlaceholderProjectWorktree
	if len(group) > 0 && group[0].Directory != "" {
		worktree = group[0].Directory
	}

	info := ProjectInfo{
		Project: storage.Project{
			ID:       id,
			Worktree: worktree,
		},
		SessionCount: len(group),
		IsOrphan:     true,
		HasRecord:    false,
		Sessions:     group,
	}
	for i, s := range group {
		info.TotalSizeBytes += s.SizeBytes
		if i == 0 || s.Time.Created < info.Time.Created {
			info.Time.Created = s.Time.Created
		}
		if i == 0 || s.Time.Updated > info.Time.Updated {
			info.Time.Updated = s.Time.Updated
		}
	}
	return info
}

// LoadLogs lists the *.log files in the log directory, newest first.
func LoadLogs(st *storage.Store) []LogFile {
	names := storage.GlobRecords(st.LogDir(), "*.log")
	now := time.Now()

	logs := make([]LogFile, 0, len(names))
	for _, name := range names {
		p := filepath.Join(st.LogDir(), name)
		logs = append(logs, LogFile{
			Name:      name,
			Path:      p,
			Date:      ParseLogDate(name, now),
			SizeBytes: storage.FileSize(p),
		})
	}

	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].Date.After(logs[j].Date)
	})
	return logs
}

// ParseLogDate extracts the timestamp from a log file name of the form
// YYYY-MM-DDTHHMMSS.log. Names that do not match return fallback.
func ParseLogDate(name string, fallback time.Time) time.Time {
	stem := strings.TrimSuffix(name, ".log")
	t, err := time.ParseInLocation(logNameLayout, stem, time.Local)
	if err != nil {
		return fallback
	}
	return t
}

func computeTotals(data *LoadedData) Totals {
	t := Totals{
		Sessions: len(data.Sessions),
		Projects: len(data.Projects),
		Logs:     len(data.Logs),
	}
	for _, s := range data.Sessions {
		t.SessionBytes += s.SizeBytes
		if s.IsOrphan {
			t.OrphanSessions++
		}
	}
	for _, p := range data.Projects {
		if p.IsOrphan {
			t.OrphanProjects++
		}
	}
	for _, l := range data.Logs {
		t.LogBytes += l.SizeBytes
	}
	return t
}
