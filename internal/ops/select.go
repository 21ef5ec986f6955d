package ops

import (
	"strings"
	"time"

	"github.com/hpungsan/octidy/internal/errors"
)

// SelectInput contains the filters that resolve a set of sessions from a
// snapshot. Filters combine with AND.
type SelectInput struct {
	IDs           []string
	ProjectID     string
	OrphansOnly   bool
	OlderThanDays int
}

// FindSession returns the session with the given id.
func FindSession(data *LoadedData, id string) (SessionInfo, bool) {
	for _, s := range data.Sessions {
		if s.ID == id {
			return s, true
		}
	}
	return SessionInfo{}, false
}

// FindProject returns the project (real or placeholder) with the given id.
func FindProject(data *LoadedData, id string) (ProjectInfo, bool) {
	for _, p := range data.Projects {
		if p.ID == id {
			return p, true
		}
	}
	return ProjectInfo{}, false
}

// OrphanSessions returns the sessions whose working directory is gone.
func OrphanSessions(data *LoadedData) []SessionInfo {
	out := []SessionInfo{}
	for _, s := range data.Sessions {
		if s.IsOrphan {
			out = append(out, s)
		}
	}
	return out
}

// OrphanProjects returns the projects whose worktree is gone or that have
// no record.
func OrphanProjects(data *LoadedData) []ProjectInfo {
	out := []ProjectInfo{}
	for _, p := range data.Projects {
		if p.IsOrphan {
			out = append(out, p)
		}
	}
	return out
}

// SelectSessions resolves filters against a snapshot. At least one filter
// is required (safety guard). Explicit ids that are not in the snapshot are
// a NOT_FOUND error so a typo never silently selects nothing.
func SelectSessions(data *LoadedData, input SelectInput, now time.Time) ([]SessionInfo, error) {
	ids := cleanIDs(input.IDs)
	projectID := strings.TrimSpace(input.ProjectID)

	if input.OlderThanDays < 0 {
		return nil, errors.NewInvalidRequest("older_than_days must not be negative")
	}
	if len(ids) == 0 && projectID == "" && !input.OrphansOnly && input.OlderThanDays == 0 {
		return nil, errors.NewInvalidRequest("at least one filter is required")
	}

	var wanted map[string]bool
	if len(ids) > 0 {
		wanted = make(map[string]bool, len(ids))
		for _, id := range ids {
			if _, ok := FindSession(data, id); !ok {
				return nil, errors.NewNotFound("session", id)
			}
			wanted[id] = true
		}
	}
	if projectID != "" {
		if _, ok := FindProject(data, projectID); !ok {
			return nil, errors.NewNotFound("project", projectID)
		}
	}
	cutoff := cutoffMillis(now, input.OlderThanDays)

	out := []SessionInfo{}
	for _, s := range data.Sessions {
		if wanted != nil && !wanted[s.ID] {
			continue
		}
		if projectID != "" && s.ProjectID != projectID {
			continue
		}
		if input.OrphansOnly && !s.IsOrphan {
			continue
		}
		if input.OlderThanDays > 0 && s.Time.Updated >= cutoff {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// SelectProjects resolves project ids against a snapshot, or every orphan
// project when orphansOnly is set.
func SelectProjects(data *LoadedData, ids []string, orphansOnly bool) ([]ProjectInfo, error) {
	ids = cleanIDs(ids)
	if len(ids) == 0 && !orphansOnly {
		return nil, errors.NewInvalidRequest("at least one project id or the orphans filter is required")
	}

	if len(ids) == 0 {
		return OrphanProjects(data), nil
	}

	out := make([]ProjectInfo, 0, len(ids))
	for _, id := range ids {
		p, ok := FindProject(data, id)
		if !ok {
			return nil, errors.NewNotFound("project", id)
		}
		if orphansOnly && !p.IsOrphan {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// SelectLogs resolves log names, or every log older than olderThanDays.
// At least one of the two is required.
func SelectLogs(data *LoadedData, names []string, olderThanDays int, now time.Time) ([]LogFile, error) {
	names = cleanIDs(names)
	if olderThanDays < 0 {
		return nil, errors.NewInvalidRequest("older_than_days must not be negative")
	}
	if len(names) == 0 && olderThanDays == 0 {
		return nil, errors.NewInvalidRequest("at least one log name or older_than_days is required")
	}

	byName := make(map[string]LogFile, len(data.Logs))
	for _, l := range data.Logs {
		byName[l.Name] = l
	}

	if len(names) > 0 {
		out := make([]LogFile, 0, len(names))
		for _, name := range names {
			l, ok := byName[name]
			if !ok {
				return nil, errors.NewNotFound("log", name)
			}
			if olderThanDays > 0 && !l.Date.Before(now.AddDate(0, 0, -olderThanDays)) {
				continue
			}
			out = append(out, l)
		}
		return out, nil
	}

	cutoff := now.AddDate(0, 0, -olderThanDays)
	out := []LogFile{}
	for _, l := range data.Logs {
		if l.Date.Before(cutoff) {
			out = append(out, l)
		}
	}
	return out, nil
}

// cutoffMillis is the epoch-millisecond instant olderThanDays before now.
func cutoffMillis(now time.Time, olderThanDays int) int64 {
	return now.AddDate(0, 0, -olderThanDays).UnixMilli()
}

// cleanIDs trims ids, drops blanks and removes duplicates, keeping order.
func cleanIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
