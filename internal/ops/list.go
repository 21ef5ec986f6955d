package ops

import "strings"

// ListSessionsInput contains parameters for the ListSessions operation.
type ListSessionsInput struct {
	ProjectID   string // optional filter
	OrphansOnly bool
	Limit       int // default: 50, max: 500
	Offset      int
}

// ListSessionsOutput contains the result of the ListSessions operation.
type ListSessionsOutput struct {
	Items      []SessionInfo `json:"items"`
	Pagination Pagination    `json:"pagination"`
	Sort       string        `json:"sort"`
}

// ListProjectsInput contains parameters for the ListProjects operation.
type ListProjectsInput struct {
	OrphansOnly bool
	Limit       int
	Offset      int
}

// ListProjectsOutput contains the result of the ListProjects operation.
// Items carry counts and sizes but not their sessions.
type ListProjectsOutput struct {
	Items      []ProjectInfo `json:"items"`
	Pagination Pagination    `json:"pagination"`
	Sort       string        `json:"sort"`
}

// ListSessions pages through a snapshot's sessions, newest first.
func ListSessions(data *LoadedData, input ListSessionsInput) *ListSessionsOutput {
	projectID := strings.TrimSpace(input.ProjectID)

	filtered := make([]SessionInfo, 0, len(data.Sessions))
	for _, s := range data.Sessions {
		if projectID != "" && s.ProjectID != projectID {
			continue
		}
		if input.OrphansOnly && !s.IsOrphan {
			continue
		}
		filtered = append(filtered, s)
	}

	start, end, page := paginate(len(filtered), input.Limit, input.Offset)
	return &ListSessionsOutput{
		Items:      filtered[start:end],
		Pagination: page,
		Sort:       "updated_desc",
	}
}

// ListProjects pages through a snapshot's projects, newest first.
func ListProjects(data *LoadedData, input ListProjectsInput) *ListProjectsOutput {
	filtered := make([]ProjectInfo, 0, len(data.Projects))
	for _, p := range data.Projects {
		if input.OrphansOnly && !p.IsOrphan {
			continue
		}
		p.Sessions = nil
		filtered = append(filtered, p)
	}

	start, end, page := paginate(len(filtered), input.Limit, input.Offset)
	return &ListProjectsOutput{
		Items:      filtered[start:end],
		Pagination: page,
		Sort:       "updated_desc",
	}
}
