package ops

import "fmt"

// PreviewItem is one target a deletion would touch.
type PreviewItem struct {
	ID        string `json:"id"`
	Label     string `json:"label,omitempty"`
	SizeBytes int64  `json:"size_bytes"`
}

// PreviewOutput describes what a deletion batch would remove without
// touching the disk.
type PreviewOutput struct {
	DryRun  bool          `json:"dry_run"`
	Kind    string        `json:"kind"`
	Items   []PreviewItem `json:"items"`
	Count   int           `json:"count"`
	Bytes   int64         `json:"bytes"`
	Message string        `json:"message"`
}

// PreviewSessions reports what DeleteSessions would remove.
func PreviewSessions(sessions []SessionInfo) *PreviewOutput {
	out := &PreviewOutput{DryRun: true, Kind: "session", Items: make([]PreviewItem, 0, len(sessions))}
	for _, s := range sessions {
		out.add(s.ID, s.Title, s.SizeBytes)
	}
	out.Message = formatPreviewMessage("session", out.Count, out.Bytes)
	return out
}

// PreviewProjects reports what DeleteProjects would remove. Sizes cover the
// sessions known to the snapshot only.
func PreviewProjects(projects []ProjectInfo) *PreviewOutput {
	out := &PreviewOutput{DryRun: true, Kind: "project", Items: make([]PreviewItem, 0, len(projects))}
	for _, p := range projects {
		out.add(p.ID, p.Worktree, p.TotalSizeBytes)
	}
	out.Message = formatPreviewMessage("project", out.Count, out.Bytes)
	return out
}

// PreviewLogs reports what DeleteLogs would remove.
func PreviewLogs(logs []LogFile) *PreviewOutput {
	out := &PreviewOutput{DryRun: true, Kind: "log", Items: make([]PreviewItem, 0, len(logs))}
	for _, l := range logs {
		out.add(l.Name, "", l.SizeBytes)
	}
	out.Message = formatPreviewMessage("log", out.Count, out.Bytes)
	return out
}

func (p *PreviewOutput) add(id, label string, size int64) {
	p.Items = append(p.Items, PreviewItem{ID: id, Label: label, SizeBytes: size})
	p.Count++
	p.Bytes += size
}

func formatPreviewMessage(noun string, count int, bytes int64) string {
	if count == 0 {
		return fmt.Sprintf("No %s matched", plural(2, noun))
	}
	return fmt.Sprintf("Would delete %d %s (%s)", count, plural(count, noun), freed(bytes))
}
