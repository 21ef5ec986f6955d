// Package transcript renders a session's conversation as Markdown and HTML.
package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/hpungsan/octidy/internal/storage"
)

// Conversation is everything a transcript is rendered from.
type Conversation struct {
	Session  storage.Session
	Messages []storage.Message
	// Parts maps a message id to its parts, in display order.
	Parts map[string][]storage.Part
	Todos []storage.Todo
}

// markdown has the GFM extensions so todo lists and tables render.
var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Render builds a Markdown transcript. Only text, reasoning and tool parts
// are shown; bookkeeping parts like step markers and snapshots are skipped.
func Render(c Conversation) string {
	var b strings.Builder

	title := strings.TrimSpace(c.Session.Title)
	if title == "" {
		title = c.Session.ID
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "- Session: `%s`\n", c.Session.ID)
	fmt.Fprintf(&b, "- Project: `%s`\n", c.Session.ProjectID)
	if c.Session.Directory != "" {
		fmt.Fprintf(&b, "- Directory: `%s`\n", c.Session.Directory)
	}
	fmt.Fprintf(&b, "- Created: %s\n", formatMillis(c.Session.Time.Created))
	fmt.Fprintf(&b, "- Updated: %s\n", formatMillis(c.Session.Time.Updated))

	for _, m := range c.Messages {
		fmt.Fprintf(&b, "\n## %s · %s\n", roleTitle(m.Role), formatMillis(m.Time.Created))
		if m.ModelID != "" {
			fmt.Fprintf(&b, "\n_%s_\n", strings.Trim(m.ProviderID+"/"+m.ModelID, "/"))
		}
		for _, p := range c.Parts[m.ID] {
			writePart(&b, p)
		}
	}

	if len(c.Todos) > 0 {
		b.WriteString("\n## Todos\n\n")
		for _, t := range c.Todos {
			mark := " "
			if t.Status == "completed" {
				mark = "x"
			}
			fmt.Fprintf(&b, "- [%s] %s", mark, t.Content)
			if t.Priority != "" {
				fmt.Fprintf(&b, " (%s)", t.Priority)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// RenderHTML converts a Markdown transcript into a standalone HTML page.
func RenderHTML(title, md string) (string, error) {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(md), &body); err != nil {
		return "", fmt.Errorf("transcript: convert markdown: %w", err)
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(title))
	b.WriteString("</head>\n<body>\n")
	b.Write(body.Bytes())
	b.WriteString("</body>\n</html>\n")
	return b.String(), nil
}

func writePart(b *strings.Builder, p storage.Part) {
	switch p.Type {
	case "text":
		if text := strings.TrimSpace(p.Text); text != "" {
			fmt.Fprintf(b, "\n%s\n", text)
		}
	case "reasoning":
		if text := strings.TrimSpace(p.Text); text != "" {
			b.WriteString("\n")
			for _, line := range strings.Split(text, "\n") {
				fmt.Fprintf(b, "> %s\n", line)
			}
		}
	case "tool":
		fmt.Fprintf(b, "\n**Tool** `%s`", p.Tool)
		if status := toolStatus(p.State); status != "" {
			fmt.Fprintf(b, " (%s)", status)
		}
		b.WriteString("\n")
	}
}

// toolStatus pulls the status out of a tool part's state, if it has one.
func toolStatus(state json.RawMessage) string {
	if len(state) == 0 {
		return ""
	}
	var s struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(state, &s); err != nil {
		return ""
	}
	return s.Status
}

func roleTitle(role string) string {
	switch role {
	case "user":
		return "User"
	case "assistant":
		return "Assistant"
	case "":
		return "Unknown"
	default:
		return role
	}
}

// formatMillis formats a Unix millisecond timestamp as "2006-01-02 15:04" UTC.
func formatMillis(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04")
}
