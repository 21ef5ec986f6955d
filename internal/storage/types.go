package storage

import "encoding/json"

// Project is a project record from storage/project/<id>.json.
type Project struct {
	ID       string      `json:"id"`
	Worktree string      `json:"worktree"`
	VCS      string      `json:"vcs,omitempty"`
	Time     ProjectTime `json:"time"`
}

// ProjectTime holds project timestamps in Unix milliseconds.
type ProjectTime struct {
	Created int64 `json:"created"`
	Updated int64 `json:"updated,omitempty"`
}

// Session is a session record from storage/session/<projectID>/<id>.json.
type Session struct {
	ID        string          `json:"id"`
	Slug      string          `json:"slug,omitempty"`
	Version   string          `json:"version,omitempty"`
	ProjectID string          `json:"projectID"`
	Directory string          `json:"directory"`
	ParentID  string          `json:"parentID,omitempty"`
	Title     string          `json:"title,omitempty"`
	Time      SessionTime     `json:"time"`
	Summary   *SessionSummary `json:"summary,omitempty"`
}

// SessionTime holds session timestamps in Unix milliseconds.
type SessionTime struct {
	Created int64 `json:"created"`
	Updated int64 `json:"updated"`
}

// SessionSummary is the change summary OpenCode attaches to a session.
type SessionSummary struct {
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
	Files     int `json:"files"`
}

// Message is a message record from storage/message/<sessionID>/<id>.json.
type Message struct {
	ID         string         `json:"id"`
	SessionID  string         `json:"sessionID"`
	Role       string         `json:"role"`
	Time       MessageTime    `json:"time"`
	Tokens     *MessageTokens `json:"tokens,omitempty"`
	Cost       float64        `json:"cost,omitempty"`
	Finish     string         `json:"finish,omitempty"`
	ModelID    string         `json:"modelID,omitempty"`
	ProviderID string         `json:"providerID,omitempty"`
}

// MessageTime holds message timestamps in Unix milliseconds.
type MessageTime struct {
	Created   int64 `json:"created"`
	Completed int64 `json:"completed,omitempty"`
}

// MessageTokens is the token accounting of an assistant message.
type MessageTokens struct {
	Input     int64 `json:"input"`
	Output    int64 `json:"output"`
	Reasoning int64 `json:"reasoning"`
	Cache     struct {
		Read  int64 `json:"read"`
		Write int64 `json:"write"`
	} `json:"cache"`
}

// Part is a part record from storage/part/<messageID>/<id>.json.
type Part struct {
	ID        string          `json:"id"`
	SessionID string          `json:"sessionID"`
	MessageID string          `json:"messageID"`
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	Tool      string          `json:"tool,omitempty"`
	State     json.RawMessage `json:"state,omitempty"`
	Time      *PartTime       `json:"time,omitempty"`
}

// PartTime holds part timestamps in Unix milliseconds.
type PartTime struct {
	Start int64 `json:"start"`
	End   int64 `json:"end,omitempty"`
}

// Todo is one entry of storage/todo/<sessionID>.json.
type Todo struct {
	ID       string `json:"id"`
	Content  string `json:"content"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
}
