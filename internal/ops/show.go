package ops

import (
	"github.com/hpungsan/octidy/internal/errors"
	"github.com/hpungsan/octidy/internal/storage"
)

// ShowSessionInput contains parameters for the ShowSession operation.
type ShowSessionInput struct {
	SessionID    string
	IncludeParts bool
}

// MessageDetail is a message with its parts, when requested.
type MessageDetail struct {
	storage.Message
	Parts []storage.Part `json:"parts,omitempty"`
}

// ShowSessionOutput contains the result of the ShowSession operation.
type ShowSessionOutput struct {
	Session  SessionInfo     `json:"session"`
	Messages []MessageDetail `json:"messages"`
	Todos    []storage.Todo  `json:"todos"`
}

// ShowSession returns one session of a snapshot together with its messages
// and todos read fresh from disk.
func ShowSession(st *storage.Store, data *LoadedData, input ShowSessionInput) (*ShowSessionOutput, error) {
	if input.SessionID == "" {
		return nil, errors.NewInvalidRequest("session_id is required")
	}
	s, ok := FindSession(data, input.SessionID)
	if !ok {
		return nil, errors.NewNotFound("session", input.SessionID)
	}

	messages := LoadMessages(st, s.ID)
	details := make([]MessageDetail, len(messages))
	for i, m := range messages {
		details[i] = MessageDetail{Message: m}
		if input.IncludeParts {
			details[i].Parts = LoadParts(st, m.ID)
		}
	}

	return &ShowSessionOutput{
		Session:  s,
		Messages: details,
		Todos:    LoadTodos(st, s.ID),
	}, nil
}
