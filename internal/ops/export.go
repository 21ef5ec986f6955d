package ops

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/hpungsan/octidy/internal/config"
	"github.com/hpungsan/octidy/internal/errors"
	"github.com/hpungsan/octidy/internal/storage"
	"github.com/hpungsan/octidy/internal/transcript"
)

// Transcript formats.
const (
	FormatMarkdown = "md"
	FormatHTML     = "html"
)

// ExportTranscriptInput contains parameters for the ExportTranscript operation.
type ExportTranscriptInput struct {
	SessionID  string
	Path       string // optional, default: <ExportsDir>/<session>-<timestamp>.<format>
	Format     string // "md" (default) or "html"
	ExportsDir string
}

// ExportTranscriptOutput contains the result of the ExportTranscript operation.
type ExportTranscriptOutput struct {
	Path       string `json:"path"`
	Format     string `json:"format"`
	SessionID  string `json:"session_id"`
	Messages   int    `json:"messages"`
	Bytes      int64  `json:"bytes"`
	ExportedAt int64  `json:"exported_at"`
}

// ExportTranscript renders a session's conversation and writes it to a file.
// The file is written to a temp path first and renamed into place, so an
// existing file survives a failed export.
func ExportTranscript(ctx context.Context, st *storage.Store, cfg *config.Config, input ExportTranscriptInput) (*ExportTranscriptOutput, error) {
	now := time.Now()

	format := strings.ToLower(strings.TrimSpace(input.Format))
	if format == "" {
		format = FormatMarkdown
	}
	if format != FormatMarkdown && format != FormatHTML {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown format %q (want md or html)", input.Format))
	}

	sess, err := FindSessionRecord(st, input.SessionID)
	if err != nil {
		return nil, err
	}

	exportPath := input.Path
	if exportPath == "" {
		name := fmt.Sprintf("%s-%s.%s", SanitizeForFilename(sess.ID), now.Format(logNameLayout), format)
		exportPath = filepath.Join(input.ExportsDir, name)
	}
	if err := ValidateExportPath(exportPath, "."+format, input.ExportsDir, cfg); err != nil {
		return nil, err
	}

	conv := transcript.Conversation{
		Session:  sess,
		Messages: LoadMessages(st, sess.ID),
		Parts:    make(map[string][]storage.Part),
		Todos:    LoadTodos(st, sess.ID),
	}
	for _, m := range conv.Messages {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewCancelled("export")
		}
		conv.Parts[m.ID] = LoadParts(st, m.ID)
	}

	content := transcript.Render(conv)
	if format == FormatHTML {
		title := sess.Title
		if title == "" {
			title = sess.ID
		}
		content, err = transcript.RenderHTML(title, content)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
	}

	if err := writeFileAtomic(exportPath, []byte(content)); err != nil {
		return nil, err
	}

	return &ExportTranscriptOutput{
		Path:       exportPath,
		Format:     format,
		SessionID:  sess.ID,
		Messages:   len(conv.Messages),
		Bytes:      int64(len(content)),
		ExportedAt: now.Unix(),
	}, nil
}

// FindSessionRecord locates a session record by id across all project
// directories. The directory it was found in is its projectID.
func FindSessionRecord(st *storage.Store, sessionID string) (storage.Session, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return storage.Session{}, errors.NewInvalidRequest("session id is required")
	}
	if !storage.ValidID(sessionID) {
		return storage.Session{}, errors.NewInvalidRequest("invalid session id: " + sessionID)
	}

	for _, projectID := range storage.ListDir(st.SessionsRoot()) {
		s, ok := storage.ReadRecord[storage.Session](st.SessionFile(projectID, sessionID))
		if !ok {
			continue
		}
		s.ID = sessionID
		s.ProjectID = projectID
		return s, nil
	}
	return storage.Session{}, errors.NewNotFound("session", sessionID)
}

// writeFileAtomic writes data next to path and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := file.Write(data); err != nil {
		return errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return errors.NewInternal(err)
	}
	// Close before rename (required on Windows).
	if err := file.Close(); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlinked destination.
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("export path is a symlink")
	}

	if err := os.Rename(tempPath, path); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(path); statErr == nil {
				return errors.NewInvalidRequest("export destination already exists; choose a new path or delete the existing file")
			}
		}
		return errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return nil
}
