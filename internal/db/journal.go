package db

import (
	"context"
	"crypto/rand"
	"database/sql"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/octidy/internal/errors"
)

// Deletion kinds recorded in the journal.
const (
	KindSession = "session"
	KindProject = "project"
	KindCleanup = "cleanup"
	KindLog     = "log"
)

// Deletion is one journaled deletion result.
type Deletion struct {
	ID           string `json:"id"`
	Kind         string `json:"kind"`
	TargetID     string `json:"target_id"`
	Label        string `json:"label,omitempty"`
	Success      bool   `json:"success"`
	FilesDeleted int    `json:"files_deleted"`
	BytesFreed   int64  `json:"bytes_freed"`
	Error        string `json:"error,omitempty"`
	CreatedAt    int64  `json:"created_at"`
}

// InsertDeletions records a batch of results in one transaction. Entries
// without an ID or CreatedAt get one. The slice is updated in place.
func InsertDeletions(ctx context.Context, db *sql.DB, entries []Deletion) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO deletions (
			id, kind, target_id, label, success,
			files_deleted, bytes_freed, error, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer stmt.Close()

	entropy := ulid.Monotonic(rand.Reader, 0)
	now := time.Now()
	for i := range entries {
		d := &entries[i]
		if d.ID == "" {
			d.ID = ulid.MustNew(ulid.Timestamp(now), entropy).String()
		}
		if d.CreatedAt == 0 {
			d.CreatedAt = now.Unix()
		}
		if _, err := stmt.ExecContext(ctx,
			d.ID, d.Kind, d.TargetID, toNullString(d.Label), boolToInt(d.Success),
			d.FilesDeleted, d.BytesFreed, toNullString(d.Error), d.CreatedAt,
		); err != nil {
			return errors.NewInternal(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// InsertDeletion records a single result.
func InsertDeletion(ctx context.Context, db *sql.DB, d *Deletion) error {
	entries := []Deletion{*d}
	if err := InsertDeletions(ctx, db, entries); err != nil {
		return err
	}
	*d = entries[0]
	return nil
}

// ListDeletions returns journal entries newest first. An empty kind lists
// every kind.
func ListDeletions(ctx context.Context, db *sql.DB, kind string, limit, offset int) ([]Deletion, int, error) {
	where := ""
	args := []any{}
	if kind != "" {
		where = "WHERE kind = ?"
		args = append(args, kind)
	}

	var total int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM deletions "+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	query := `
		SELECT id, kind, target_id, label, success,
			files_deleted, bytes_freed, error, created_at
		FROM deletions ` + where + `
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`
	rows, err := db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	entries := []Deletion{}
	for rows.Next() {
		var (
			d       Deletion
			label   sql.NullString
			errText sql.NullString
			success int
		)
		if err := rows.Scan(&d.ID, &d.Kind, &d.TargetID, &label, &success,
			&d.FilesDeleted, &d.BytesFreed, &errText, &d.CreatedAt); err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		d.Label = label.String
		d.Error = errText.String
		d.Success = success != 0
		entries = append(entries, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	return entries, total, nil
}

// PurgeDeletions removes entries older than olderThanDays and returns how
// many were removed. Zero purges everything.
func PurgeDeletions(ctx context.Context, db *sql.DB, olderThanDays int) (int, error) {
	if olderThanDays < 0 {
		return 0, errors.NewInvalidRequest("older_than_days must not be negative")
	}

	var (
		res sql.Result
		err error
	)
	if olderThanDays == 0 {
		res, err = db.ExecContext(ctx, "DELETE FROM deletions")
	} else {
		cutoff := time.Now().AddDate(0, 0, -olderThanDays).Unix()
		res, err = db.ExecContext(ctx, "DELETE FROM deletions WHERE created_at < ?", cutoff)
	}
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(n), nil
}

func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
