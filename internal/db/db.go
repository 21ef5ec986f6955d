package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// FileName is the journal database file inside the config directory.
const FileName = "journal.db"

// migrations holds one schema step per user_version. Append only.
var migrations = []string{
	// v1: deletion audit trail
	`CREATE TABLE IF NOT EXISTS deletions (
	  id            TEXT PRIMARY KEY,
	  kind          TEXT NOT NULL,
	  target_id     TEXT NOT NULL,
	  label         TEXT,
	  success       INTEGER NOT NULL,
	  files_deleted INTEGER NOT NULL,
	  bytes_freed   INTEGER NOT NULL,
	  error         TEXT,
	  created_at    INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_deletions_created ON deletions(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_deletions_kind_created ON deletions(kind, created_at DESC);`,
}

// SchemaVersion is the journal schema version this build writes.
var SchemaVersion = len(migrations)

// Init opens (creating if needed) the journal at baseDir/journal.db and
// brings its schema up to date. Tests pass t.TempDir() as baseDir.
func Init(baseDir string) (*sql.DB, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	_ = os.Chmod(baseDir, 0700)

	dbPath := filepath.Join(baseDir, FileName)
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	if err := requireWAL(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	_ = os.Chmod(dbPath, 0600)
	return db, nil
}

// migrate applies every step past the stored user_version. A journal written
// by a newer build is refused rather than downgraded.
func migrate(db *sql.DB) error {
	version, err := userVersion(db)
	if err != nil {
		return err
	}
	if version > SchemaVersion {
		return fmt.Errorf("journal schema v%d is newer than supported v%d", version, SchemaVersion)
	}

	for v := version; v < SchemaVersion; v++ {
		if _, err := db.Exec(migrations[v]); err != nil {
			return fmt.Errorf("journal migration %d failed: %w", v+1, err)
		}
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", v+1)); err != nil {
			return fmt.Errorf("failed to set user_version: %w", err)
		}
	}
	return nil
}

func requireWAL(db *sql.DB) error {
	var mode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&mode); err != nil {
		return fmt.Errorf("failed to read journal_mode: %w", err)
	}
	if mode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", mode)
	}
	return nil
}

func userVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read user_version: %w", err)
	}
	return version, nil
}
