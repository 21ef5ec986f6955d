package storage

import (
	"encoding/json"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
)

// The readers in this file never return errors. A missing file, an
// unreadable file and a malformed document all read as "absent" or zero.

// ReadRecord decodes the JSON document at path into a T.
// ok is false when the file is missing, unreadable or not valid JSON for T.
func ReadRecord[T any](path string) (T, bool) {
	var v T
	data, err := os.ReadFile(path)
	if err != nil {
		return v, false
	}
	if err := json.Unmarshal(data, &v); err != nil {
		var zero T
		return zero, false
	}
	return v, true
}

// FileSize returns the size of the file at path, or 0 if it is absent.
func FileSize(path string) int64 {
	info, err := os.Lstat(path)
	if err != nil || info.IsDir() {
		return 0
	}
	return info.Size()
}

// DirSize returns the total size of the regular files under path.
// Symlinks are not followed. A missing or unreadable directory is 0.
func DirSize(path string) int64 {
	info, err := os.Lstat(path)
	if err != nil {
		return 0
	}
	if !info.IsDir() {
		if info.Mode().IsRegular() {
			return info.Size()
		}
		return 0
	}

	var total atomic.Int64
	conf := fastwalk.Config{Follow: false, NumWorkers: 1}
	_ = fastwalk.Walk(&conf, path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if !d.Type().IsRegular() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return nil
		}
		total.Add(fi.Size())
		return nil
	})
	return total.Load()
}

// ListDir returns the entry names in path, sorted. Empty on any error.
func ListDir(path string) []string {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// RecordIDs returns the ids of the records stored directly in dir, i.e. the
// names of its .json files without the extension.
func RecordIDs(dir string) []string {
	var ids []string
	for _, name := range ListDir(dir) {
		if id, ok := strings.CutSuffix(name, recordExt); ok && id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// CountRecords returns the number of .json files directly in dir.
func CountRecords(dir string) int {
	return len(RecordIDs(dir))
}

// Exists reports whether path exists. Permission errors count as absent.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// GlobRecords matches pattern (doublestar syntax) against root and returns
// the matches relative to root, sorted. Empty if root is missing.
func GlobRecords(root, pattern string) []string {
	if !Exists(root) {
		return nil
	}
	matches, err := doublestar.Glob(os.DirFS(root), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil
	}
	sort.Strings(matches)
	return matches
}
