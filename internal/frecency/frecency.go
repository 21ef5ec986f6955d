// Package frecency reads and prunes OpenCode's frecency.jsonl, a
// line-delimited log of directory usage. Other tools append to it; this
// package only reads it and rewrites it with entries filtered out.
package frecency

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Entry is one line of the index.
type Entry struct {
	Path      string `json:"path"`
	Frequency int    `json:"frequency"`
	LastOpen  int64  `json:"lastOpen"`
}

// Index is the frecency file at a fixed path.
type Index struct {
	path string
}

// New returns the index stored at path.
func New(path string) *Index {
	return &Index{path: path}
}

// Path returns the file backing the index.
func (idx *Index) Path() string { return idx.path }

// Load parses every non-empty line. Lines that are not valid entries are
// skipped. A missing or unreadable file yields no entries.
func (idx *Index) Load() []Entry {
	data, err := os.ReadFile(idx.path)
	if err != nil {
		return nil
	}
	var entries []Entry
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries
}

// RemoveByPathPrefix rewrites the whole file without the entries whose path
// starts with prefix and returns how many were removed. Lines that do not
// parse are kept verbatim. A missing file is left missing and reports 0.
func (idx *Index) RemoveByPathPrefix(prefix string) (int, error) {
	data, err := os.ReadFile(idx.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("frecency: read %q: %w", idx.path, err)
	}

	lines := strings.Split(string(data), "\n")
	kept := make([]string, 0, len(lines))
	removed := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err == nil && strings.HasPrefix(e.Path, prefix) {
			removed++
			continue
		}
		kept = append(kept, line)
	}

	if removed == 0 {
		return 0, nil
	}

	out := strings.Join(kept, "\n")
	if len(kept) > 0 {
		out += "\n"
	}
	mode := os.FileMode(0644)
	if info, err := os.Stat(idx.path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := writeAtomic(idx.path, []byte(out), mode); err != nil {
		return 0, fmt.Errorf("frecency: write %q: %w", idx.path, err)
	}
	return removed, nil
}

// writeAtomic writes data to a temp file beside path and renames it over
// path, so readers see either the old index or the new one.
func writeAtomic(path string, data []byte, mode os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}
	committed = true
	return nil
}
